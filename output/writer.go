package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"timetrack/worklog"
)

// EntryHeaders match the importer's primary column names, so an export can
// be fed straight back into an import.
var EntryHeaders = []string{"Username", "Subject", "Description", "DateWorked", "MinutesWorked", "CreatedAt", "UpdatedAt"}

type Writer interface {
	Write(path, username string, entries []worklog.Entry) error
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case "csv":
		return &CSVWriter{}, nil
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// FormatForPath picks the output format from the file extension.
func FormatForPath(path string) string {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") {
		return "excel"
	}
	return "csv"
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

func entryRow(username string, entry worklog.Entry) []string {
	return []string{
		username,
		entry.Subject,
		entry.Description,
		entry.DateKey(),
		strconv.Itoa(entry.MinutesWorked),
		formatInstant(entry.CreatedAt),
		formatInstant(entry.UpdatedAt),
	}
}

func entryRows(username string, entries []worklog.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, entryRow(username, entry))
	}
	return rows
}

func formatInstant(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format(time.RFC3339)
}
