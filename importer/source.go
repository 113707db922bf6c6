package importer

import (
	"fmt"
	"iter"
	"path/filepath"
	"strings"
)

// RowSource streams the data rows of one opened import file. Rows can be
// ranged over once; reopen the file to read it again.
type RowSource interface {
	Rows() iter.Seq2[Record, error]
	Close() error
}

// OpenSource opens path with the reader for format. An empty format is
// inferred from the file extension and falls back to csv.
func OpenSource(path, format string) (RowSource, error) {
	resolved, err := resolveFormat(path, format)
	if err != nil {
		return nil, err
	}

	switch resolved {
	case "csv":
		return openCSV(path, ',')
	case "tsv":
		return openCSV(path, '\t')
	case "excel":
		return openExcel(path)
	default:
		return nil, fmt.Errorf("unsupported input format: %s", resolved)
	}
}

func resolveFormat(path, format string) (string, error) {
	if strings.TrimSpace(format) != "" {
		switch NormalizeHeader(format) {
		case "csv":
			return "csv", nil
		case "tsv":
			return "tsv", nil
		case "excel", "xlsx", "xlsm":
			return "excel", nil
		default:
			return "", fmt.Errorf("unsupported input format: %s", format)
		}
	}

	extension := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch extension {
	case "tsv":
		return "tsv", nil
	case "xlsx", "xlsm":
		return "excel", nil
	default:
		return "csv", nil
	}
}
