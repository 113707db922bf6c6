package output

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"timetrack/worklog"
)

// DailySummary totals one work date.
type DailySummary struct {
	Date         string
	TotalMinutes int
	Hours        float64
	EntryCount   int
	SubjectCount int
}

var dailySummaryHeaders = []string{"Date", "TotalMinutes", "Hours", "EntryCount", "SubjectCount"}

// BuildDailySummaries groups entries by work date, oldest date first.
func BuildDailySummaries(entries []worklog.Entry) []DailySummary {
	if len(entries) == 0 {
		return []DailySummary{}
	}

	byDay := make(map[string][]worklog.Entry)
	for _, entry := range entries {
		day := entry.DateKey()
		byDay[day] = append(byDay[day], entry)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	summaries := make([]DailySummary, 0, len(days))
	for _, day := range days {
		summaries = append(summaries, summarizeDay(day, byDay[day]))
	}

	return summaries
}

func summarizeDay(day string, entries []worklog.Entry) DailySummary {
	minutes := 0
	subjects := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		minutes += entry.MinutesWorked
		subjects[entry.Subject] = struct{}{}
	}

	return DailySummary{
		Date:         day,
		TotalMinutes: minutes,
		Hours:        roundHours(float64(minutes) / 60.0),
		EntryCount:   len(entries),
		SubjectCount: len(subjects),
	}
}

func roundHours(value float64) float64 {
	return math.Round(value*100) / 100
}

func WriteDailySummaries(path, format string, summaries []DailySummary) error {
	rows := make([][]string, 0, len(summaries))
	for _, summary := range summaries {
		rows = append(rows, []string{
			summary.Date,
			strconv.Itoa(summary.TotalMinutes),
			fmt.Sprintf("%.2f", summary.Hours),
			strconv.Itoa(summary.EntryCount),
			strconv.Itoa(summary.SubjectCount),
		})
	}

	switch normalizeFormat(format) {
	case "csv":
		return writeCSVTable(path, dailySummaryHeaders, rows)
	case "excel", "xlsx":
		return writeExcelTable(path, dailySummaryHeaders, rows)
	default:
		return fmt.Errorf("unsupported output format for daily summaries: %s", format)
	}
}
