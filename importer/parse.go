package importer

import (
	"strconv"
	"strings"
	"time"

	"timetrack/internal/timeutil"
)

var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"01/02/2006",
}

// Offset-carrying layouts first; they resolve to an absolute instant.
var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

// Local date-time layouts, read as wall clock in time.Local.
var localDateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDate returns the calendar date at local midnight for the first layout
// that matches value.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// ParseInstant accepts ISO instants and offset date-times, then local
// date-times, and finally plain dates anchored at local midnight.
func ParseInstant(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range instantLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	for _, layout := range localDateTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return parsed, true
		}
	}
	if date, ok := ParseDate(value); ok {
		return timeutil.LocalMidnight(date), true
	}
	return time.Time{}, false
}

// ParseMinutes parses a base-10 integer. Anything else, including decimals
// and values outside the int range, is reported as absent.
func ParseMinutes(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	minutes, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return minutes, true
}
