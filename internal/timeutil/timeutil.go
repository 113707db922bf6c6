package timeutil

import "time"

// LocalMidnight returns 00:00 of the calendar day of value in the process's
// local time zone.
func LocalMidnight(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.Local)
}
