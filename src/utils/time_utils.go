package utils

import (
	"time"
)

// ResetTime resets the time component based on the granularity specified.
// Pass "minute" to reset seconds to zero.
// Pass "hour" to reset minutes and seconds to zero.
// Pass "day" to reset to UTC midnight.
func ResetTime(t time.Time, granularity string) time.Time {
	switch granularity {
	case "minute":
		return t.Truncate(time.Minute)
	case "hour":
		return t.Truncate(time.Hour)
	case "day":
		return DayStart(t)
	default:
		return t
	}
}

// DayStart returns midnight UTC of the day t falls on (in UTC).
func DayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole calendar days from start to end (negative if end is earlier).
func DaysBetween(start, end time.Time) int {
	return int(DayStart(end).Sub(DayStart(start)).Hours() / 24)
}
