package featured

import "time"

// DayLayout is the calendar-day format used in cache keys and results.
const DayLayout = "2006-01-02"

// Day drops the time of day, keeping the calendar date as seen in loc.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// PreviousDay steps one calendar day back and resets to midnight.
func PreviousDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d-1, 0, 0, 0, 0, day.Location())
}

// FormatDay renders day as YYYY-MM-DD.
func FormatDay(day time.Time) string {
	return day.Format(DayLayout)
}

// ParseDay reads a YYYY-MM-DD string as midnight in loc.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DayLayout, value, loc)
}
