package entities

import (
	"fmt"
	"time"
)

const (
	// TimestampLayout is the naive local format used for appointment start times.
	TimestampLayout = "2006-01-02T15:04:05"
	// DateLayout is the format of week start dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the format of shift and default-slot times.
	ClockLayout = "15:04"
)

// DaysPerWeek is the length of a scheduling week.
const DaysPerWeek = 7

var weekdayNames = [DaysPerWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Timestamps carry no zone; they are stored as UTC wall clock values so that
// comparisons and database round trips never shift them.

// ParseTimestamp parses a naive "YYYY-MM-DDTHH:MM:SS" timestamp.
func ParseTimestamp(value string) (time.Time, error) {
	t, err := time.ParseInLocation(TimestampLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: expected YYYY-MM-DDTHH:MM:SS", value)
	}
	return t, nil
}

// FormatTimestamp renders t in the naive timestamp layout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseWeekStart parses a "YYYY-MM-DD" date that must fall on a Monday.
func ParseWeekStart(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid week_start_date %q: expected YYYY-MM-DD", value)
	}
	if DayOfWeek(t) != 0 {
		return time.Time{}, fmt.Errorf("week_start_date %s is a %s, expected a Monday", value, t.Weekday())
	}
	return t, nil
}

// DayStart returns midnight of t's day.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStartOf returns midnight of the Monday on or before t.
func WeekStartOf(t time.Time) time.Time {
	return DayStart(t).AddDate(0, 0, -DayOfWeek(t))
}

// WeekEnd returns the exclusive end of the week starting at weekStart.
func WeekEnd(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, DaysPerWeek)
}

// DayOfWeek returns the weekday index with Monday as 0.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % DaysPerWeek
}

// DayName returns the English name of a Monday-based weekday index.
func DayName(day int) string {
	if day < 0 || day >= DaysPerWeek {
		return fmt.Sprintf("day %d", day)
	}
	return weekdayNames[day]
}

// ClockMinutes parses "HH:MM" into minutes after midnight.
func ClockMinutes(value string) (int, error) {
	t, err := time.Parse(ClockLayout, value)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", value)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// MinuteOfDay returns the minutes elapsed since midnight at t.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// SlotTimestamp resolves a recurring (day, "HH:MM") pair to a timestamp in the given week.
func SlotTimestamp(weekStart time.Time, day int, start string) (time.Time, error) {
	if day < 0 || day >= DaysPerWeek {
		return time.Time{}, fmt.Errorf("invalid day_of_week %d", day)
	}
	minutes, err := ClockMinutes(start)
	if err != nil {
		return time.Time{}, err
	}
	return weekStart.AddDate(0, 0, day).Add(time.Duration(minutes) * time.Minute), nil
}

// Naive drops the zone of t, keeping its wall clock reading.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
