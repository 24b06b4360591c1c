// Package timeutil provides calendar helpers for period boundaries and
// day arithmetic. Wall-clock local time is the currency here: activity
// start times arrive as the athlete's local stamp and stay that way.
package timeutil

import (
	"time"
)

// DateLayout is the canonical date format used in keys and logs.
const DateLayout = "2006-01-02"

// LocalStampLayout is the layout of provider "local time" stamps. The
// trailing Z is a quirk of the feed: the value is wall-clock local
// time, not UTC.
const LocalStampLayout = "2006-01-02T15:04:05Z"

// StartOfDay returns midnight of t's day, in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of t's day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// StartOfMonth returns midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// StartOfNextMonth returns midnight of the first day of the month after t.
func StartOfNextMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0)
}

// StartOfYear returns midnight of January 1st of t's year.
func StartOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
}

// LastDayOfPreviousMonth returns midnight of the day before t's month
// started. Feeding it to a month-period constructor yields the month
// being closed during a promotion run.
func LastDayOfPreviousMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 0, -1)
}

// IsSameDay reports whether two times fall on the same calendar day,
// each evaluated in its own location.
func IsSameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// IsConsecutiveDay reports whether t2 falls on the calendar day
// immediately after t1.
func IsConsecutiveDay(t1, t2 time.Time) bool {
	return IsSameDay(StartOfDay(t1).AddDate(0, 0, 1), t2)
}

// DaysBetween returns the number of whole calendar days from t1 to t2.
// Negative when t2 precedes t1.
func DaysBetween(t1, t2 time.Time) int {
	d1 := StartOfDay(t1)
	d2 := StartOfDay(t2)
	return int(d2.Sub(d1).Hours() / 24)
}

// FormatDateStr formats a time as a canonical date string.
func FormatDateStr(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a canonical date string in the given location.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, loc)
}

// ParseLocalStamp parses a provider local-time stamp as wall-clock time
// in the given location, ignoring the stamp's bogus Z suffix.
func ParseLocalStamp(value string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(LocalStampLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
}
