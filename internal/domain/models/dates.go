package models

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the ISO calendar date layout used on the wire and in storage.
	DateLayout = "2006-01-02"
	// DisplayDateLayout is the day-first layout used in reports.
	DisplayDateLayout = "02-01-2006"
)

// DateOf returns the calendar date of t (in t's location) as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO calendar date. A full RFC 3339 timestamp is also
// accepted and reduced to its calendar date.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if len(value) > len(DateLayout) {
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
		}
		return DateOf(t), nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return t, nil
}

// MonthRange returns the first and last calendar day of the given month.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}
