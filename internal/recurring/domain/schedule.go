package domain

import "time"

const (
	MinDayOfMonth = 1
	MaxDayOfMonth = 28
)

// NextGenerationDate returns the first date strictly after the calendar day
// of now that falls on day. Days are capped at 28 so every month has one.
func NextGenerationDate(day int, now time.Time) (time.Time, error) {
	if day < MinDayOfMonth || day > MaxDayOfMonth {
		return time.Time{}, ErrInvalidDayOfMonth
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	candidate := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	if !candidate.After(today) {
		candidate = time.Date(y, m+1, day, 0, 0, 0, 0, time.UTC)
	}
	return candidate, nil
}

// Advance re-derives the next date from now and keeps it strictly after
// prev, so a schedule never repeats or moves backwards.
func Advance(prev time.Time, day int, now time.Time) (time.Time, error) {
	next, err := NextGenerationDate(day, now)
	if err != nil {
		return time.Time{}, err
	}
	py, pm, pd := prev.Date()
	prev = time.Date(py, pm, pd, 0, 0, 0, 0, time.UTC)
	for !next.After(prev) {
		y, m, _ := next.Date()
		next = time.Date(y, m+1, day, 0, 0, 0, 0, time.UTC)
	}
	return next, nil
}
