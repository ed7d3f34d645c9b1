package utils

import (
	"fmt"
	"time"

	"potbuddy-backend/models"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// DateOf truncates t to midnight UTC of its UTC calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses YYYY-MM-DD into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", models.ErrValidation, s)
	}
	return t, nil
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	d := DateOf(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// WeekEnd returns the Sunday of the week starting at weekStart.
func WeekEnd(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, 6)
}

// CompletedWeeks returns the Mondays of the last n weeks whose Sunday lies
// strictly before now's calendar day, oldest first.
func CompletedWeeks(now time.Time, n int) []time.Time {
	today := DateOf(now)
	weeks := make([]time.Time, 0, n)
	for weeksAgo := n; weeksAgo >= 1; weeksAgo-- {
		start := WeekStart(today.AddDate(0, 0, -7*weeksAgo))
		if WeekEnd(start).Before(today) {
			weeks = append(weeks, start)
		}
	}
	return weeks
}

// LaterOf returns the latest of the given times.
func LaterOf(first time.Time, rest ...time.Time) time.Time {
	latest := first
	for _, t := range rest {
		if t.After(latest) {
			latest = t
		}
	}
	return latest
}
