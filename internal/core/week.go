package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Week identifiers use a custom Monday-anchored numbering, not ISO-8601.
// A week belongs to the calendar year of its Monday; week 1 starts on the
// first Monday of that year. Weeks straddling a year boundary are assigned
// entirely to the Monday's year, so no day is ever counted twice.

// MondayOf returns the Monday of t's week at midnight UTC.
func MondayOf(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	// time.Weekday has Sunday == 0; shift back to the preceding Monday.
	back := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -back)
}

// firstMonday returns the first Monday of the given year. If January 1st
// falls on a Monday, that is the first Monday.
func firstMonday(year int) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	forward := (8 - int(jan1.Weekday())) % 7
	return jan1.AddDate(0, 0, forward)
}

// WeeksInYear returns the number of Mondays in the given year (52 or 53).
func WeeksInYear(year int) int {
	first := firstMonday(year)
	last := MondayOf(time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC))
	return int(last.Sub(first).Hours()/(24*7)) + 1
}

// WeekIDFor maps a date to its week identifier, e.g. "2024-W10".
func WeekIDFor(t time.Time) string {
	monday := MondayOf(t)
	year := monday.Year()
	n := int(monday.Sub(firstMonday(year)).Hours()/(24*7)) + 1
	return FormatWeekID(year, n)
}

// FormatWeekID renders a year/week pair as "YYYY-Www".
func FormatWeekID(year, week int) string {
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// ParseWeekID splits a week identifier into year and week number. Both
// zero-padded ("2024-W05") and bare ("2024-W5") week numbers are accepted.
func ParseWeekID(id string) (year, week int, err error) {
	yearPart, weekPart, ok := strings.Cut(id, "-W")
	if !ok {
		return 0, 0, fmt.Errorf("malformed week id %q", id)
	}
	year, err = strconv.Atoi(yearPart)
	if err != nil || year < 1 {
		return 0, 0, fmt.Errorf("malformed week id %q: bad year", id)
	}
	week, err = strconv.Atoi(weekPart)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed week id %q: bad week number", id)
	}
	if week < 1 || week > WeeksInYear(year) {
		return 0, 0, fmt.Errorf("week id %q: week %d out of range for %d", id, week, year)
	}
	return year, week, nil
}

// MondayFor is the inverse of WeekIDFor: it returns the Monday the given
// week identifier starts on. WeekIDFor(MondayFor(w)) == w for all
// well-formed w.
func MondayFor(id string) (time.Time, error) {
	year, week, err := ParseWeekID(id)
	if err != nil {
		return time.Time{}, err
	}
	return firstMonday(year).AddDate(0, 0, (week-1)*7), nil
}

// WeekRange returns the Monday and Sunday the week identifier spans.
func WeekRange(id string) (monday, sunday time.Time, err error) {
	monday, err = MondayFor(id)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return monday, monday.AddDate(0, 0, 6), nil
}

// MonthOfWeek returns the calendar month a week is attributed to for
// monthly roll-ups: the month containing its Monday, even when the week
// spans two months.
func MonthOfWeek(id string) (year int, month time.Month, err error) {
	monday, err := MondayFor(id)
	if err != nil {
		return 0, 0, err
	}
	return monday.Year(), monday.Month(), nil
}
