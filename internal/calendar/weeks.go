package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Policy selects how the days of a month are grouped into weeks.
type Policy string

const (
	// PolicyFixed starts week 1 on the 1st and cuts the month into 7-day
	// runs; the last run may be shorter. No filler slots.
	PolicyFixed Policy = "fixed"
	// PolicyCalendar lays the month out on a standard grid aligned to a
	// week start day. Slots outside the month are filler (0).
	PolicyCalendar Policy = "calendar"
)

var (
	ErrUnknownPolicy = errors.New("calendar: unknown week policy")
	ErrInvalidMonth  = errors.New("calendar: month out of range")
)

// Policies lists the supported policies.
var Policies = []Policy{PolicyFixed, PolicyCalendar}

// ParsePolicy maps a config or query value onto a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyFixed:
		return PolicyFixed, nil
	case PolicyCalendar:
		return PolicyCalendar, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Week is one bucket of consecutive days of a single month. Days holds day
// numbers in ascending order; 0 marks an empty slot that belongs to the
// previous or next month and never receives events.
type Week struct {
	Number int        `json:"number"`
	Label  string     `json:"label"`
	Year   int        `json:"year"`
	Month  time.Month `json:"month"`
	Days   []int      `json:"days"`
}

// ValidDays returns the in-month day numbers of the week.
func (w Week) ValidDays() []int {
	out := make([]int, 0, len(w.Days))
	for _, d := range w.Days {
		if d > 0 {
			out = append(out, d)
		}
	}
	return out
}

// Contains reports whether t falls on one of the week's in-month days.
func (w Week) Contains(t time.Time) bool {
	y, m, d := t.Date()
	if y != w.Year || m != w.Month {
		return false
	}
	for _, wd := range w.Days {
		if wd == d && wd > 0 {
			return true
		}
	}
	return false
}

// Layout is a week policy plus the first day of the week used by the
// calendar-grid policy. The zero WeekStart is Sunday; use DefaultLayout to
// get the Monday-first grid.
type Layout struct {
	Policy    Policy
	WeekStart time.Weekday
}

// DefaultLayout returns a Monday-first layout for the given policy.
func DefaultLayout(p Policy) Layout {
	return Layout{Policy: p, WeekStart: time.Monday}
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// BucketWeeks groups the days of a month into weeks using a Monday-first
// layout. Labels are "Week 1", "Week 2", ... in order.
func BucketWeeks(year int, month time.Month, policy Policy) ([]Week, error) {
	return DefaultLayout(policy).Weeks(year, month)
}

// Weeks groups the days of a month into weeks according to l.
func (l Layout) Weeks(year int, month time.Month) ([]Week, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	n := DaysIn(year, month)

	var rows [][]int
	switch l.Policy {
	case PolicyFixed:
		rows = fixedRows(n)
	case PolicyCalendar:
		first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday()
		rows = gridRows(n, first, l.WeekStart)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, l.Policy)
	}

	weeks := make([]Week, 0, len(rows))
	for i, days := range rows {
		weeks = append(weeks, Week{
			Number: i + 1,
			Label:  fmt.Sprintf("Week %d", i+1),
			Year:   year,
			Month:  month,
			Days:   days,
		})
	}
	return weeks, nil
}

func fixedRows(n int) [][]int {
	rows := make([][]int, 0, (n+6)/7)
	for start := 1; start <= n; start += 7 {
		end := min(start+6, n)
		days := make([]int, 0, end-start+1)
		for d := start; d <= end; d++ {
			days = append(days, d)
		}
		rows = append(rows, days)
	}
	return rows
}

func gridRows(n int, first, weekStart time.Weekday) [][]int {
	offset := (int(first) - int(weekStart) + 7) % 7

	var rows [][]int
	row := make([]int, offset, 7)
	for d := 1; d <= n; d++ {
		row = append(row, d)
		if len(row) == 7 {
			rows = append(rows, row)
			row = make([]int, 0, 7)
		}
	}
	if len(row) > 0 {
		for len(row) < 7 {
			row = append(row, 0)
		}
		rows = append(rows, row)
	}
	return rows
}

// ISOWeekCount returns the number of ISO-8601 weeks in year (52 or 53).
// December 28 always falls in the last ISO week of its year.
func ISOWeekCount(year int) int {
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}
