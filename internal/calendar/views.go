package calendar

import (
	"slices"
	"sort"
	"time"

	"contentcal/internal/model"
)

// DateLayout is the civil-date format used for keys and JSON.
const DateLayout = "2006-01-02"

// Occasions maps a civil date (DateLayout) to observance names shown on
// that day, typically expanded from holiday calendars.
type Occasions map[string][]string

// ViewInput is everything a view needs. Views are pure functions of their
// input: the current page, year and selected date are explicit arguments,
// never ambient state.
type ViewInput struct {
	Events    []model.Event
	Quotas    model.QuotaSet
	Occasions Occasions
	Layout    Layout
	Labels    Labels
}

// DayCell is one slot of a week. Filler slots have Day == 0 and nothing else.
type DayCell struct {
	Day       int           `json:"day"`
	Date      string        `json:"date,omitempty"`
	Weekday   string        `json:"weekday,omitempty"`
	Events    []model.Event `json:"events,omitempty"`
	Occasions []string      `json:"occasions,omitempty"`
}

type WeekView struct {
	Number   int              `json:"number"`
	Label    string           `json:"label"`
	Days     []DayCell        `json:"days"`
	Statuses []PlatformStatus `json:"statuses,omitempty"`
}

type MonthView struct {
	Year       int        `json:"year"`
	Month      int        `json:"month"`
	Name       string     `json:"name"`
	Policy     Policy     `json:"policy"`
	EventCount int        `json:"event_count"`
	Weeks      []WeekView `json:"weeks"`
}

type YearView struct {
	Year   int         `json:"year"`
	Policy Policy      `json:"policy"`
	Months []MonthView `json:"months"`
}

// BuildMonth buckets the month into weeks, places each dated event on its
// day and computes the per-platform week statuses.
func BuildMonth(in ViewInput, year int, month time.Month) (MonthView, error) {
	weeks, err := in.Layout.Weeks(year, month)
	if err != nil {
		return MonthView{}, err
	}
	labels := in.Labels
	if labels.Week == "" {
		labels = englishLabels
	}

	monthEvents := EventsInMonth(in.Events, year, month)
	byDay := make(map[int][]model.Event)
	for _, ev := range monthEvents {
		byDay[ev.Date.Day()] = append(byDay[ev.Date.Day()], ev)
	}

	mv := MonthView{
		Year:       year,
		Month:      int(month),
		Name:       labels.Month(month),
		Policy:     in.Layout.Policy,
		EventCount: len(monthEvents),
		Weeks:      make([]WeekView, 0, len(weeks)),
	}

	for _, w := range weeks {
		wv := WeekView{
			Number:   w.Number,
			Label:    labels.WeekLabel(w.Number),
			Days:     make([]DayCell, 0, len(w.Days)),
			Statuses: WeekStatuses(monthEvents, w, in.Quotas),
		}
		for _, d := range w.Days {
			if d == 0 {
				wv.Days = append(wv.Days, DayCell{})
				continue
			}
			date := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
			key := date.Format(DateLayout)
			wv.Days = append(wv.Days, DayCell{
				Day:       d,
				Date:      key,
				Weekday:   labels.Weekday(date.Weekday()),
				Events:    byDay[d],
				Occasions: in.Occasions[key],
			})
		}
		mv.Weeks = append(mv.Weeks, wv)
	}
	return mv, nil
}

// BuildYear builds all twelve month views of year.
func BuildYear(in ViewInput, year int) (YearView, error) {
	yv := YearView{Year: year, Policy: in.Layout.Policy, Months: make([]MonthView, 0, 12)}
	yearEvents := EventsInYear(in.Events, year)
	sub := in
	sub.Events = yearEvents
	for m := time.January; m <= time.December; m++ {
		mv, err := BuildMonth(sub, year, m)
		if err != nil {
			return YearView{}, err
		}
		yv.Months = append(yv.Months, mv)
	}
	return yv, nil
}

// StatusCount is the number of events of a year in one workflow state.
type StatusCount struct {
	Status model.Status `json:"status"`
	Count  int          `json:"count"`
}

// Dashboard is the annual overview: everything planned in a year against
// the yearly targets derived from the weekly quotas.
type Dashboard struct {
	Year        int              `json:"year"`
	Years       []int            `json:"years"`
	WeeksInYear int              `json:"weeks_in_year"`
	Planned     int              `json:"planned"`
	Target      int              `json:"target"`
	Delta       int              `json:"delta"`
	Statuses    []StatusCount    `json:"statuses"`
	Platforms   []PlatformStatus `json:"platforms"`
}

// BuildDashboard computes the annual overview. When year is 0 the year is
// picked from the data: today's year if any event falls in it, otherwise
// the earliest year with events, otherwise today's year.
func BuildDashboard(events []model.Event, quotas model.QuotaSet, year int, today time.Time) Dashboard {
	years := Years(events)
	if year == 0 {
		year = today.Year()
		if len(years) > 0 && !slices.Contains(years, year) {
			year = years[0]
		}
	}

	yearEvents := EventsInYear(events, year)
	weeks := ISOWeekCount(year)

	target := 0
	for _, q := range quotas {
		target += q * weeks
	}

	counts := make(map[model.Status]int, len(model.Statuses))
	for _, ev := range yearEvents {
		counts[model.ParseStatus(string(ev.Status))]++
	}
	statuses := make([]StatusCount, 0, len(model.Statuses))
	for _, st := range model.Statuses {
		statuses = append(statuses, StatusCount{Status: st, Count: counts[st]})
	}

	return Dashboard{
		Year:        year,
		Years:       years,
		WeeksInYear: weeks,
		Planned:     len(yearEvents),
		Target:      target,
		Delta:       len(yearEvents) - target,
		Statuses:    statuses,
		Platforms:   AnnualStatuses(yearEvents, year, quotas),
	}
}

// Years returns the distinct years that have dated events, ascending.
func Years(events []model.Event) []int {
	seen := make(map[int]struct{})
	for _, ev := range events {
		if ev.HasDate() {
			seen[ev.Date.Year()] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

// EventsInYear keeps the dated events of year, preserving order.
func EventsInYear(events []model.Event, year int) []model.Event {
	var out []model.Event
	for _, ev := range events {
		if ev.HasDate() && ev.Date.Year() == year {
			out = append(out, ev)
		}
	}
	return out
}

// EventsInMonth keeps the dated events of the month, preserving order.
func EventsInMonth(events []model.Event, year int, month time.Month) []model.Event {
	var out []model.Event
	for _, ev := range events {
		if !ev.HasDate() {
			continue
		}
		y, m, _ := ev.Date.Date()
		if y == year && m == month {
			out = append(out, ev)
		}
	}
	return out
}

// DayEvents keeps the events dated on the civil date of day.
func DayEvents(events []model.Event, day time.Time) []model.Event {
	y, m, d := day.Date()
	var out []model.Event
	for _, ev := range events {
		if !ev.HasDate() {
			continue
		}
		ey, em, ed := ev.Date.Date()
		if ey == y && em == m && ed == d {
			out = append(out, ev)
		}
	}
	return out
}
