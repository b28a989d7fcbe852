package ics

import (
	"context"
	"errors"
	"slices"
	"time"

	"contentcal/internal/calendar"
)

// Occasions folds occurrences into per-day observance names for days in
// [from, to). An all-day occurrence covers each day up to its exclusive
// end; a timed one lands on its start day. Names are deduplicated per day.
func Occasions(occs []Occurrence, from, to time.Time) calendar.Occasions {
	lo, hi := from.Format(calendar.DateLayout), to.Format(calendar.DateLayout)
	out := make(calendar.Occasions)

	add := func(d time.Time, name string) {
		key := d.Format(calendar.DateLayout)
		if key < lo || key >= hi {
			return
		}
		if !slices.Contains(out[key], name) {
			out[key] = append(out[key], name)
		}
	}

	for _, occ := range occs {
		if occ.Summary == "" {
			continue
		}
		if !occ.AllDay {
			add(occ.Start, occ.Summary)
			continue
		}
		for d := occ.Start; d.Before(occ.End); d = d.AddDate(0, 0, 1) {
			add(d, occ.Summary)
		}
	}
	return out
}

// LoadOccasions fetches every source and returns the occasions of year,
// dated in loc. Feeds that fail are skipped; their errors are joined into
// the returned error alongside whatever the other feeds produced.
func LoadOccasions(ctx context.Context, f *Fetcher, sources []Source, year int, loc *time.Location) (calendar.Occasions, error) {
	if loc == nil {
		loc = time.UTC
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	to := from.AddDate(1, 0, 0)

	results, errs := f.FetchAll(ctx, sources)

	var events []FeedEvent
	for _, res := range results {
		parsed, err := ParseICS(res.Source, res.Body)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		events = append(events, parsed...)
	}

	expanded, err := ExpandOccurrences(events, ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      from,
		RangeEnd:        to,
	})
	if err != nil {
		return nil, err
	}
	return Occasions(expanded.Occurrences, from, to), errors.Join(errs...)
}
