package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "contentcal/internal/log"
)

const defaultMaxOccurrencesPerEvent = 5000

// Occurrence is one concrete instance of a feed event.
type Occurrence struct {
	SourceID   string
	SourceName string
	UID        string
	Summary    string
	AllDay     bool

	// Start / End are in the display location. For all-day occurrences
	// they are civil dates (midnight) and End is exclusive.
	Start time.Time
	End   time.Time
}

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// DisplayLocation is where timed occurrences are converted to.
	// nil means UTC.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd bound the occurrences, inclusive.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps a single RRULE. Zero means 5000.
	MaxOccurrencesPerEvent int
}

// ExpandResult is the outcome of ExpandOccurrences.
type ExpandResult struct {
	Occurrences []Occurrence
	// TruncatedEvents lists UIDs that hit the per-event cap.
	TruncatedEvents []string
}

// ExpandOccurrences turns feed events into occurrences inside the range,
// sorted by start then summary. It applies RRULE, EXDATE and
// RECURRENCE-ID overrides.
func ExpandOccurrences(events []FeedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.UTC
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	bases := make(map[string][]FeedEvent)
	overrides := make(map[string][]FeedEvent)
	var uids []string
	for _, ev := range events {
		key := ev.Source.ID + "\x00" + ev.UID
		if ev.IsOverride() {
			overrides[key] = append(overrides[key], ev)
			continue
		}
		if _, seen := bases[key]; !seen {
			uids = append(uids, key)
		}
		bases[key] = append(bases[key], ev)
	}

	for _, key := range uids {
		for _, ev := range bases[key] {
			occ, hitCap := expandEvent(ev, overrides[key], cfg)
			result.Occurrences = append(result.Occurrences, occ...)
			if hitCap {
				result.TruncatedEvents = append(result.TruncatedEvents, ev.UID)
				appLog.Warn("expand: occurrences truncated", "uid", ev.UID, "cap", cfg.MaxOccurrencesPerEvent)
			}
		}
	}

	sort.SliceStable(result.Occurrences, func(i, j int) bool {
		a, b := result.Occurrences[i], result.Occurrences[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.Summary < b.Summary
	})
	return result, nil
}

func expandEvent(ev FeedEvent, overrides []FeedEvent, cfg ExpandConfig) ([]Occurrence, bool) {
	if ev.RawRRule == "" {
		if !overlaps(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
			return nil, false
		}
		if o, ok := findOverride(overrides, ev.Start); ok {
			ev.Summary, ev.Start, ev.End = o.Summary, o.Start, o.End
		}
		return []Occurrence{makeOccurrence(ev, ev.Start, ev.End, cfg.DisplayLocation)}, false
	}

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	loc := ev.Start.Location()
	starts := set.Between(cfg.RangeStart.In(loc), cfg.RangeEnd.In(loc), true)

	hitCap := false
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		starts = starts[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]Occurrence, 0, len(starts))
	for _, start := range starts {
		inst := ev
		inst.Start, inst.End = start, start.Add(dur)
		if o, ok := findOverride(overrides, start); ok {
			inst.Summary, inst.Start, inst.End = o.Summary, o.Start, o.End
		}
		out = append(out, makeOccurrence(inst, inst.Start, inst.End, cfg.DisplayLocation))
	}
	return out, hitCap
}

// findOverride returns the override whose RECURRENCE-ID equals start.
func findOverride(overrides []FeedEvent, start time.Time) (FeedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return FeedEvent{}, false
}

func makeOccurrence(ev FeedEvent, start, end time.Time, loc *time.Location) Occurrence {
	occ := Occurrence{
		SourceID:   ev.Source.ID,
		SourceName: ev.Source.Name,
		UID:        ev.UID,
		Summary:    ev.Summary,
		AllDay:     ev.AllDay,
	}
	if ev.AllDay {
		// Civil dates do not move between timezones.
		occ.Start = civil(start, loc)
		occ.End = civil(end, loc)
	} else {
		occ.Start = start.In(loc)
		occ.End = end.In(loc)
	}
	return occ
}

func civil(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
