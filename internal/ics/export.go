package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"contentcal/internal/model"
)

// ExportOptions describes the calendar written by Export.
type ExportOptions struct {
	// Name becomes X-WR-CALNAME.
	Name string
	// Now stamps every VEVENT (DTSTAMP). Zero means time.Now.
	Now time.Time
}

// Export writes events as an all-day iCalendar feed. Undated events are
// skipped. Published items are CONFIRMED, everything else TENTATIVE; the
// platform is carried in CATEGORIES.
func Export(w io.Writer, events []model.Event, opts ExportOptions) error {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Name == "" {
		opts.Name = "Content calendar"
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//contentcal//content calendar//EN")
	cal.SetXWRCalName(opts.Name)

	for _, ev := range events {
		if !ev.HasDate() {
			continue
		}
		ve := cal.AddEvent(ev.ID + "@contentcal")
		ve.SetDtStampTime(opts.Now.UTC())
		ve.SetAllDayStartAt(ev.Day())
		ve.SetAllDayEndAt(ev.Day().AddDate(0, 0, 1))
		ve.SetSummary(exportSummary(ev))
		if desc := exportDescription(ev); desc != "" {
			ve.SetDescription(desc)
		}
		if ev.Platform != "" {
			ve.AddProperty(ical.ComponentPropertyCategories, ev.Platform)
		}
		if ev.Status.IsPublished() {
			ve.SetStatus(ical.ObjectStatusConfirmed)
		} else {
			ve.SetStatus(ical.ObjectStatusTentative)
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("ics: export: %w", err)
	}
	return nil
}

func exportSummary(ev model.Event) string {
	if ev.Platform == "" {
		return ev.Title
	}
	return fmt.Sprintf("[%s] %s", ev.Platform, ev.Title)
}

func exportDescription(ev model.Event) string {
	var lines []string
	if ev.Status != "" {
		lines = append(lines, "Status: "+string(ev.Status))
	}
	if ev.Occasion != "" {
		lines = append(lines, "Occasion: "+ev.Occasion)
	}
	if ev.Notes != "" {
		lines = append(lines, ev.Notes)
	}
	return strings.Join(lines, "\n")
}
