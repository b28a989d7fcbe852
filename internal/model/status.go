package model

import (
	"strings"

	"contentcal/internal/textnorm"
)

// Status is the workflow state of an event. Stored values are free text, so
// a Status may hold something outside the canonical set; Known reports that.
type Status string

const (
	StatusPlanning  Status = "Planning"
	StatusDesign    Status = "Design"
	StatusScheduled Status = "Scheduled"
	StatusPublished Status = "Published"
)

// Statuses is the canonical workflow order.
var Statuses = []Status{StatusPlanning, StatusDesign, StatusScheduled, StatusPublished}

// legacyStatuses maps normalized labels from older Spanish-language sheets.
var legacyStatuses = map[string]Status{
	"planeacion": StatusPlanning,
	"diseno":     StatusDesign,
	"programado": StatusScheduled,
	"publicado":  StatusPublished,
}

// ParseStatus maps free text onto the canonical set, ignoring case, accents
// and surrounding whitespace. Unrecognized text is returned unchanged (but
// trimmed) so that loading never loses data.
func ParseStatus(s string) Status {
	n := textnorm.Normalize(s)
	for _, st := range Statuses {
		if n == textnorm.Normalize(string(st)) {
			return st
		}
	}
	if st, ok := legacyStatuses[n]; ok {
		return st
	}
	return Status(strings.TrimSpace(s))
}

// Known reports whether s is one of the canonical statuses.
func (s Status) Known() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// IsPublished reports whether the status means the item is already out.
// Everything else counts as planned.
func (s Status) IsPublished() bool {
	n := textnorm.Normalize(string(s))
	return n == "published" || n == "publicado"
}
