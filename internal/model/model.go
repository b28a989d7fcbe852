package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Event is a single scheduled content item (a post, an article, a video).
//
// Date is the zero time when the stored value was missing or could not be
// parsed. Such events are kept so that they can still be edited or deleted,
// but every date-based aggregation skips them.
type Event struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Title    string    `json:"title"`
	Occasion string    `json:"occasion,omitempty"` // holiday / observance tie-in
	Platform string    `json:"platform"`
	Status   Status    `json:"status"`
	Notes    string    `json:"notes,omitempty"`
}

// HasDate reports whether the event carries a usable calendar date.
func (e Event) HasDate() bool {
	return !e.Date.IsZero()
}

// Day returns the event's civil date (year, month, day) with the time of
// day dropped.
func (e Event) Day() time.Time {
	y, m, d := e.Date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Validate checks an event before it is written through the service.
// Loading stays tolerant; only writes are validated.
func (e Event) Validate() error {
	var errs []error
	if !e.HasDate() {
		errs = append(errs, errors.New("date is required"))
	}
	if strings.TrimSpace(e.Title) == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if strings.TrimSpace(e.Platform) == "" {
		errs = append(errs, errors.New("platform is required"))
	}
	if !e.Status.Known() {
		errs = append(errs, fmt.Errorf("unknown status %q", e.Status))
	}
	return errors.Join(errs...)
}

// QuotaSet maps a platform name to the number of posts required per week.
// Keys are matched exactly; no uniqueness beyond the map key is enforced.
type QuotaSet map[string]int

// DefaultQuotas is the quota table seeded on first use.
func DefaultQuotas() QuotaSet {
	return QuotaSet{
		"Instagram": 5,
		"Facebook":  5,
		"TikTok":    3,
		"Blog":      1,
	}
}

// DefaultPlatforms are offered as choices when entering events.
var DefaultPlatforms = []string{"Instagram", "Facebook", "TikTok", "Blog", "Twitter"}

// Platforms returns the configured platform names in ascending order.
func (q QuotaSet) Platforms() []string {
	out := make([]string, 0, len(q))
	for p := range q {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (q QuotaSet) Clone() QuotaSet {
	out := make(QuotaSet, len(q))
	for k, v := range q {
		out[k] = v
	}
	return out
}

// Validate rejects blank platform names and negative quotas.
func (q QuotaSet) Validate() error {
	for p, n := range q {
		if strings.TrimSpace(p) == "" {
			return errors.New("platform name is empty")
		}
		if n < 0 {
			return fmt.Errorf("quota for %q is negative (%d)", p, n)
		}
	}
	return nil
}
