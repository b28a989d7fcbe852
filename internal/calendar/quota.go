package calendar

import (
	"contentcal/internal/model"
	"contentcal/internal/textnorm"
)

// PlatformStatus is the planned-vs-required rollup for one platform over a
// week or a year.
type PlatformStatus struct {
	Platform string   `json:"platform"`
	Planned  int      `json:"planned"`
	Required int      `json:"required"`
	Severity Severity `json:"severity"`
	Color    string   `json:"color,omitempty"`
}

func newPlatformStatus(platform string, planned, required int) PlatformStatus {
	sev := Classify(planned, required)
	return PlatformStatus{
		Platform: platform,
		Planned:  planned,
		Required: required,
		Severity: sev,
		Color:    sev.Color(),
	}
}

// Aggregate counts the events planned for platform during week and pairs
// the count with the platform's quota.
//
// An event is counted when it has a valid date on one of the week's
// in-month days, its normalized platform contains the normalized platform
// key (so "Instagram Reels" counts under "Instagram"), and it is not
// published. required is the quota as given.
func Aggregate(events []model.Event, week Week, platform string, quota int) (planned, required int) {
	key := textnorm.Normalize(platform)
	if key == "" {
		return 0, quota
	}
	for _, ev := range events {
		if !ev.HasDate() || !week.Contains(ev.Date) {
			continue
		}
		if ev.Status.IsPublished() {
			continue
		}
		if textnorm.Contains(ev.Platform, key) {
			planned++
		}
	}
	return planned, quota
}

// WeekStatuses returns one status per configured platform, in platform-name
// order. Weeks made only of filler slots get no statuses. Platforms that
// appear on events but have no quota are never reported.
func WeekStatuses(events []model.Event, week Week, quotas model.QuotaSet) []PlatformStatus {
	if len(week.ValidDays()) == 0 {
		return nil
	}
	out := make([]PlatformStatus, 0, len(quotas))
	for _, p := range quotas.Platforms() {
		planned, required := Aggregate(events, week, p, quotas[p])
		out = append(out, newPlatformStatus(p, planned, required))
	}
	return out
}

// AnnualRequired is the yearly target for a weekly quota.
func AnnualRequired(quota, year int) int {
	return quota * ISOWeekCount(year)
}

// AnnualStatuses compares, per configured platform, every dated event of
// year on that platform (published or not) against the yearly target.
func AnnualStatuses(events []model.Event, year int, quotas model.QuotaSet) []PlatformStatus {
	out := make([]PlatformStatus, 0, len(quotas))
	for _, p := range quotas.Platforms() {
		planned := 0
		for _, ev := range events {
			if ev.HasDate() && ev.Date.Year() == year && textnorm.Contains(ev.Platform, p) {
				planned++
			}
		}
		out = append(out, newPlatformStatus(p, planned, AnnualRequired(quotas[p], year)))
	}
	return out
}
