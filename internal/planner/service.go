// Package planner is the application service of the content calendar: it
// loads the tables through a store, applies edits and builds the views.
//
// Every call reloads what it needs, so views are always consistent with the
// store (subject to the store's cache TTL). There is no global page or
// selected-date state; callers pass year, month and date explicitly.
package planner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"contentcal/internal/calendar"
	"contentcal/internal/config"
	"contentcal/internal/ics"
	appLog "contentcal/internal/log"
	"contentcal/internal/model"
	"contentcal/internal/store"
	"contentcal/internal/textnorm"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
)

// Options configure a Service. Zero values fall back to sensible defaults.
type Options struct {
	// Layout is the month view default; the year view always defaults to
	// the calendar policy with the same week start.
	Layout   calendar.Layout
	Labels   calendar.Labels
	Location *time.Location

	// Platforms are offered as choices in addition to the quota table keys.
	Platforms []string

	// Feeds and Fetcher provide occasions. Both may be empty.
	Feeds   []ics.Source
	Fetcher *ics.Fetcher

	CalendarName string

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Service implements the planner operations on top of a store.Store.
type Service struct {
	store store.Store
	opts  Options

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex

	occMu     sync.RWMutex
	occasions map[int]calendar.Occasions
}

// New returns a Service over st.
func New(st store.Store, opts Options) *Service {
	if opts.Layout.Policy == "" {
		opts.Layout.Policy = calendar.PolicyFixed
	}
	if opts.Labels.Week == "" {
		opts.Labels = calendar.LabelsFor("en")
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CalendarName == "" {
		opts.CalendarName = "Content calendar"
	}
	return &Service{
		store:     st,
		opts:      opts,
		occasions: make(map[int]calendar.Occasions),
	}
}

// NewFromConfig builds a Service from the application config.
func NewFromConfig(cfg *config.Config, st store.Store) (*Service, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("planner: timezone %q: %w", cfg.Timezone, err)
	}
	policy, err := calendar.ParsePolicy(cfg.WeekPolicy)
	if err != nil {
		return nil, err
	}
	weekStart := time.Monday
	if cfg.WeekStart == "sunday" {
		weekStart = time.Sunday
	}

	opts := Options{
		Layout:    calendar.Layout{Policy: policy, WeekStart: weekStart},
		Labels:    calendar.LabelsFor(cfg.Language),
		Location:  loc,
		Platforms: cfg.Platforms,
		Feeds:     ics.SourcesFromConfig(cfg.OccasionFeeds),
	}
	if len(opts.Feeds) > 0 {
		opts.Fetcher = ics.NewFetcher(filepath.Join(cfg.Store.DataDir, "ics-cache"), nil)
	}
	return New(st, opts), nil
}

// Today is the current civil date in the configured location.
func (s *Service) Today() time.Time {
	y, m, d := s.opts.Now().In(s.opts.Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Filter narrows ListEvents. Zero fields match everything; a non-zero Year
// or Month excludes undated events.
type Filter struct {
	Year     int
	Month    time.Month
	Platform string
}

// ListEvents returns matching events ordered by date, undated last.
func (s *Service) ListEvents(ctx context.Context, f Filter) ([]model.Event, error) {
	events, err := s.store.LoadEvents(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if f.Year != 0 && (!ev.HasDate() || ev.Date.Year() != f.Year) {
			continue
		}
		if f.Month != 0 && (!ev.HasDate() || ev.Date.Month() != f.Month) {
			continue
		}
		if f.Platform != "" && !textnorm.Contains(ev.Platform, f.Platform) {
			continue
		}
		out = append(out, ev)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.HasDate() != b.HasDate() {
			return a.HasDate()
		}
		return a.Date.Before(b.Date)
	})
	return out, nil
}

func (s *Service) GetEvent(ctx context.Context, id string) (model.Event, error) {
	events, err := s.store.LoadEvents(ctx)
	if err != nil {
		return model.Event{}, err
	}
	i := indexOf(events, id)
	if i < 0 {
		return model.Event{}, fmt.Errorf("event %q: %w", id, ErrNotFound)
	}
	return events[i], nil
}

// AddEvent validates ev, assigns it a new ID and appends it.
func (s *Service) AddEvent(ctx context.Context, ev model.Event) (model.Event, error) {
	ev, err := prepare(ev)
	if err != nil {
		return model.Event{}, err
	}
	ev.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.store.LoadEvents(ctx)
	if err != nil {
		return model.Event{}, err
	}
	events = append(events, ev)
	if err := s.store.SaveEvents(ctx, events); err != nil {
		return model.Event{}, err
	}
	appLog.Info("event added", "id", ev.ID, "date", ev.Date.Format(calendar.DateLayout), "platform", ev.Platform)
	return ev, nil
}

// UpdateEvent replaces every field of the event with the given ID.
func (s *Service) UpdateEvent(ctx context.Context, id string, ev model.Event) (model.Event, error) {
	ev, err := prepare(ev)
	if err != nil {
		return model.Event{}, err
	}
	ev.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.store.LoadEvents(ctx)
	if err != nil {
		return model.Event{}, err
	}
	i := indexOf(events, id)
	if i < 0 {
		return model.Event{}, fmt.Errorf("event %q: %w", id, ErrNotFound)
	}
	events[i] = ev
	if err := s.store.SaveEvents(ctx, events); err != nil {
		return model.Event{}, err
	}
	appLog.Info("event updated", "id", id)
	return ev, nil
}

func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.store.LoadEvents(ctx)
	if err != nil {
		return err
	}
	i := indexOf(events, id)
	if i < 0 {
		return fmt.Errorf("event %q: %w", id, ErrNotFound)
	}
	events = slices.Delete(events, i, i+1)
	if err := s.store.SaveEvents(ctx, events); err != nil {
		return err
	}
	appLog.Info("event deleted", "id", id)
	return nil
}

func (s *Service) Quotas(ctx context.Context) (model.QuotaSet, error) {
	return s.store.LoadQuotas(ctx)
}

// SetQuotas replaces the whole quota table.
func (s *Service) SetQuotas(ctx context.Context, quotas model.QuotaSet) error {
	clean := make(model.QuotaSet, len(quotas))
	for p, n := range quotas {
		clean[strings.TrimSpace(p)] = n
	}
	if err := clean.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SaveQuotas(ctx, clean); err != nil {
		return err
	}
	appLog.Info("quotas replaced", "platforms", len(clean))
	return nil
}

// SetQuota adds a platform or changes its weekly quota.
func (s *Service) SetQuota(ctx context.Context, platform string, required int) (model.QuotaSet, error) {
	platform = strings.TrimSpace(platform)
	if err := (model.QuotaSet{platform: required}).Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	quotas, err := s.store.LoadQuotas(ctx)
	if err != nil {
		return nil, err
	}
	quotas = quotas.Clone()
	quotas[platform] = required
	if err := s.store.SaveQuotas(ctx, quotas); err != nil {
		return nil, err
	}
	appLog.Info("quota set", "platform", platform, "required", required)
	return quotas, nil
}

// Month builds the month view. An empty policy uses the configured one.
func (s *Service) Month(ctx context.Context, year int, month time.Month, policy string) (calendar.MonthView, error) {
	layout, err := s.layout(policy, s.opts.Layout.Policy)
	if err != nil {
		return calendar.MonthView{}, err
	}
	if month < time.January || month > time.December {
		return calendar.MonthView{}, fmt.Errorf("%w: %w", ErrInvalid, calendar.ErrInvalidMonth)
	}
	in, err := s.viewInput(ctx, year, layout)
	if err != nil {
		return calendar.MonthView{}, err
	}
	return calendar.BuildMonth(in, year, month)
}

// Year builds the twelve month views. An empty policy means calendar.
func (s *Service) Year(ctx context.Context, year int, policy string) (calendar.YearView, error) {
	layout, err := s.layout(policy, calendar.PolicyCalendar)
	if err != nil {
		return calendar.YearView{}, err
	}
	in, err := s.viewInput(ctx, year, layout)
	if err != nil {
		return calendar.YearView{}, err
	}
	return calendar.BuildYear(in, year)
}

// Dashboard summarizes a year. Zero selects the current year when it has
// data, else the earliest year with data.
func (s *Service) Dashboard(ctx context.Context, year int) (calendar.Dashboard, error) {
	events, err := s.store.LoadEvents(ctx)
	if err != nil {
		return calendar.Dashboard{}, err
	}
	quotas, err := s.store.LoadQuotas(ctx)
	if err != nil {
		return calendar.Dashboard{}, err
	}
	return calendar.BuildDashboard(events, quotas, year, s.Today()), nil
}

// DayView is the detail of one date.
type DayView struct {
	Date      string        `json:"date"`
	Weekday   string        `json:"weekday"`
	Events    []model.Event `json:"events"`
	Occasions []string      `json:"occasions"`
}

func (s *Service) Day(ctx context.Context, day time.Time) (DayView, error) {
	events, err := s.store.LoadEvents(ctx)
	if err != nil {
		return DayView{}, err
	}
	key := day.Format(calendar.DateLayout)
	occ := s.Occasions(ctx, day.Year())

	dv := DayView{
		Date:      key,
		Weekday:   s.opts.Labels.Weekday(day.Weekday()),
		Events:    calendar.DayEvents(events, day),
		Occasions: occ[key],
	}
	if dv.Events == nil {
		dv.Events = []model.Event{}
	}
	if dv.Occasions == nil {
		dv.Occasions = []string{}
	}
	return dv, nil
}

// Occasions returns the observances of year from the configured feeds.
// Results are kept until Refresh. Feed failures are logged, never returned.
func (s *Service) Occasions(ctx context.Context, year int) calendar.Occasions {
	if len(s.opts.Feeds) == 0 || s.opts.Fetcher == nil {
		return calendar.Occasions{}
	}

	s.occMu.RLock()
	occ, ok := s.occasions[year]
	s.occMu.RUnlock()
	if ok {
		return occ
	}

	occ, err := ics.LoadOccasions(ctx, s.opts.Fetcher, s.opts.Feeds, year, s.opts.Location)
	if err != nil {
		appLog.Error("occasion feeds incomplete", err, "year", year)
	}
	if occ == nil {
		return calendar.Occasions{}
	}

	s.occMu.Lock()
	s.occasions[year] = occ
	s.occMu.Unlock()
	return occ
}

// ExportICS writes the events of year as iCalendar. Zero exports all.
func (s *Service) ExportICS(ctx context.Context, w io.Writer, year int) error {
	events, err := s.store.LoadEvents(ctx)
	if err != nil {
		return err
	}
	if year != 0 {
		events = calendar.EventsInYear(events, year)
	}
	return ics.Export(w, events, ics.ExportOptions{
		Name: s.opts.CalendarName,
		Now:  s.opts.Now(),
	})
}

// Refresh drops cached tables and occasions, then refetches the occasions
// of the current year.
func (s *Service) Refresh(ctx context.Context) error {
	var err error
	if inv, ok := s.store.(store.Invalidator); ok {
		err = inv.Invalidate(ctx)
	}

	s.occMu.Lock()
	s.occasions = make(map[int]calendar.Occasions)
	s.occMu.Unlock()

	year := s.Today().Year()
	occ := s.Occasions(ctx, year)
	appLog.Info("refresh completed", "year", year, "occasion_days", len(occ))
	return err
}

// Choices lists what a client offers when editing.
type Choices struct {
	Platforms []string          `json:"platforms"`
	Statuses  []model.Status    `json:"statuses"`
	Policies  []calendar.Policy `json:"policies"`
	Years     []int             `json:"years"`
}

func (s *Service) Choices(ctx context.Context) (Choices, error) {
	events, err := s.store.LoadEvents(ctx)
	if err != nil {
		return Choices{}, err
	}
	quotas, err := s.store.LoadQuotas(ctx)
	if err != nil {
		return Choices{}, err
	}

	platforms := append([]string(nil), s.opts.Platforms...)
	for _, p := range quotas.Platforms() {
		if !slices.Contains(platforms, p) {
			platforms = append(platforms, p)
		}
	}

	years := calendar.Years(events)
	if years == nil {
		years = []int{}
	}
	return Choices{
		Platforms: platforms,
		Statuses:  slices.Clone(model.Statuses),
		Policies:  slices.Clone(calendar.Policies),
		Years:     years,
	}, nil
}

func (s *Service) layout(policy string, fallback calendar.Policy) (calendar.Layout, error) {
	layout := s.opts.Layout
	layout.Policy = fallback
	if policy == "" {
		return layout, nil
	}
	p, err := calendar.ParsePolicy(policy)
	if err != nil {
		return calendar.Layout{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	layout.Policy = p
	return layout, nil
}

func (s *Service) viewInput(ctx context.Context, year int, layout calendar.Layout) (calendar.ViewInput, error) {
	events, err := s.store.LoadEvents(ctx)
	if err != nil {
		return calendar.ViewInput{}, err
	}
	quotas, err := s.store.LoadQuotas(ctx)
	if err != nil {
		return calendar.ViewInput{}, err
	}
	return calendar.ViewInput{
		Events:    events,
		Quotas:    quotas,
		Occasions: s.Occasions(ctx, year),
		Layout:    layout,
		Labels:    s.opts.Labels,
	}, nil
}

// prepare trims and canonicalizes an event for writing, then validates it.
func prepare(ev model.Event) (model.Event, error) {
	ev.Title = strings.TrimSpace(ev.Title)
	ev.Occasion = strings.TrimSpace(ev.Occasion)
	ev.Platform = strings.TrimSpace(ev.Platform)
	ev.Notes = strings.TrimSpace(ev.Notes)
	if strings.TrimSpace(string(ev.Status)) == "" {
		ev.Status = model.StatusPlanning
	} else {
		ev.Status = model.ParseStatus(string(ev.Status))
	}
	if ev.HasDate() {
		ev.Date = ev.Day()
	}
	if err := ev.Validate(); err != nil {
		return ev, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return ev, nil
}

func indexOf(events []model.Event, id string) int {
	return slices.IndexFunc(events, func(ev model.Event) bool { return ev.ID == id })
}
