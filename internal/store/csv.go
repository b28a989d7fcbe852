package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"contentcal/internal/config"
	appLog "contentcal/internal/log"
	"contentcal/internal/model"
	"contentcal/internal/textnorm"
)

const (
	EventsFile = "events.csv"
	QuotasFile = "quotas.csv"
)

var (
	eventHeader = []string{"id", "date", "title", "occasion", "platform", "status", "notes"}
	quotaHeader = []string{"platform", "required"}
)

// headerAliases maps normalized header names, including the Spanish ones
// used by older sheets, onto canonical column names.
var headerAliases = map[string]string{
	"id":         "id",
	"date":       "date",
	"fecha":      "date",
	"title":      "title",
	"titulo":     "title",
	"occasion":   "occasion",
	"festividad": "occasion",
	"platform":   "platform",
	"plataforma": "platform",
	"red":        "platform",
	"status":     "status",
	"estado":     "status",
	"notes":      "notes",
	"notas":      "notes",
	"required":   "required",
	"requerido":  "required",
}

// dateLayouts are tried in order when reading a date cell.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	time.RFC3339,
}

// CSVStore keeps each table in a CSV file under a data directory.
// Missing files are created on first load.
type CSVStore struct {
	dir      string
	defaults model.QuotaSet

	mu sync.Mutex
}

// NewCSVStore returns a store rooted at dir. defaults seeds the quota table.
func NewCSVStore(dir string, defaults model.QuotaSet) *CSVStore {
	if len(defaults) == 0 {
		defaults = model.DefaultQuotas()
	}
	return &CSVStore{dir: dir, defaults: defaults.Clone()}
}

func (s *CSVStore) eventsPath() string { return filepath.Join(s.dir, EventsFile) }
func (s *CSVStore) quotasPath() string { return filepath.Join(s.dir, QuotasFile) }

// LoadEvents reads the events table. Rows without an ID get a fresh one,
// which is written back so that IDs stay stable across loads.
func (s *CSVStore) LoadEvents(ctx context.Context) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readCSV(s.eventsPath())
	if errors.Is(err, fs.ErrNotExist) {
		appLog.Info("creating events table", "path", s.eventsPath())
		return []model.Event{}, s.writeEvents(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("store: read events: %w", err)
	}
	if len(records) == 0 {
		return []model.Event{}, nil
	}

	cols := columnIndex(records[0])
	events := make([]model.Event, 0, len(records)-1)
	assigned := 0
	for _, rec := range records[1:] {
		if blankRecord(rec) {
			continue
		}
		ev := model.Event{
			ID:       cell(rec, cols, "id"),
			Date:     parseDate(cell(rec, cols, "date")),
			Title:    cell(rec, cols, "title"),
			Occasion: cell(rec, cols, "occasion"),
			Platform: cell(rec, cols, "platform"),
			Status:   model.ParseStatus(cell(rec, cols, "status")),
			Notes:    cell(rec, cols, "notes"),
		}
		if ev.ID == "" {
			ev.ID = uuid.NewString()
			assigned++
		}
		events = append(events, ev)
	}

	if assigned > 0 {
		appLog.Info("assigned ids to legacy events", "count", assigned)
		if err := s.writeEvents(events); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// SaveEvents rewrites the events table.
func (s *CSVStore) SaveEvents(ctx context.Context, events []model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeEvents(events)
}

func (s *CSVStore) writeEvents(events []model.Event) error {
	rows := make([][]string, 0, len(events)+1)
	rows = append(rows, eventHeader)
	for _, ev := range events {
		date := ""
		if ev.HasDate() {
			date = ev.Date.Format("2006-01-02")
		}
		rows = append(rows, []string{
			ev.ID, date, ev.Title, ev.Occasion, ev.Platform, string(ev.Status), ev.Notes,
		})
	}
	if err := writeCSV(s.eventsPath(), rows); err != nil {
		return fmt.Errorf("store: write events: %w", err)
	}
	return nil
}

// LoadQuotas reads the quota table. A missing or empty table is seeded with
// the defaults. Non-numeric quota cells read as 0.
func (s *CSVStore) LoadQuotas(ctx context.Context) (model.QuotaSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := readCSV(s.quotasPath())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("store: read quotas: %w", err)
	}

	quotas := model.QuotaSet{}
	if len(records) > 0 {
		cols := columnIndex(records[0])
		for _, rec := range records[1:] {
			platform := cell(rec, cols, "platform")
			if platform == "" {
				continue
			}
			quotas[platform] = parseQuota(cell(rec, cols, "required"))
		}
	}

	if len(quotas) == 0 {
		appLog.Info("seeding default quotas", "path", s.quotasPath())
		quotas = s.defaults.Clone()
		if err := s.writeQuotas(quotas); err != nil {
			return nil, err
		}
	}
	return quotas, nil
}

// SaveQuotas rewrites the quota table, sorted by platform.
func (s *CSVStore) SaveQuotas(ctx context.Context, quotas model.QuotaSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeQuotas(quotas)
}

func (s *CSVStore) writeQuotas(quotas model.QuotaSet) error {
	rows := [][]string{quotaHeader}
	for _, p := range quotas.Platforms() {
		rows = append(rows, []string{p, strconv.Itoa(quotas[p])})
	}
	if err := writeCSV(s.quotasPath(), rows); err != nil {
		return fmt.Errorf("store: write quotas: %w", err)
	}
	return nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var out [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func writeCSV(path string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return config.WriteFileAtomic(path, buf.Bytes(), 0o600)
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		// Excel exports may prefix the first header with a BOM.
		h = strings.TrimPrefix(h, "\ufeff")
		if name, ok := headerAliases[textnorm.Normalize(h)]; ok {
			if _, seen := cols[name]; !seen {
				cols[name] = i
			}
		}
	}
	return cols
}

func cell(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseDate returns the civil date in s, or the zero time.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
	}
	return time.Time{}
}

// parseQuota accepts only plain digit strings; anything else is 0.
func parseQuota(s string) int {
	if s == "" {
		return 0
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
