package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	appLog "contentcal/internal/log"
	"contentcal/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	connectAttempts = 10
	connectInterval = 2 * time.Second
)

// PostgresStore keeps the tables in PostgreSQL.
type PostgresStore struct {
	db       *sqlx.DB
	defaults model.QuotaSet
}

type eventRow struct {
	ID       string       `db:"id"`
	Position int          `db:"position"`
	Date     sql.NullTime `db:"date"`
	Title    string       `db:"title"`
	Occasion string       `db:"occasion"`
	Platform string       `db:"platform"`
	Status   string       `db:"status"`
	Notes    string       `db:"notes"`
}

type quotaRow struct {
	Platform string `db:"platform"`
	Required int    `db:"required"`
}

// OpenPostgres connects to databaseURL, retrying while the server comes up,
// and applies the embedded migrations.
func OpenPostgres(ctx context.Context, databaseURL string, defaults model.QuotaSet) (*PostgresStore, error) {
	var (
		db  *sqlx.DB
		err error
	)
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err = sqlx.ConnectContext(ctx, "postgres", databaseURL)
		if err == nil {
			appLog.Info("connected to database")
			break
		}
		appLog.Error("failed to connect to database", err, "attempt", attempt, "retry_in", connectInterval.String())

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(connectInterval):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("store: could not connect to database after %d attempts: %w", connectAttempts, err)
	}

	if len(defaults) == 0 {
		defaults = model.DefaultQuotas()
	}
	s := &PostgresStore{db: db, defaults: defaults.Clone()}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an existing connection. The caller runs Migrate.
func NewPostgresStore(db *sqlx.DB, defaults model.QuotaSet) *PostgresStore {
	if len(defaults) == 0 {
		defaults = model.DefaultQuotas()
	}
	return &PostgresStore{db: db, defaults: defaults.Clone()}
}

// Migrate executes every embedded *.up.sql file in name order. The
// statements are idempotent, so running them on every start is safe.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	files, err := migrationFiles("up")
	if err != nil {
		return err
	}
	return s.execMigrations(ctx, files)
}

// Rollback executes every embedded *.down.sql file in reverse name order,
// dropping the tables Migrate created.
func (s *PostgresStore) Rollback(ctx context.Context) error {
	files, err := migrationFiles("down")
	if err != nil {
		return err
	}
	return s.execMigrations(ctx, files)
}

// migrationFiles lists the embedded migrations of one direction in the
// order they must run.
func migrationFiles(direction string) ([]string, error) {
	files, err := fs.Glob(migrations, "migrations/*."+direction+".sql")
	if err != nil {
		return nil, fmt.Errorf("store: list migrations: %w", err)
	}
	sort.Strings(files)
	if direction == "down" {
		slices.Reverse(files)
	}
	return files, nil
}

func (s *PostgresStore) execMigrations(ctx context.Context, files []string) error {
	for _, file := range files {
		data, err := migrations.ReadFile(file)
		if err != nil {
			return fmt.Errorf("store: read migration %q: %w", file, err)
		}
		stmt := strings.TrimSpace(string(data))
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migration %q: %w", file, err)
		}
	}
	return nil
}

func (s *PostgresStore) LoadEvents(ctx context.Context) ([]model.Event, error) {
	var rows []eventRow
	query := `
	SELECT id, position, date, title, occasion, platform, status, notes
	FROM events
	ORDER BY position, id;`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("store: load events: %w", err)
	}

	events := make([]model.Event, 0, len(rows))
	for _, r := range rows {
		ev := model.Event{
			ID:       r.ID,
			Title:    r.Title,
			Occasion: r.Occasion,
			Platform: r.Platform,
			Status:   model.ParseStatus(r.Status),
			Notes:    r.Notes,
		}
		if r.Date.Valid {
			y, m, d := r.Date.Time.Date()
			ev.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
		events = append(events, ev)
	}
	return events, nil
}

// SaveEvents replaces the table contents in one transaction.
func (s *PostgresStore) SaveEvents(ctx context.Context, events []model.Event) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events;`); err != nil {
		return fmt.Errorf("store: clear events: %w", err)
	}

	query := `
	INSERT INTO events
	(id, position, date, title, occasion, platform, status, notes)
	VALUES
	(:id, :position, :date, :title, :occasion, :platform, :status, :notes);`
	for i, ev := range events {
		row := eventRow{
			ID:       ev.ID,
			Position: i,
			Date:     sql.NullTime{Time: ev.Day(), Valid: ev.HasDate()},
			Title:    ev.Title,
			Occasion: ev.Occasion,
			Platform: ev.Platform,
			Status:   string(ev.Status),
			Notes:    ev.Notes,
		}
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("store: insert event %q: %w", ev.ID, err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) LoadQuotas(ctx context.Context) (model.QuotaSet, error) {
	var rows []quotaRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT platform, required FROM quotas ORDER BY platform;`); err != nil {
		return nil, fmt.Errorf("store: load quotas: %w", err)
	}
	if len(rows) == 0 {
		appLog.Info("seeding default quotas")
		quotas := s.defaults.Clone()
		if err := s.SaveQuotas(ctx, quotas); err != nil {
			return nil, err
		}
		return quotas, nil
	}

	quotas := make(model.QuotaSet, len(rows))
	for _, r := range rows {
		quotas[r.Platform] = r.Required
	}
	return quotas, nil
}

func (s *PostgresStore) SaveQuotas(ctx context.Context, quotas model.QuotaSet) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM quotas;`); err != nil {
		return fmt.Errorf("store: clear quotas: %w", err)
	}
	for _, p := range quotas.Platforms() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO quotas (platform, required) VALUES ($1, $2);`,
			p, quotas[p],
		); err != nil {
			return fmt.Errorf("store: insert quota %q: %w", p, err)
		}
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
