package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentcal/internal/model"
)

// openTestPostgres connects to TEST_DATABASE_URL and empties both tables.
func openTestPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := OpenPostgres(ctx, dbURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, s.Rollback(context.Background()))
		s.Close()
	})

	_, err = s.db.ExecContext(ctx, `DELETE FROM events; DELETE FROM quotas;`)
	require.NoError(t, err)
	return s
}

func TestMigrationFilesOrder(t *testing.T) {
	up, err := migrationFiles("up")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"migrations/0001_events.up.sql",
		"migrations/0002_quotas.up.sql",
	}, up)

	down, err := migrationFiles("down")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"migrations/0002_quotas.down.sql",
		"migrations/0001_events.down.sql",
	}, down)
}

func TestPostgresRollback(t *testing.T) {
	s := openTestPostgres(t)
	ctx := context.Background()

	require.NoError(t, s.Rollback(ctx))
	var n int
	require.NoError(t, s.db.GetContext(ctx, &n,
		`SELECT count(*) FROM information_schema.tables WHERE table_name IN ('events', 'quotas')`))
	assert.Zero(t, n)

	require.NoError(t, s.Migrate(ctx))
	quotas, err := s.LoadQuotas(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultQuotas(), quotas)
}

func TestPostgresStoreEvents(t *testing.T) {
	s := openTestPostgres(t)
	ctx := context.Background()

	events, err := s.LoadEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)

	in := []model.Event{
		{ID: "b", Date: time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), Title: "Second", Platform: "Blog", Status: model.StatusPlanning},
		{ID: "a", Title: "Undated", Platform: "Instagram", Status: model.StatusPublished, Notes: "n"},
	}
	require.NoError(t, s.SaveEvents(ctx, in))

	out, err := s.LoadEvents(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].ID)
	assert.Equal(t, 2025, out[0].Date.Year())
	assert.Equal(t, time.April, out[0].Date.Month())
	assert.Equal(t, 2, out[0].Date.Day())
	assert.False(t, out[1].HasDate())
	assert.Equal(t, model.StatusPublished, out[1].Status)

	require.NoError(t, s.SaveEvents(ctx, in[:1]))
	out, err = s.LoadEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestPostgresStoreQuotas(t *testing.T) {
	s := openTestPostgres(t)
	ctx := context.Background()

	quotas, err := s.LoadQuotas(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultQuotas(), quotas)

	require.NoError(t, s.SaveQuotas(ctx, model.QuotaSet{"Blog": 2}))
	quotas, err = s.LoadQuotas(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.QuotaSet{"Blog": 2}, quotas)
}
