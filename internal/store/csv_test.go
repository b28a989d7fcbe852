package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentcal/internal/model"
)

func TestCSVStoreCreatesMissingTables(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVStore(dir, nil)
	ctx := context.Background()

	events, err := s.LoadEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)

	data, err := os.ReadFile(filepath.Join(dir, EventsFile))
	require.NoError(t, err)
	assert.Equal(t, "id,date,title,occasion,platform,status,notes\n", string(data))

	quotas, err := s.LoadQuotas(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultQuotas(), quotas)

	data, err = os.ReadFile(filepath.Join(dir, QuotasFile))
	require.NoError(t, err)
	assert.Equal(t, "platform,required\nBlog,1\nFacebook,5\nInstagram,5\nTikTok,3\n", string(data))
}

func TestCSVStoreRoundTrip(t *testing.T) {
	s := NewCSVStore(t.TempDir(), nil)
	ctx := context.Background()

	in := []model.Event{
		{
			ID:       "a",
			Date:     time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
			Title:    "Launch, part 1",
			Occasion: "Spring",
			Platform: "Instagram",
			Status:   model.StatusDesign,
			Notes:    "line one\nline two",
		},
		{ID: "b", Title: "Undated", Platform: "Blog", Status: model.StatusPlanning},
	}
	require.NoError(t, s.SaveEvents(ctx, in))

	out, err := s.LoadEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	require.NoError(t, s.SaveQuotas(ctx, model.QuotaSet{"Blog": 2, "YouTube": 0}))
	quotas, err := s.LoadQuotas(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.QuotaSet{"Blog": 2, "YouTube": 0}, quotas)
}

func TestCSVStoreLegacySheet(t *testing.T) {
	dir := t.TempDir()
	legacy := "\ufeffFecha,Título,Festividad,Plataforma,Estado,Notas\n" +
		"2025-04-02,Reel,,Instagram,Diseño,\n" +
		"2025-04-03 00:00:00,Post,Easter,Facebook,Publicado,ok\n" +
		"not a date,Broken,,Blog,Planeación,\n" +
		",,,,,\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, EventsFile), []byte(legacy), 0o600))

	s := NewCSVStore(dir, nil)
	ctx := context.Background()

	events, err := s.LoadEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), events[0].Date)
	assert.Equal(t, model.StatusDesign, events[0].Status)
	assert.Equal(t, "Easter", events[1].Occasion)
	assert.Equal(t, model.StatusPublished, events[1].Status)
	assert.False(t, events[2].HasDate())
	assert.Equal(t, "Broken", events[2].Title)
	assert.Equal(t, model.StatusPlanning, events[2].Status)

	for _, ev := range events {
		assert.NotEmpty(t, ev.ID)
	}

	// Assigned IDs are persisted, so a reload sees the same ones.
	again, err := s.LoadEvents(ctx)
	require.NoError(t, err)
	require.Len(t, again, 3)
	for i := range events {
		assert.Equal(t, events[i].ID, again[i].ID)
	}
}

func TestCSVStoreLegacyQuotas(t *testing.T) {
	dir := t.TempDir()
	legacy := "Red,Requerido\nInstagram,4\nTikTok,abc\nBlog,-2\n,9\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, QuotasFile), []byte(legacy), 0o600))

	quotas, err := NewCSVStore(dir, nil).LoadQuotas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.QuotaSet{"Instagram": 4, "TikTok": 0, "Blog": 0}, quotas)
}

func TestCSVStoreSeedsEmptyQuotaTable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, QuotasFile), []byte("platform,required\n"), 0o600))

	defaults := model.QuotaSet{"Newsletter": 1}
	quotas, err := NewCSVStore(dir, defaults).LoadQuotas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, defaults, quotas)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2025-04-02", "2025-04-02 13:45:00", "02/04/2025", "2025-04-02T10:00:00Z"} {
		assert.Equal(t, want, parseDate(s), s)
	}
	assert.True(t, parseDate("").IsZero())
	assert.True(t, parseDate("2025-13-40").IsZero())
}
