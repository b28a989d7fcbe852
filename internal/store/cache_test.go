package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentcal/internal/model"
)

// countingStore is an in-memory Store that records how often it is read.
type countingStore struct {
	events      []model.Event
	quotas      model.QuotaSet
	eventLoads  int
	quotaLoads  int
	failLoading bool
}

func (s *countingStore) LoadEvents(ctx context.Context) ([]model.Event, error) {
	s.eventLoads++
	if s.failLoading {
		return nil, errors.New("backing store down")
	}
	return append([]model.Event(nil), s.events...), nil
}

func (s *countingStore) SaveEvents(ctx context.Context, events []model.Event) error {
	s.events = append([]model.Event(nil), events...)
	return nil
}

func (s *countingStore) LoadQuotas(ctx context.Context) (model.QuotaSet, error) {
	s.quotaLoads++
	return s.quotas.Clone(), nil
}

func (s *countingStore) SaveQuotas(ctx context.Context, quotas model.QuotaSet) error {
	s.quotas = quotas.Clone()
	return nil
}

func newTestCache(now *time.Time) *MemoryCache {
	m := NewMemoryCache()
	m.now = func() time.Time { return *now }
	return m
}

func TestCachedReusesLoadsWithinTTL(t *testing.T) {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	backing := &countingStore{
		events: []model.Event{{ID: "1", Date: time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), Title: "Post", Platform: "Blog", Status: model.StatusPlanning}},
		quotas: model.DefaultQuotas(),
	}
	c := NewCached(backing, newTestCache(&now), time.Minute)
	ctx := context.Background()

	first, err := c.LoadEvents(ctx)
	require.NoError(t, err)
	second, err := c.LoadEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, backing.events, second)
	assert.Equal(t, 1, backing.eventLoads)

	now = now.Add(61 * time.Second)
	_, err = c.LoadEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, backing.eventLoads)

	_, err = c.LoadQuotas(ctx)
	require.NoError(t, err)
	q, err := c.LoadQuotas(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultQuotas(), q)
	assert.Equal(t, 1, backing.quotaLoads)
}

func TestCachedSaveInvalidates(t *testing.T) {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	backing := &countingStore{quotas: model.QuotaSet{"Blog": 1}}
	c := NewCached(backing, newTestCache(&now), time.Minute)
	ctx := context.Background()

	_, err := c.LoadEvents(ctx)
	require.NoError(t, err)

	require.NoError(t, c.SaveEvents(ctx, []model.Event{{ID: "new", Title: "Fresh"}}))
	events, err := c.LoadEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "new", events[0].ID)
	assert.Equal(t, 2, backing.eventLoads)

	_, err = c.LoadQuotas(ctx)
	require.NoError(t, err)
	require.NoError(t, c.SaveQuotas(ctx, model.QuotaSet{"Blog": 3}))
	q, err := c.LoadQuotas(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.QuotaSet{"Blog": 3}, q)
	assert.Equal(t, 2, backing.quotaLoads)

	require.NoError(t, c.Invalidate(ctx))
	_, err = c.LoadQuotas(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, backing.quotaLoads)
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	now := time.Now()
	backing := &countingStore{failLoading: true}
	c := NewCached(backing, newTestCache(&now), time.Minute)

	_, err := c.LoadEvents(context.Background())
	require.Error(t, err)

	backing.failLoading = false
	_, err = c.LoadEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, backing.eventLoads)
}

func TestMemoryCacheExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := newTestCache(&now)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Second))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	now = now.Add(time.Second)
	_, ok, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Hour))
	require.NoError(t, m.Delete(ctx, "k", "missing"))
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
}
