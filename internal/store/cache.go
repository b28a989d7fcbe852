package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	appLog "contentcal/internal/log"
	"contentcal/internal/model"
)

const (
	eventsKey = "contentcal:events"
	quotasKey = "contentcal:quotas"
)

// Cache is a byte-oriented key/value cache with per-entry expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Cached memoizes loads of another Store for a fixed TTL. Saves go straight
// to the backing store and drop the cached copy of that table.
//
// Cache failures are logged and treated as misses; only backing-store
// errors are returned.
type Cached struct {
	next  Store
	cache Cache
	ttl   time.Duration
}

// NewCached wraps next. A non-positive ttl falls back to one minute.
func NewCached(next Store, cache Cache, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cached{next: next, cache: cache, ttl: ttl}
}

func (c *Cached) LoadEvents(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if c.lookup(ctx, eventsKey, &events) {
		return events, nil
	}
	events, err := c.next.LoadEvents(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, eventsKey, events)
	return events, nil
}

func (c *Cached) SaveEvents(ctx context.Context, events []model.Event) error {
	if err := c.next.SaveEvents(ctx, events); err != nil {
		return err
	}
	c.drop(ctx, eventsKey)
	return nil
}

func (c *Cached) LoadQuotas(ctx context.Context) (model.QuotaSet, error) {
	var quotas model.QuotaSet
	if c.lookup(ctx, quotasKey, &quotas) {
		return quotas, nil
	}
	quotas, err := c.next.LoadQuotas(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, quotasKey, quotas)
	return quotas, nil
}

func (c *Cached) SaveQuotas(ctx context.Context, quotas model.QuotaSet) error {
	if err := c.next.SaveQuotas(ctx, quotas); err != nil {
		return err
	}
	c.drop(ctx, quotasKey)
	return nil
}

// Invalidate drops both cached tables.
func (c *Cached) Invalidate(ctx context.Context) error {
	return c.cache.Delete(ctx, eventsKey, quotasKey)
}

// Close closes the cache and the backing store.
func (c *Cached) Close() error {
	var errs []error
	if cl, ok := c.cache.(interface{ Close() error }); ok {
		errs = append(errs, cl.Close())
	}
	errs = append(errs, Close(c.next))
	return errors.Join(errs...)
}

func (c *Cached) lookup(ctx context.Context, key string, dst any) bool {
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		appLog.Warn("cache get failed", "key", key, "error", err.Error())
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		appLog.Warn("cache entry corrupt", "key", key, "error", err.Error())
		return false
	}
	return true
}

func (c *Cached) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		appLog.Warn("cache encode failed", "key", key, "error", err.Error())
		return
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		appLog.Warn("cache set failed", "key", key, "error", err.Error())
	}
}

func (c *Cached) drop(ctx context.Context, key string) {
	if err := c.cache.Delete(ctx, key); err != nil {
		appLog.Warn("cache delete failed", "key", key, "error", err.Error())
	}
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryItem

	now func() time.Time
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()

	if !ok || !m.now().Before(item.expiresAt) {
		return nil, false, nil
	}
	return item.value, true, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = memoryItem{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}
