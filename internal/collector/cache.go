package collector

import (
	"context"
	"sync"
	"time"

	"github.com/vermu490/crypto-dashboard/internal/model"
)

// SeriesCache stores fetched bars by request key for a limited time.
type SeriesCache interface {
	Get(ctx context.Context, key string) ([]model.OHLCV, bool, error)
	Set(ctx context.Context, key string, bars []model.OHLCV, ttl time.Duration) error
	Name() string
}

type memoryEntry struct {
	bars    []model.OHLCV
	expires time.Time
}

// DefaultMaxEntries bounds a MemoryCache created by NewMemoryCache.
const DefaultMaxEntries = 512

// MemoryCache is an in-process SeriesCache holding at most MaxEntries series.
// When full, Set evicts the entry closest to expiry.
type MemoryCache struct {
	MaxEntries int // <= 0 means unbounded

	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-process cache bounded by DefaultMaxEntries.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{MaxEntries: DefaultMaxEntries, entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Name() string { return "memory" }

// Get returns a copy of the cached bars so callers can never alter the stored entry.
func (c *MemoryCache) Get(_ context.Context, key string) ([]model.OHLCV, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return append([]model.OHLCV(nil), e.bars...), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, bars []model.OHLCV, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	if _, exists := c.entries[key]; !exists && c.MaxEntries > 0 {
		for len(c.entries) >= c.MaxEntries {
			c.evictOldest()
		}
	}
	c.entries[key] = memoryEntry{
		bars:    append([]model.OHLCV(nil), bars...),
		expires: now.Add(ttl),
	}
	return nil
}

func (c *MemoryCache) evictOldest() {
	var oldest string
	var first time.Time
	for k, e := range c.entries {
		if oldest == "" || e.expires.Before(first) {
			oldest, first = k, e.expires
		}
	}
	delete(c.entries, oldest)
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
