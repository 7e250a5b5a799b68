// ABOUTME: Tag-indexed query cache with stale-while-revalidate reads
// ABOUTME: Invalidation only flags staleness; the next read triggers the refetch
package client

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// FetchFunc loads fresh data for a query.
type FetchFunc func(ctx context.Context) (interface{}, error)

// Query describes one cacheable fetch.
type Query struct {
	// Tags group queries for invalidation ("leads", "dashboard", ...).
	Tags []string
	// Fetch loads the value. It must return a fresh value, not mutate a
	// previous one.
	Fetch FetchFunc
	// Refresh is the polling fallback: a read after this interval refetches
	// even without an invalidation. <= 0 disables polling for the query.
	Refresh time.Duration
}

type cacheEntry struct {
	query     Query
	value     interface{}
	hasValue  bool
	stale     bool
	inFlight  bool
	fetchedAt time.Time
}

// Cache holds named query results. Invalidation is idempotent and
// commutative: it only ever sets staleness flags, so replaying or reordering
// invalidations converges to the same stale-set.
type Cache struct {
	logger *log.Logger

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

func NewCache(logger *log.Logger) *Cache {
	return &Cache{
		logger:  logger,
		entries: make(map[string]*cacheEntry),
	}
}

// Register installs a query under a key. Re-registering replaces the query
// definition but keeps nothing else; the first Get fetches.
func (c *Cache) Register(key string, q Query) {
	c.mu.Lock()
	c.entries[key] = &cacheEntry{query: q}
	c.mu.Unlock()
}

// Get returns the cached value for key. A missing value fetches
// synchronously. A stale (or poll-expired) value returns immediately while
// one background refetch runs; concurrent reads keep getting the last-known
// value until it resolves.
func (c *Cache) Get(ctx context.Context, key string) (interface{}, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return nil, ErrUnknownQuery
	}

	if !e.hasValue {
		if e.inFlight {
			// First fetch already running; there is nothing to serve yet.
			c.mu.Unlock()
			return nil, ErrNoValue
		}
		e.inFlight = true
		fetch := e.query.Fetch
		c.mu.Unlock()
		return c.fetchInto(ctx, key, fetch)
	}

	needsRefresh := e.stale ||
		(e.query.Refresh > 0 && time.Since(e.fetchedAt) >= e.query.Refresh)
	value := e.value
	if needsRefresh && !e.inFlight {
		e.inFlight = true
		fetch := e.query.Fetch
		go func() {
			if _, err := c.fetchInto(context.Background(), key, fetch); err != nil {
				c.logger.Warn("background refetch failed", "query", key, "err", err)
			}
		}()
	}
	c.mu.Unlock()

	return value, nil
}

func (c *Cache) fetchInto(ctx context.Context, key string, fetch FetchFunc) (interface{}, error) {
	value, err := fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return value, err
	}
	e.inFlight = false
	if err != nil {
		// Keep the last-known value; the entry stays stale so the next read
		// retries.
		e.stale = e.hasValue
		return nil, err
	}
	e.value = value
	e.hasValue = true
	e.stale = false
	e.fetchedAt = time.Now()
	return value, nil
}

// Invalidate marks every query carrying any of the given tags as stale.
func (c *Cache) Invalidate(tags ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if hasAnyTag(e.query.Tags, tags) {
			e.stale = true
		}
	}
}

// InvalidateKey marks a single query stale.
func (c *Cache) InvalidateKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.stale = true
	}
}

// Set writes a value directly, as the optimistic coordinator does. The entry
// is considered fresh.
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.value = value
	e.hasValue = true
	e.stale = false
	e.fetchedAt = time.Now()
}

// Peek returns the cached value without triggering any fetch.
func (c *Cache) Peek(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.hasValue {
		return nil, false
	}
	return e.value, true
}

// IsStale reports whether the entry is currently flagged stale.
func (c *Cache) IsStale(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return ok && e.stale
}

// StaleKeys returns the keys currently flagged stale, for tests and
// debugging.
func (c *Cache) StaleKeys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var keys []string
	for key, e := range c.entries {
		if e.stale {
			keys = append(keys, key)
		}
	}
	return keys
}

func hasAnyTag(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}
