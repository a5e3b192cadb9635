// Package cache is a small in-memory TTL cache for external lookups.
//
// Population is not exclusive: two callers missing the same key at once may
// both load it, and the last one stored wins.
package cache

import (
	"sync"
	"time"
)

// Observer is told about every lookup.
type Observer interface {
	CacheHit(name string)
	CacheMiss(name string)
}

type entry[T any] struct {
	val T
	exp time.Time
}

// Cache holds up to Capacity entries for TTL each.
type Cache[T any] struct {
	name     string
	ttl      time.Duration
	capacity int
	obs      Observer
	now      func() time.Time

	mu sync.RWMutex
	m  map[string]entry[T]
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	capacity int
	obs      Observer
	now      func() time.Time
}

// WithCapacity bounds the number of entries. Zero means unbounded.
func WithCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithObserver reports hits and misses to obs.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.obs = obs }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a cache. name labels its metrics.
func New[T any](name string, ttl time.Duration, opts ...Option) *Cache[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[T]{
		name:     name,
		ttl:      ttl,
		capacity: o.capacity,
		obs:      o.obs,
		now:      o.now,
		m:        make(map[string]entry[T]),
	}
}

// Get returns the live value for key.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.exp) {
		if c.obs != nil {
			c.obs.CacheMiss(c.name)
		}
		return zero, false
	}
	if c.obs != nil {
		c.obs.CacheHit(c.name)
	}
	return e.val, true
}

// Set stores v under key, evicting if the cache is full.
func (c *Cache[T]) Set(key string, v T) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[key]; !ok && c.capacity > 0 && len(c.m) >= c.capacity {
		c.evict(now)
	}
	c.m[key] = entry[T]{val: v, exp: now.Add(c.ttl)}
}

// evict drops every expired entry, or the one expiring soonest when none
// has. Callers hold mu.
func (c *Cache[T]) evict(now time.Time) {
	var (
		oldest    string
		oldestExp time.Time
		found     bool
		dropped   bool
	)
	for k, e := range c.m {
		if !now.Before(e.exp) {
			delete(c.m, k)
			dropped = true
			continue
		}
		if !found || e.exp.Before(oldestExp) {
			oldest, oldestExp, found = k, e.exp, true
		}
	}
	if !dropped && found {
		delete(c.m, oldest)
	}
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// GetOrLoad returns the cached value for key or calls load and stores its
// result. Errors are not cached.
func (c *Cache[T]) GetOrLoad(key string, load func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}
