// Package cache provides the in-process, time-boxed memoization used by the
// recommendation engine. Entries expire after a fixed TTL and the cache is
// bounded: once full, the least recently used entry is evicted.
package cache

import (
	"container/list"
	"sync"
	"time"
)

const (
	DefaultCapacity = 1000
	DefaultTTL      = 30 * time.Minute
)

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// LRU is a thread-safe key/value cache with per-entry expiry. It is owned by
// a single engine instance and never shared across processes.
type LRU[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time

	order *list.List // front = most recently used
	items map[string]*list.Element

	hits      int64
	misses    int64
	evictions int64
}

type Option[V any] func(*LRU[V])

// WithClock replaces time.Now, mainly for tests.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *LRU[V]) {
		if now != nil {
			c.now = now
		}
	}
}

func New[V any](capacity int, ttl time.Duration, opts ...Option[V]) *LRU[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key. An entry past its expiry is evicted
// and reported as a miss.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}

	e := el.Value.(*entry[V])
	if c.now().After(e.expiresAt) {
		c.removeElement(el)
		c.misses++
		return zero, false
	}

	c.order.MoveToFront(el)
	c.hits++
	return e.value, true
}

// Set stores value under key with expiresAt = now + TTL, replacing any
// existing entry.
func (c *LRU[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[V])
		e.value = value
		e.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&entry[V]{key: key, value: value, expiresAt: expiresAt})

	for len(c.items) > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.removeElement(oldest)
		c.evictions++
	}
}

// Remove drops key. It reports whether an entry was present.
func (c *LRU[V]) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(el)
	return true
}

// Purge drops every entry.
func (c *LRU[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}

// CleanupExpired removes all expired entries and returns how many were dropped.
func (c *LRU[V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*entry[V]).expiresAt) {
			c.removeElement(el)
			removed++
		}
		el = prev
	}
	return removed
}

func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU[V]) TTL() time.Duration {
	return c.ttl
}

type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}

func (c *LRU[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Evictions: c.evictions, Size: len(c.items)}
}

// removeElement must be called with mu held.
func (c *LRU[V]) removeElement(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry[V]).key)
}
