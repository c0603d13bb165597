package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value      []byte
	expiration time.Time
}

func (e *entry) expiredAt(now time.Time) bool {
	return !now.Before(e.expiration)
}

// MemoryBackend is an in-process Backend with TTL expiry.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]*entry
	stats   Stats
	now     func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMemoryBackend creates an in-memory backend. A positive cleanupInterval
// starts a janitor goroutine that drops expired entries; Close stops it.
func NewMemoryBackend(cleanupInterval time.Duration) *MemoryBackend {
	c := &MemoryBackend{
		entries: make(map[string]*entry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.janitor(cleanupInterval)
	}
	return c
}

// Get retrieves a value from the cache.
func (c *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found || e.expiredAt(c.now()) {
		c.stats.Misses++
		return nil, ErrMiss
	}
	c.stats.Hits++
	return e.value, nil
}

// Add stores value unless an unexpired entry already exists for key.
func (c *MemoryBackend) Add(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, found := c.entries[key]; found && !e.expiredAt(now) {
		return false, nil
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	c.entries[key] = &entry{value: stored, expiration: now.Add(ttl)}
	c.stats.Adds++
	return true, nil
}

// Delete removes a value from the cache.
func (c *MemoryBackend) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// HealthCheck always succeeds.
func (c *MemoryBackend) HealthCheck(context.Context) error {
	return nil
}

// Close stops the janitor goroutine. It is safe to call more than once.
func (c *MemoryBackend) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

// Stats returns cache statistics.
func (c *MemoryBackend) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.CurrentSize = len(c.entries)
	return stats
}

// deleteExpired removes all expired entries and returns how many were dropped.
func (c *MemoryBackend) deleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	count := 0
	for key, e := range c.entries {
		if e.expiredAt(now) {
			delete(c.entries, key)
			count++
		}
	}
	c.stats.Evictions += int64(count)
	return count
}

func (c *MemoryBackend) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}
