// Package cache implements the tiered response cache: a process-lifetime
// memory map in front of a persistent store (file directory or SQLite).
// Expiry is lazy, checked at read time; nothing sweeps in the background.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"stock-insight-api/internal/logger"
)

// Entry is one cached payload. TTL travels with the entry so the persistent
// tier stays self-describing across process restarts.
type Entry struct {
	Key        string          `json:"key"`
	Value      json.RawMessage `json:"value"`
	WrittenAt  time.Time       `json:"writtenAt"`
	TTLSeconds int             `json:"ttlSeconds"`
}

func (e *Entry) expired(now time.Time) bool {
	return now.Sub(e.WrittenAt) >= time.Duration(e.TTLSeconds)*time.Second
}

// Store is the persistent tier. Get returns (nil, nil) when the key is
// absent; any error is treated by Tiered as a miss, never surfaced.
type Store interface {
	Get(key string) (*Entry, error)
	Set(entry Entry) error
	Delete(key string) error
	Close() error
}

// Tiered checks the memory map first, then the persistent store. A fresh
// persistent hit backfills the memory tier. Concurrent misses for the same
// key may both recompute; last writer wins.
type Tiered struct {
	mu     sync.RWMutex
	mem    map[string]Entry
	store  Store // may be nil (memory-only)
	memCap time.Duration
	now    func() time.Time
}

type Option func(*Tiered)

// WithClock injects the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(c *Tiered) { c.now = now }
}

// WithMemoryCap bounds how long the memory copy of any entry is trusted,
// regardless of the entry's own TTL. Zero means no cap.
func WithMemoryCap(d time.Duration) Option {
	return func(c *Tiered) { c.memCap = d }
}

func New(store Store, opts ...Option) *Tiered {
	c := &Tiered{
		mem:   make(map[string]Entry),
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached payload for key, or (nil, false) on a miss.
func (c *Tiered) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	now := c.now()

	c.mu.RLock()
	entry, ok := c.mem[key]
	c.mu.RUnlock()

	if ok {
		if c.memFresh(&entry, now) {
			return entry.Value, true
		}
		c.mu.Lock()
		delete(c.mem, key)
		c.mu.Unlock()
	}

	if c.store == nil {
		return nil, false
	}

	stored, err := c.store.Get(key)
	if err != nil {
		logger.Warn(ctx, "persistent cache read failed, treating as miss", "key", key, "error", err)
		return nil, false
	}
	if stored == nil {
		return nil, false
	}
	if stored.expired(now) {
		if err := c.store.Delete(key); err != nil {
			logger.Debug(ctx, "failed to evict expired cache entry", "key", key, "error", err)
		}
		return nil, false
	}

	c.mu.Lock()
	c.mem[key] = *stored
	c.mu.Unlock()

	return stored.Value, true
}

// Set marshals value and writes through to both tiers. Persistent-tier
// failures are logged, never fatal.
func (c *Tiered) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	entry := Entry{
		Key:        key,
		Value:      raw,
		WrittenAt:  c.now(),
		TTLSeconds: int(ttl / time.Second),
	}

	c.mu.Lock()
	c.mem[key] = entry
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Set(entry); err != nil {
			logger.Warn(ctx, "persistent cache write failed", "key", key, "error", err)
		}
	}
	return nil
}

// IsFresh reports whether a timestamp is younger than maxAge.
func (c *Tiered) IsFresh(writtenAt time.Time, maxAge time.Duration) bool {
	return c.now().Sub(writtenAt) < maxAge
}

func (c *Tiered) memFresh(entry *Entry, now time.Time) bool {
	if entry.expired(now) {
		return false
	}
	if c.memCap > 0 && now.Sub(entry.WrittenAt) >= c.memCap {
		return false
	}
	return true
}
