// Package recency implements the bounded most-recently-viewed partner list.
//
// The list is ordered most-recent-first, never holds an id twice and never
// grows past its capacity: recording an id moves it to the front and the
// oldest entry falls off the end.
package recency

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// DefaultCapacity is the number of partners remembered.
const DefaultCapacity = 10

// Store is the session-scoped persistence the cache writes through to.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Cache is a bounded, deduplicated recency list.
type Cache struct {
	mu       sync.Mutex
	entries  []string
	capacity int

	store Store
	key   string
}

// New creates an empty cache. Without WithStore it is memory only.
func New(opts ...Option) *Cache {
	c := &Cache{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(c)
	}
	c.entries = make([]string, 0, c.capacity)
	return c
}

// Record moves partnerID to the front, dropping any earlier occurrence and
// evicting past capacity. The in-memory list is always updated; a non-nil
// error only reports that persisting it failed.
func (c *Cache) Record(ctx context.Context, partnerID string) ([]string, error) {
	partnerID = strings.TrimSpace(partnerID)
	if partnerID == "" {
		return c.Snapshot(), ErrEmptyID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := make([]string, 0, c.capacity)
	next = append(next, partnerID)
	for _, id := range c.entries {
		if len(next) == c.capacity {
			break
		}
		if id != partnerID {
			next = append(next, id)
		}
	}
	c.entries = next

	return c.snapshotLocked(), c.persistLocked(ctx)
}

// Snapshot returns a copy of the list, most recent first.
func (c *Cache) Snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the configured bound.
func (c *Cache) Capacity() int { return c.capacity }

// Clear empties the list and removes its persisted form.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = c.entries[:0]
	if c.store == nil {
		return nil
	}
	if err := c.store.Delete(ctx, c.key); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// Restore replaces the in-memory list with the persisted one, if any.
// Persisted data is re-normalised so a tampered value cannot break the
// ordering or size guarantees.
func (c *Cache) Restore(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store == nil {
		return c.snapshotLocked(), nil
	}

	raw, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		return c.snapshotLocked(), fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if !ok {
		return c.snapshotLocked(), nil
	}

	var stored []string
	if err := json.Unmarshal(raw, &stored); err != nil {
		return c.snapshotLocked(), fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	seen := make(map[string]struct{}, len(stored))
	entries := make([]string, 0, c.capacity)
	for _, id := range stored {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		if len(entries) == c.capacity {
			break
		}
		seen[id] = struct{}{}
		entries = append(entries, id)
	}
	c.entries = entries
	return c.snapshotLocked(), nil
}

func (c *Cache) snapshotLocked() []string {
	out := make([]string, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Cache) persistLocked(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	raw, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := c.store.Set(ctx, c.key, raw); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}
