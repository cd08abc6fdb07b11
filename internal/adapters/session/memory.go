package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Default memory store settings.
const (
	defaultTTL             = 12 * time.Hour
	defaultCleanupInterval = 10 * time.Minute
)

// MemoryStore keeps session values in process memory with a sliding TTL.
type MemoryStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

// MemoryOption applies a configuration option to a MemoryStore.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	ttl     time.Duration
	cleanup time.Duration
}

// WithTTL sets how long a value lives after its last write.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithCleanupInterval sets how often expired values are purged.
func WithCleanupInterval(interval time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		if interval > 0 {
			o.cleanup = interval
		}
	}
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	o := memoryOptions{ttl: defaultTTL, cleanup: defaultCleanupInterval}
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		cache: cache.New(o.ttl, o.cleanup),
		ttl:   o.ttl,
	}
}

// Get returns a copy of the stored value.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

// Set stores a copy of value.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.cache.Set(key, append([]byte(nil), value...), s.ttl)
	return nil
}

// Delete removes key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

// Len reports how many values are held, including not yet purged expired ones.
func (s *MemoryStore) Len() int {
	return s.cache.ItemCount()
}
