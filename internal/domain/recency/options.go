package recency

// Option applies a configuration option to the Cache.
type Option func(*Cache)

// WithCapacity sets the maximum number of ids kept. Non-positive values are ignored.
func WithCapacity(capacity int) Option {
	return func(c *Cache) {
		if capacity > 0 {
			c.capacity = capacity
		}
	}
}

// WithStore persists the list under key after every change.
func WithStore(store Store, key string) Option {
	return func(c *Cache) {
		c.store = store
		c.key = key
	}
}
