// Package session provides session-scoped key-value stores. Values live for
// the lifetime of one browsing session and expire on their own after a TTL.
package session

import (
	"context"
	"strings"
)

// Store is the get/set/delete contract session-scoped state is persisted through.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key, refreshing its expiry.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

const keyPrefix = "rendezvous"

// Key scopes name to one browsing session.
func Key(sessionID, name string) string {
	return strings.Join([]string{keyPrefix, sessionID, name}, ":")
}
