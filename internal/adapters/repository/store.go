// Package repository is the Similarity Repository: the read-only join of
// the attendee roster with the precomputed pairing dataset.
package repository

import (
	"context"

	"github.com/okian/rendezvous/internal/domain/model"
)

// Store provides read access to the similarity data of one session.
type Store interface {
	// Load joins selfID's pairing records with the roster. It fails with
	// ErrDataUnavailable when a dataset cannot be retrieved and with
	// ErrUnknownUser when selfID has no pairing entries.
	Load(ctx context.Context, selfID string) ([]model.PartnerSummary, error)

	// ResolveProfile returns the roster entry for id or ErrNotFound.
	ResolveProfile(ctx context.Context, id string) (model.User, error)

	// ResolveTalkingPoints returns the conversational aid for the ordered
	// pair or ErrNotFound.
	ResolveTalkingPoints(ctx context.Context, selfID, partnerID string) (model.TalkingPoints, error)

	// RosterSize returns the number of users in the loaded roster.
	RosterSize(ctx context.Context) (int, error)

	// Invalidate drops cached datasets so the next call reloads them.
	Invalidate()
}

// Source yields the raw bytes of one dataset.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	Name() string
}
