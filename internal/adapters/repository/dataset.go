package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/rendezvous/internal/domain/model"
	"github.com/okian/rendezvous/internal/domain/similarity"
	"github.com/okian/rendezvous/pkg/logger"
	"github.com/okian/rendezvous/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// snapshot is one loaded pair of datasets. It is never mutated after load.
type snapshot struct {
	users    map[string]model.User
	pairings *Pairings
}

// DatasetStore implements Store over a roster source and a pairing source.
// Both datasets are fetched together on first use and kept until Invalidate.
type DatasetStore struct {
	roster Source
	pairs  Source
	log    logger.Logger

	mu   sync.Mutex
	snap *snapshot
}

// NewDatasetStore constructs a store over the two sources.
func NewDatasetStore(roster, pairs Source, opts ...Option) *DatasetStore {
	s := &DatasetStore{
		roster: roster,
		pairs:  pairs,
		log:    logger.GetOrNop().Named("repository"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load implements Store.Load.
func (s *DatasetStore) Load(ctx context.Context, selfID string) ([]model.PartnerSummary, error) {
	snap, err := s.ensure(ctx)
	if err != nil {
		return nil, err
	}

	selfID = strings.TrimSpace(selfID)
	entries := snap.pairings.Partners(selfID)
	if len(entries) == 0 {
		metrics.RecordErrorByComponent("repository", "unknown_user")
		return nil, fmt.Errorf("%w: %q has no pairing entries", ErrUnknownUser, selfID)
	}

	out := make([]model.PartnerSummary, 0, len(entries))
	for _, e := range entries {
		sim, err := similarity.FromDistance(e.Distance)
		if err != nil {
			metrics.RecordErrorByComponent("repository", "invalid_distance")
			s.log.Warn(ctx, "skipping pairing record",
				logger.String("self_id", selfID),
				logger.String("partner_id", e.PartnerID),
				logger.Error(err))
			continue
		}
		out = append(out, model.PartnerSummary{
			ID:         e.PartnerID,
			Name:       displayName(snap.users, e),
			Similarity: sim,
		})
	}
	return out, nil
}

// ResolveProfile implements Store.ResolveProfile.
func (s *DatasetStore) ResolveProfile(ctx context.Context, id string) (model.User, error) {
	snap, err := s.ensure(ctx)
	if err != nil {
		return model.User{}, err
	}
	u, ok := snap.users[strings.TrimSpace(id)]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.User{}, fmt.Errorf("%w: user %q", ErrNotFound, id)
	}
	return u, nil
}

// ResolveTalkingPoints implements Store.ResolveTalkingPoints.
func (s *DatasetStore) ResolveTalkingPoints(ctx context.Context, selfID, partnerID string) (model.TalkingPoints, error) {
	snap, err := s.ensure(ctx)
	if err != nil {
		return model.TalkingPoints{}, err
	}
	e, ok := snap.pairings.Lookup(strings.TrimSpace(selfID), strings.TrimSpace(partnerID))
	if !ok {
		return model.TalkingPoints{}, fmt.Errorf("%w: talking points for %q/%q", ErrNotFound, selfID, partnerID)
	}
	points := make([]string, len(e.DiscussionPoints))
	copy(points, e.DiscussionPoints)
	return model.TalkingPoints{OpeningLine: e.OpeningLine, DiscussionPoints: points}, nil
}

// RosterSize implements Store.RosterSize.
func (s *DatasetStore) RosterSize(ctx context.Context) (int, error) {
	snap, err := s.ensure(ctx)
	if err != nil {
		return 0, err
	}
	return len(snap.users), nil
}

// Invalidate implements Store.Invalidate.
func (s *DatasetStore) Invalidate() {
	s.mu.Lock()
	s.snap = nil
	s.mu.Unlock()
}

// ensure returns the loaded snapshot, fetching both datasets if needed.
// Failures are not cached; the next call tries again.
func (s *DatasetStore) ensure(ctx context.Context) (*snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap != nil {
		return s.snap, nil
	}

	var (
		users    []model.User
		pairings *Pairings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := s.fetch(gctx, "roster", s.roster)
		if err != nil {
			return err
		}
		users, err = DecodeRoster(data)
		return err
	})
	g.Go(func() error {
		data, err := s.fetch(gctx, "pairings", s.pairs)
		if err != nil {
			return err
		}
		pairings, err = DecodePairings(data)
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.RecordErrorByComponent("repository", "data_unavailable")
		s.log.Error(ctx, "failed to load similarity data", logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}

	byID := make(map[string]model.User, len(users))
	for _, u := range users {
		if u.ID == "" {
			s.log.Warn(ctx, "skipping roster entry without id", logger.String("name", u.Name))
			continue
		}
		byID[u.ID] = u
	}

	s.snap = &snapshot{users: byID, pairings: pairings}
	metrics.UpdateRosterSize(len(byID))
	s.log.Info(ctx, "similarity data loaded",
		logger.Int("users", len(byID)),
		logger.Int("self_ids", len(pairings.SelfIDs())))
	return s.snap, nil
}

func (s *DatasetStore) fetch(ctx context.Context, dataset string, src Source) ([]byte, error) {
	if src == nil {
		return nil, errors.New(dataset + " source is not configured")
	}
	start := time.Now()
	data, err := src.Fetch(ctx)
	metrics.RecordDatasetLoadLatency(dataset, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("%s from %s: %w", dataset, src.Name(), err)
	}
	return data, nil
}

// displayName prefers the roster name, then the name carried by the
// pairing record, then the id itself.
func displayName(users map[string]model.User, e PairEntry) string {
	if u, ok := users[e.PartnerID]; ok && u.Name != "" {
		return u.Name
	}
	if e.Name != "" {
		return e.Name
	}
	return e.PartnerID
}
