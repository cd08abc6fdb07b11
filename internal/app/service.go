// Package service is the Discovery Controller. It owns the identity of the
// logged-in user, the recency cache and the navigation state machine, and it
// turns user actions into complete, serialised state transitions.
//
// Detail payloads resolve asynchronously on the resolver pool. Every
// selection bumps a sequence number and results are only applied while
// their sequence and partner id still match the active selection.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	eventqueue "github.com/okian/rendezvous/internal/adapters/mq/queue"
	workerpool "github.com/okian/rendezvous/internal/adapters/mq/worker"
	"github.com/okian/rendezvous/internal/adapters/repository"
	"github.com/okian/rendezvous/internal/adapters/session"
	"github.com/okian/rendezvous/internal/domain/model"
	"github.com/okian/rendezvous/internal/domain/navigation"
	"github.com/okian/rendezvous/internal/domain/ranking"
	"github.com/okian/rendezvous/internal/domain/recency"
	"github.com/okian/rendezvous/internal/domain/similarity"
	"github.com/okian/rendezvous/internal/domain/types"
	"github.com/okian/rendezvous/pkg/logger"
	"github.com/okian/rendezvous/pkg/metrics"
)

// Session-scoped value names.
const (
	historyKeyName  = "partner_history"
	identityKeyName = "user_id"
)

// Default controller configuration.
const (
	defaultWorkerCount = 2
	defaultQueueSize   = 64
)

// detailState is the partner detail panel while it is open.
type detailState struct {
	seq        uint64
	partnerID  string
	name       string
	similarity *float64
	profile    types.DetailPart[model.User]
	points     types.DetailPart[model.TalkingPoints]
}

// Service implements the discovery operations behind the HTTP API.
type Service struct {
	mu sync.Mutex

	repo     repository.Store
	sessions session.Store
	queue    *eventqueue.InMemoryQueue
	pool     *workerpool.Pool
	policy   ranking.Policy

	workerCount     int
	queueSize       int
	historyCapacity int

	sessionID string
	userID    string
	history   *recency.Cache
	nav       *navigation.Machine
	detail    *detailState
	seq       uint64
	// partners is the size of the last ranking loaded for userID.
	partners int

	selections uint64
	discarded  uint64

	started bool
	logger  logger.Logger
}

// New constructs a controller over repo. It is usable before Start, but
// detail payloads stay pending until the resolver pool runs.
func New(repo repository.Store, opts ...Option) *Service {
	s := &Service{
		repo:            repo,
		policy:          ranking.NewPolicy(),
		workerCount:     defaultWorkerCount,
		queueSize:       defaultQueueSize,
		historyCapacity: recency.DefaultCapacity,
		nav:             navigation.New(),
		logger:          logger.GetOrNop().Named("discovery"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.sessions == nil {
		s.sessions = session.NewMemoryStore()
	}
	if s.sessionID == "" {
		s.sessionID = uuid.NewString()
	}
	s.history = s.newHistory()
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	return s
}

// Start runs the resolver pool and resumes a persisted login, if any.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.queue.IsClosed() {
		s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	}
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.repo, s)
	s.pool.Start(ctx)
	s.started = true

	s.resumeLocked(ctx)

	s.logger.Info(ctx, "discovery service started",
		logger.String("session_id", s.sessionID),
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("history_capacity", s.historyCapacity),
		logger.Bool("resumed", s.userID != ""),
	)
	return nil
}

// Stop shuts the resolver pool down. The lock is released first because
// workers deliver results through it.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	pool := s.pool
	s.pool = nil
	s.started = false
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping discovery service...")
	err := pool.Shutdown(ctx)
	s.logger.Info(ctx, "discovery service stopped")
	return err
}

// Login validates userID against the roster and starts a discovery session
// for it. Logging in as a different user first logs the current one out.
func (s *Service) Login(ctx context.Context, userID string) (types.State, error) {
	id := strings.TrimSpace(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		return s.stateLocked(), fmt.Errorf("%w: empty user id", repository.ErrUnknownUser)
	}
	if _, err := s.repo.ResolveProfile(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordErrorByComponent("discovery", "unknown_user")
			return s.stateLocked(), fmt.Errorf("%w: %q", repository.ErrUnknownUser, id)
		}
		return s.stateLocked(), err
	}

	if s.userID == id {
		return s.stateLocked(), nil
	}
	if s.userID != "" {
		s.logoutLocked(ctx)
	}

	s.userID = id
	if err := s.sessions.Set(ctx, session.Key(s.sessionID, identityKeyName), []byte(id)); err != nil {
		s.logger.Warn(ctx, "failed to persist identity", logger.Error(err))
	}
	s.onLoginSuccessLocked(ctx)

	metrics.RecordLogin()
	s.logger.Info(ctx, "user logged in", logger.String("user_id", id))
	return s.stateLocked(), nil
}

// Logout discards every piece of discovery state and starts a new session.
// It is valid from any state.
func (s *Service) Logout(ctx context.Context) types.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	was := s.userID
	s.logoutLocked(ctx)
	if was != "" {
		metrics.RecordLogout()
		s.logger.Info(ctx, "user logged out", logger.String("user_id", was))
	}
	return s.stateLocked()
}

// SelectPartner opens the detail panel for partnerID. The id must resolve
// in the roster; otherwise nothing changes. Selecting is ignored outside
// the ranked list and history panels.
func (s *Service) SelectPartner(ctx context.Context, partnerID string) (types.State, error) {
	id := strings.TrimSpace(partnerID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLoginLocked(); err != nil {
		return s.stateLocked(), err
	}
	if id == "" {
		metrics.RecordPartnerSelectionMiss()
		return s.stateLocked(), fmt.Errorf("%w: empty partner id", repository.ErrNotFound)
	}
	if !s.nav.Can(navigation.SelectPartner) {
		s.ignoreLocked(ctx, navigation.SelectPartner)
		return s.stateLocked(), nil
	}

	user, err := s.repo.ResolveProfile(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordPartnerSelectionMiss()
		}
		return s.stateLocked(), err
	}

	snapshot, err := s.history.Record(ctx, id)
	if err != nil {
		s.logger.Warn(ctx, "failed to persist partner history", logger.Error(err))
	}
	metrics.UpdateHistorySize(len(snapshot))

	tr, err := s.nav.SelectPartner(id)
	if err != nil {
		return s.stateLocked(), err
	}
	s.recordTransitionLocked(ctx, tr)

	s.seq++
	s.selections++
	s.detail = s.newDetailLocked(ctx, id, user.Name)
	metrics.RecordPartnerSelection()

	job := model.ResolveJob{Seq: s.seq, SelfID: s.userID, PartnerID: id}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.logger.Warn(ctx, "failed to schedule detail resolution",
			logger.String("partner_id", id), logger.Error(err))
		msg := "detail resolution is unavailable, select the partner again"
		s.detail.profile = types.DetailPart[model.User]{Status: types.StatusError, Error: msg}
		s.detail.points = types.DetailPart[model.TalkingPoints]{Status: types.StatusError, Error: msg}
	}

	return s.stateLocked(), nil
}

// Deliver applies a resolution result if it still belongs to the active
// selection and discards it otherwise.
func (s *Service) Deliver(ctx context.Context, res model.ResolveResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.detail
	snap := s.nav.Snapshot()
	if d == nil || res.Job.Seq != s.seq || d.seq != res.Job.Seq ||
		snap.State != navigation.PartnerDetail || snap.SelectedPartnerID != res.Job.PartnerID {
		s.discarded++
		metrics.RecordResolutionDiscarded()
		s.logger.Debug(ctx, "discarding stale detail resolution",
			logger.String("partner_id", res.Job.PartnerID),
			logger.Int("seq", int(res.Job.Seq)),
			logger.Int("current_seq", int(s.seq)))
		return
	}

	d.profile = resolvedPart(res.Profile, res.ProfileErr, "profile not found")
	d.points = resolvedPart(res.TalkingPoints, res.TalkingPointsErr, "no talking points are available for this pair")
}

// ToggleProfile opens or closes the self profile.
func (s *Service) ToggleProfile(ctx context.Context) (types.State, error) {
	return s.navigate(ctx, navigation.ToggleProfile)
}

// ToggleHistory opens or closes the history list.
func (s *Service) ToggleHistory(ctx context.Context) (types.State, error) {
	return s.navigate(ctx, navigation.ToggleHistory)
}

// Back returns to the ranked list from the detail or self profile panel.
func (s *Service) Back(ctx context.Context) (types.State, error) {
	return s.navigate(ctx, navigation.Back)
}

func (s *Service) navigate(ctx context.Context, ev navigation.Event) (types.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLoginLocked(); err != nil {
		return s.stateLocked(), err
	}

	var (
		tr  navigation.Transition
		err error
	)
	switch ev {
	case navigation.ToggleProfile:
		tr, err = s.nav.ToggleProfile()
	case navigation.ToggleHistory:
		tr, err = s.nav.ToggleHistory()
	case navigation.Back:
		tr, err = s.nav.Back()
	default:
		err = fmt.Errorf("%w: %s", navigation.ErrInvalidTransition, ev)
	}
	if err != nil {
		if errors.Is(err, navigation.ErrInvalidTransition) {
			s.ignoreLocked(ctx, ev)
			return s.stateLocked(), nil
		}
		return s.stateLocked(), err
	}

	s.recordTransitionLocked(ctx, tr)
	return s.stateLocked(), nil
}

// Partners returns a fresh ranking of the current user's partners shaped
// for display. showAll bypasses truncation.
func (s *Service) Partners(ctx context.Context, showAll bool) (types.PartnerList, error) {
	userID, err := s.currentUser()
	if err != nil {
		return types.PartnerList{}, err
	}

	summaries, err := s.repo.Load(ctx, userID)
	if err != nil {
		return types.PartnerList{}, err
	}
	s.mu.Lock()
	if s.userID == userID {
		s.partners = len(summaries)
	}
	s.mu.Unlock()

	ranked := ranking.Rank(summaries)
	metrics.RecordPartnersListed(len(ranked))
	return types.NewPartnerList(s.policy.Truncate(ranked, showAll), showAll), nil
}

// History returns the recency cache joined with roster names, most recent
// first. Ids that no longer resolve keep an empty name.
func (s *Service) History(ctx context.Context) ([]types.HistoryItem, error) {
	s.mu.Lock()
	if err := s.requireLoginLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	ids := s.history.Snapshot()
	s.mu.Unlock()

	items := make([]types.HistoryItem, 0, len(ids))
	for _, id := range ids {
		item := types.HistoryItem{ID: id}
		u, err := s.repo.ResolveProfile(ctx, id)
		switch {
		case err == nil:
			item.Name = u.Name
		case errors.Is(err, repository.ErrNotFound):
		default:
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// SelfProfile returns the logged-in user's profile.
func (s *Service) SelfProfile(ctx context.Context) (model.User, error) {
	userID, err := s.currentUser()
	if err != nil {
		return model.User{}, err
	}
	return s.repo.ResolveProfile(ctx, userID)
}

// Detail returns the partner detail panel. Parts that are still resolving
// report a pending status.
func (s *Service) Detail(_ context.Context) (types.Detail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLoginLocked(); err != nil {
		return types.Detail{}, err
	}
	if s.nav.State() != navigation.PartnerDetail || s.detail == nil {
		return types.Detail{}, ErrNoSelection
	}

	d := s.detail
	out := types.Detail{
		PartnerID:     d.partnerID,
		Name:          d.name,
		Profile:       d.profile,
		TalkingPoints: d.points,
	}
	if d.similarity != nil {
		sim := *d.similarity
		pct := similarity.MatchPercent(sim)
		out.Similarity = &sim
		out.MatchPercent = &pct
		out.Band = string(similarity.Classify(sim))
	}
	return out, nil
}

// State returns the navigation snapshot.
func (s *Service) State(_ context.Context) types.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// SessionID returns the current browsing session id.
func (s *Service) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// GetStats returns controller statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) types.Stats {
	s.mu.Lock()
	stats := types.Stats{
		SessionID:       s.sessionID,
		LoggedIn:        s.userID != "",
		Panel:           s.nav.State().String(),
		HistorySize:     s.history.Len(),
		HistoryCapacity: s.history.Capacity(),
		Selections:      s.selections,
		Discarded:       s.discarded,
		QueueLength:     s.queue.Len(),
	}
	if s.started {
		stats.Workers = s.workerCount
	}
	if s.userID != "" {
		stats.Partners = s.partners
	}
	s.mu.Unlock()

	if n, err := s.repo.RosterSize(ctx); err == nil {
		stats.RosterSize = n
	}

	metrics.UpdateHistorySize(stats.HistorySize)
	metrics.UpdateResolverQueueSize(stats.QueueLength)
	return stats
}

func (s *Service) currentUser() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireLoginLocked(); err != nil {
		return "", err
	}
	return s.userID, nil
}

func (s *Service) requireLoginLocked() error {
	if s.userID == "" {
		return ErrNotLoggedIn
	}
	return nil
}

func (s *Service) stateLocked() types.State {
	snap := s.nav.Snapshot()
	return types.State{
		Panel:             snap.State.String(),
		SelectedPartnerID: snap.SelectedPartnerID,
		UserID:            s.userID,
		LoggedIn:          s.userID != "",
	}
}

// onLoginSuccessLocked warms the similarity data for the new user and
// restores any history persisted earlier in this session.
func (s *Service) onLoginSuccessLocked(ctx context.Context) {
	summaries, err := s.repo.Load(ctx, s.userID)
	if err != nil {
		s.logger.Warn(ctx, "partner list unavailable after login",
			logger.String("user_id", s.userID), logger.Error(err))
	}
	s.partners = len(summaries)

	restored, err := s.history.Restore(ctx)
	if err != nil {
		s.logger.Warn(ctx, "failed to restore partner history", logger.Error(err))
	}
	metrics.UpdateHistorySize(len(restored))
}

// resumeLocked picks up a login persisted under the current session id.
func (s *Service) resumeLocked(ctx context.Context) {
	key := session.Key(s.sessionID, identityKeyName)
	raw, ok, err := s.sessions.Get(ctx, key)
	if err != nil {
		s.logger.Warn(ctx, "failed to read persisted identity", logger.Error(err))
		return
	}
	if !ok {
		return
	}

	id := strings.TrimSpace(string(raw))
	if _, err := s.repo.ResolveProfile(ctx, id); err != nil {
		s.logger.Warn(ctx, "persisted identity no longer resolves",
			logger.String("user_id", id), logger.Error(err))
		_ = s.sessions.Delete(ctx, key)
		return
	}
	s.userID = id
	s.onLoginSuccessLocked(ctx)
}

func (s *Service) logoutLocked(ctx context.Context) {
	s.recordTransitionLocked(ctx, s.nav.Logout())

	if err := s.history.Clear(ctx); err != nil {
		s.logger.Warn(ctx, "failed to clear partner history", logger.Error(err))
	}
	if err := s.sessions.Delete(ctx, session.Key(s.sessionID, identityKeyName)); err != nil {
		s.logger.Warn(ctx, "failed to clear identity", logger.Error(err))
	}

	s.userID = ""
	s.partners = 0
	s.detail = nil
	s.seq++
	s.repo.Invalidate()

	s.sessionID = uuid.NewString()
	s.history = s.newHistory()
	metrics.UpdateHistorySize(0)
}

func (s *Service) newHistory() *recency.Cache {
	return recency.New(
		recency.WithCapacity(s.historyCapacity),
		recency.WithStore(s.sessions, session.Key(s.sessionID, historyKeyName)),
	)
}

func (s *Service) newDetailLocked(ctx context.Context, partnerID, name string) *detailState {
	d := &detailState{
		seq:       s.seq,
		partnerID: partnerID,
		name:      name,
		profile:   types.DetailPart[model.User]{Status: types.StatusPending},
		points:    types.DetailPart[model.TalkingPoints]{Status: types.StatusPending},
	}

	summaries, err := s.repo.Load(ctx, s.userID)
	if err != nil {
		return d
	}
	for _, p := range summaries {
		if p.ID == partnerID {
			sim := p.Similarity
			d.similarity = &sim
			if d.name == "" {
				d.name = p.Name
			}
			break
		}
	}
	if d.name == "" {
		d.name = partnerID
	}
	return d
}

func (s *Service) recordTransitionLocked(ctx context.Context, tr navigation.Transition) {
	metrics.RecordNavigationTransition(tr.Event.String(), tr.From.String(), tr.To.String())
	s.logger.Debug(ctx, "navigation",
		logger.String("event", tr.Event.String()),
		logger.String("from", tr.From.String()),
		logger.String("to", tr.To.String()))
}

func (s *Service) ignoreLocked(ctx context.Context, ev navigation.Event) {
	state := s.nav.State().String()
	metrics.RecordInvalidTransition(ev.String(), state)
	s.logger.Debug(ctx, "ignoring navigation event",
		logger.String("event", ev.String()),
		logger.String("state", state))
}

// resolvedPart converts one resolved part into its panel section.
func resolvedPart[T any](v *T, err error, notFound string) types.DetailPart[T] {
	switch {
	case err == nil && v != nil:
		return types.DetailPart[T]{Status: types.StatusReady, Data: v}
	case errors.Is(err, repository.ErrNotFound):
		return types.DetailPart[T]{Status: types.StatusError, Error: notFound}
	case errors.Is(err, repository.ErrDataUnavailable):
		return types.DetailPart[T]{Status: types.StatusError, Error: "data is unavailable, try again later"}
	case errors.Is(err, context.DeadlineExceeded):
		return types.DetailPart[T]{Status: types.StatusError, Error: "timed out"}
	default:
		return types.DetailPart[T]{Status: types.StatusError, Error: "could not be loaded"}
	}
}
