package service

import (
	"strings"

	"github.com/okian/rendezvous/internal/adapters/session"
	"github.com/okian/rendezvous/internal/domain/ranking"
	"github.com/okian/rendezvous/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of resolver workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the resolution queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithHistoryCapacity bounds the recency cache.
func WithHistoryCapacity(capacity int) Option {
	return func(s *Service) {
		if capacity > 0 {
			s.historyCapacity = capacity
		}
	}
}

// WithDisplayPolicy sets how long partner lists are truncated.
func WithDisplayPolicy(head, tail int) Option {
	return func(s *Service) {
		s.policy = ranking.NewPolicy(ranking.WithHead(head), ranking.WithTail(tail))
	}
}

// WithSessionStore sets the session-scoped store. Defaults to an in-process cache.
func WithSessionStore(store session.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.sessions = store
		}
	}
}

// WithSessionID resumes an existing browsing session instead of starting a new one.
func WithSessionID(id string) Option {
	return func(s *Service) {
		if id = strings.TrimSpace(id); id != "" {
			s.sessionID = id
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
