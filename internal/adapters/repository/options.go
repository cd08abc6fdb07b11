package repository

import "github.com/okian/rendezvous/pkg/logger"

// Option applies a configuration option to the DatasetStore.
type Option func(*DatasetStore)

// WithLogger sets the logger used for dataset warnings.
func WithLogger(l logger.Logger) Option {
	return func(s *DatasetStore) {
		if l != nil {
			s.log = l
		}
	}
}
