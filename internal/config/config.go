// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and RENDEZVOUS_* environment variables on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"time"
)

// Session backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RosterSource and PairsSource locate the datasets: a file path or an http(s) URL.
	RosterSource string `koanf:"roster_source"`
	PairsSource  string `koanf:"pairs_source"`

	// SourceTimeoutMS bounds a single dataset fetch.
	SourceTimeoutMS int `koanf:"source_timeout_ms"`

	// HistoryCapacity bounds the recency cache.
	HistoryCapacity int `koanf:"history_capacity"`

	// DisplayHead and DisplayTail shape the truncated partner list.
	DisplayHead int `koanf:"display_head"`
	DisplayTail int `koanf:"display_tail"`

	// SessionBackend selects the session-scoped store: memory or redis.
	SessionBackend string `koanf:"session_backend"`

	// SessionTTLMinutes is how long session-scoped values live without being rewritten.
	SessionTTLMinutes int `koanf:"session_ttl_minutes"`

	// SessionID resumes a persisted browsing session. Empty starts a new one.
	SessionID string `koanf:"session_id"`

	// RedisURL is required when SessionBackend is redis.
	RedisURL string `koanf:"redis_url"`

	// ResolverWorkers and ResolverQueueSize size the detail resolution pool.
	ResolverWorkers   int `koanf:"resolver_workers"`
	ResolverQueueSize int `koanf:"resolver_queue_size"`

	// MetricsEnabled turns counter and histogram recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsRefreshSeconds is how often gauges derived from stats are refreshed.
	MetricsRefreshSeconds int `koanf:"metrics_refresh_seconds"`

	// MetricsLatencyBucketsMS overrides the latency histogram buckets. Empty keeps the defaults.
	MetricsLatencyBucketsMS []float64 `koanf:"metrics_latency_buckets_ms"`

	// MetricsLabels are constant labels added to every series, e.g. the conference name.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		RosterSource:      "data/userData.json",
		PairsSource:       "data/pairData.json",
		SourceTimeoutMS:   5_000,
		HistoryCapacity:   10,
		DisplayHead:       5,
		DisplayTail:       3,
		SessionBackend:    SessionBackendMemory,
		SessionTTLMinutes: 720,
		ResolverWorkers:   2,
		ResolverQueueSize: 64,

		MetricsEnabled:        true,
		MetricsNamespace:      "rendezvous",
		MetricsSubsystem:      "discovery",
		MetricsRefreshSeconds: 10,
	}
}

// SourceTimeout returns SourceTimeoutMS as a duration.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.SourceTimeoutMS) * time.Millisecond
}

// MetricsRefresh returns MetricsRefreshSeconds as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshSeconds) * time.Second
}

// SessionTTL returns SessionTTLMinutes as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}
