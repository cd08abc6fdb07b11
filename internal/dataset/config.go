// Package dataset generates, verifies and probes the roster and pairing
// datasets the discovery service reads.
package dataset

import "time"

// Defaults for generated datasets.
const (
	DefaultUsers       = 40
	DefaultMaxBadges   = 3
	DefaultMaxDistance = 1.2
	DefaultTimeout     = 5 * time.Second
	DefaultDetailWait  = 3 * time.Second
)

// Config holds the knobs of a generation run.
type Config struct {
	Users       int     // roster size
	Seed        int64   // same seed, same dataset
	MaxBadges   int     // research interests per user, at least one
	MaxDistance float64 // upper bound for generated distances, at most 2
	RosterOut   string  // roster file path
	PairsOut    string  // pairing file path
}

// ProbeConfig holds the knobs of a probe run against a live service.
type ProbeConfig struct {
	BaseURL    string
	UserID     string
	Timeout    time.Duration // per request
	DetailWait time.Duration // how long to poll for a resolved detail
}

// Report summarises a verification pass.
type Report struct {
	Users           int
	SelfIDs         int
	Pairs           int
	WithoutPairings int
	Problems        []string
}

// ProbeReport summarises a probe run.
type ProbeReport struct {
	UserID        string
	Partners      int
	Truncated     bool
	Selected      string
	ProfileStatus string
	PointsStatus  string
	History       int
	Duration      time.Duration
}
