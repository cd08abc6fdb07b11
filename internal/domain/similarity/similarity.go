// Package similarity converts pairing distances into similarity scores and
// classifies them into display bands.
package similarity

import (
	"fmt"
	"math"
)

// Distance bounds for a pairing record.
const (
	MinDistance = 0.0
	MaxDistance = 2.0
)

// Band thresholds, inclusive on the lower edge.
const (
	HighThreshold   = 0.8
	MediumThreshold = 0.6
)

// Band is a presentation class for a similarity value.
type Band string

// Display bands.
const (
	BandHigh     Band = "High"
	BandMedium   Band = "Medium"
	BandModerate Band = "Moderate"
)

// FromDistance returns 1 - distance. Distances outside [0,2] or NaN are rejected.
func FromDistance(distance float64) (float64, error) {
	if err := ValidateDistance(distance); err != nil {
		return 0, err
	}
	return 1 - distance, nil
}

// ValidateDistance reports whether distance lies in [0,2].
func ValidateDistance(distance float64) error {
	if math.IsNaN(distance) || distance < MinDistance || distance > MaxDistance {
		return fmt.Errorf("%w: %v", ErrDistanceOutOfRange, distance)
	}
	return nil
}

// Classify maps a similarity to its band.
func Classify(sim float64) Band {
	switch {
	case sim >= HighThreshold:
		return BandHigh
	case sim >= MediumThreshold:
		return BandMedium
	default:
		return BandModerate
	}
}

// MatchPercent renders similarity as a percentage rounded to one decimal.
func MatchPercent(sim float64) float64 {
	return math.Round(sim*1000) / 10
}
