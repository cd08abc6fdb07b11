// Package model contains domain models passed between layers.
package model

// Badge is one research interest shown on a profile.
type Badge struct {
	Title           string `json:"title"`
	LongDescription string `json:"long_description"`
	IconRef         string `json:"icon_ref"`
}

// User is an attendee profile. Immutable once the roster is loaded.
type User struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Position          string  `json:"position"`
	Affiliation       string  `json:"affiliation"`
	ResearchInterests []Badge `json:"research_interests"`
}

// PairingRecord is the precomputed distance between the logged-in user and
// one partner. Distance is in [0,2].
type PairingRecord struct {
	SelfID    string
	PartnerID string
	Distance  float64
}

// PartnerSummary is derived from a PairingRecord joined with the roster.
// Similarity is 1 - distance and is never stored on its own.
type PartnerSummary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

// TalkingPoints is the conversational aid precomputed for an ordered pair.
type TalkingPoints struct {
	OpeningLine      string   `json:"opening_line"`
	DiscussionPoints []string `json:"discussion_points"`
}

// ResolveJob asks for the detail payload of one selection. Seq identifies
// the selection that issued it so late results can be recognised.
type ResolveJob struct {
	Seq       uint64
	SelfID    string
	PartnerID string
}

// ResolveResult carries whatever parts of a detail payload resolved.
// Each part fails independently.
type ResolveResult struct {
	Job              ResolveJob
	Profile          *User
	ProfileErr       error
	TalkingPoints    *TalkingPoints
	TalkingPointsErr error
}
