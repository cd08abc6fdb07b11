// Package types contains the view shapes shared by the controller and the
// HTTP layer.
package types

import (
	"github.com/okian/rendezvous/internal/domain/model"
	"github.com/okian/rendezvous/internal/domain/ranking"
	"github.com/okian/rendezvous/internal/domain/similarity"
)

// PartnerRow is one rendered line of the ranked list. Separator rows only
// carry Hidden.
type PartnerRow struct {
	ID           string  `json:"id,omitempty"`
	Name         string  `json:"name,omitempty"`
	Similarity   float64 `json:"similarity"`
	MatchPercent float64 `json:"match_percent"`
	Band         string  `json:"band,omitempty"`
	Separator    bool    `json:"separator,omitempty"`
	Hidden       int     `json:"hidden,omitempty"`
}

// PartnerList is the ranked list as served to clients.
type PartnerList struct {
	Rows      []PartnerRow `json:"rows"`
	Total     int          `json:"total"`
	Truncated bool         `json:"truncated"`
	ShowAll   bool         `json:"show_all"`
}

// NewPartnerList converts a display list into rows with bands and percentages.
func NewPartnerList(d ranking.DisplayList, showAll bool) PartnerList {
	rows := make([]PartnerRow, 0, len(d.Rows))
	for _, r := range d.Rows {
		if r.Separator {
			rows = append(rows, PartnerRow{Separator: true, Hidden: r.Hidden})
			continue
		}
		rows = append(rows, PartnerRow{
			ID:           r.Partner.ID,
			Name:         r.Partner.Name,
			Similarity:   r.Partner.Similarity,
			MatchPercent: similarity.MatchPercent(r.Partner.Similarity),
			Band:         string(similarity.Classify(r.Partner.Similarity)),
		})
	}
	return PartnerList{Rows: rows, Total: d.Total, Truncated: d.Truncated, ShowAll: showAll}
}

// HistoryItem is one recency cache entry joined with the roster. Name is
// empty when the id no longer resolves.
type HistoryItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PartStatus is the resolution state of one part of the detail panel.
type PartStatus string

// Part statuses.
const (
	StatusPending PartStatus = "pending"
	StatusReady   PartStatus = "ready"
	StatusError   PartStatus = "error"
)

// DetailPart is a section of the detail panel that resolves on its own.
type DetailPart[T any] struct {
	Status PartStatus `json:"status"`
	Data   *T         `json:"data,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// Detail is the partner detail panel. Similarity fields are absent when
// the partner has no pairing record with the current user.
type Detail struct {
	PartnerID     string                          `json:"partner_id"`
	Name          string                          `json:"name"`
	Similarity    *float64                        `json:"similarity,omitempty"`
	MatchPercent  *float64                        `json:"match_percent,omitempty"`
	Band          string                          `json:"band,omitempty"`
	Profile       DetailPart[model.User]          `json:"profile"`
	TalkingPoints DetailPart[model.TalkingPoints] `json:"talking_points"`
}

// State is the navigation snapshot.
type State struct {
	Panel             string `json:"panel"`
	SelectedPartnerID string `json:"selected_partner_id,omitempty"`
	UserID            string `json:"user_id,omitempty"`
	LoggedIn          bool   `json:"logged_in"`
}

// Stats summarises the controller.
type Stats struct {
	SessionID       string `json:"session_id"`
	LoggedIn        bool   `json:"logged_in"`
	Panel           string `json:"panel"`
	RosterSize      int    `json:"roster_size"`
	Partners        int    `json:"partners"`
	HistorySize     int    `json:"history_size"`
	HistoryCapacity int    `json:"history_capacity"`
	Selections      uint64 `json:"selections"`
	Discarded       uint64 `json:"discarded_results"`
	QueueLength     int    `json:"queue_length"`
	Workers         int    `json:"workers"`
}
