package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/rendezvous/internal/domain/model"
)

// ID is a roster identifier that may be encoded as a JSON string or number.
type ID string

// UnmarshalJSON accepts "17", 17 and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*id = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%w: id must be a string or a number, got %s", ErrMalformed, b)
	}
	*id = ID(n.String())
	return nil
}

// BadgeRecord is a research interest as stored in the roster file.
type BadgeRecord struct {
	Title           string `json:"research_interest_title"`
	LongDescription string `json:"research_interest_long_description"`
	Icon            string `json:"font_awesome_icon"`
}

// BadgeSet groups the badges of one user.
type BadgeSet struct {
	ResearchInterests []BadgeRecord `json:"research_interests"`
}

// UserRecord is one roster file entry.
type UserRecord struct {
	ID          ID       `json:"ID"`
	Name        string   `json:"Name"`
	Position    string   `json:"Position"`
	Affiliation string   `json:"Affiliation"`
	Badges      BadgeSet `json:"researcher_badges"`
}

// User converts the record into the domain model.
func (r UserRecord) User() model.User {
	badges := make([]model.Badge, 0, len(r.Badges.ResearchInterests))
	for _, b := range r.Badges.ResearchInterests {
		badges = append(badges, model.Badge{
			Title:           b.Title,
			LongDescription: b.LongDescription,
			IconRef:         b.Icon,
		})
	}
	return model.User{
		ID:                string(r.ID),
		Name:              r.Name,
		Position:          r.Position,
		Affiliation:       r.Affiliation,
		ResearchInterests: badges,
	}
}

// RecordFromUser converts a domain user into its roster file form.
func RecordFromUser(u model.User) UserRecord {
	badges := make([]BadgeRecord, 0, len(u.ResearchInterests))
	for _, b := range u.ResearchInterests {
		badges = append(badges, BadgeRecord{Title: b.Title, LongDescription: b.LongDescription, Icon: b.IconRef})
	}
	return UserRecord{
		ID:          ID(u.ID),
		Name:        u.Name,
		Position:    u.Position,
		Affiliation: u.Affiliation,
		Badges:      BadgeSet{ResearchInterests: badges},
	}
}

// DecodeRoster parses a roster file.
func DecodeRoster(data []byte) ([]model.User, error) {
	var records []UserRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: roster: %w", ErrMalformed, err)
	}
	users := make([]model.User, 0, len(records))
	for _, r := range records {
		users = append(users, r.User())
	}
	return users, nil
}

// PairEntry is one partner under a self id in the pairing file.
type PairEntry struct {
	PartnerID        string   `json:"-"`
	Name             string   `json:"name"`
	Distance         float64  `json:"distance"`
	OpeningLine      string   `json:"opening_line"`
	DiscussionPoints []string `json:"discussion_points"`
}

// Pairings is the pairing file keyed by self id then partner id. Ranking
// ties fall back to key order, which follows object property order: keys
// that are array indices come first in ascending numeric order, then the
// remaining keys in file order.
type Pairings struct {
	selfIDs []string
	entries map[string][]PairEntry
	index   map[string]map[string]int
}

// NewPairings returns an empty table.
func NewPairings() *Pairings {
	return &Pairings{
		entries: make(map[string][]PairEntry),
		index:   make(map[string]map[string]int),
	}
}

func (p *Pairings) ensure(selfID string) {
	if _, ok := p.index[selfID]; ok {
		return
	}
	p.selfIDs = append(p.selfIDs, selfID)
	p.index[selfID] = make(map[string]int)
}

// Add appends e under selfID. A repeated partner id replaces the earlier
// entry in place.
func (p *Pairings) Add(selfID string, e PairEntry) {
	p.ensure(selfID)
	if i, ok := p.index[selfID][e.PartnerID]; ok {
		p.entries[selfID][i] = e
		return
	}
	p.index[selfID][e.PartnerID] = len(p.entries[selfID])
	p.entries[selfID] = append(p.entries[selfID], e)
}

// Partners returns the entries of selfID in file order.
func (p *Pairings) Partners(selfID string) []PairEntry {
	return p.entries[selfID]
}

// Lookup returns the entry for the ordered pair.
func (p *Pairings) Lookup(selfID, partnerID string) (PairEntry, bool) {
	i, ok := p.index[selfID][partnerID]
	if !ok {
		return PairEntry{}, false
	}
	return p.entries[selfID][i], true
}

// SelfIDs returns every self id in file order.
func (p *Pairings) SelfIDs() []string {
	return p.selfIDs
}

// sortKeys moves array index keys ahead of the others in numeric order.
func (p *Pairings) sortKeys() {
	sort.SliceStable(p.selfIDs, func(i, j int) bool {
		return indexKeyLess(p.selfIDs[i], p.selfIDs[j])
	})
	for selfID, entries := range p.entries {
		sort.SliceStable(entries, func(i, j int) bool {
			return indexKeyLess(entries[i].PartnerID, entries[j].PartnerID)
		})
		for i, e := range entries {
			p.index[selfID][e.PartnerID] = i
		}
	}
}

func indexKeyLess(a, b string) bool {
	na, aok := arrayIndex(a)
	nb, bok := arrayIndex(b)
	switch {
	case aok && bok:
		return na < nb
	default:
		return aok && !bok
	}
}

// arrayIndex reports whether key is a canonical unsigned integer below
// 2^32-1.
func arrayIndex(key string) (uint64, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || n == 1<<32-1 {
		return 0, false
	}
	return n, true
}

// UnmarshalJSON streams the nested object so key order survives.
func (p *Pairings) UnmarshalJSON(data []byte) error {
	*p = *NewPairings()
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		selfID, err := readKey(dec)
		if err != nil {
			return err
		}
		p.ensure(selfID)
		if err := expectDelim(dec, '{'); err != nil {
			return err
		}
		for dec.More() {
			partnerID, err := readKey(dec)
			if err != nil {
				return err
			}
			var e PairEntry
			if err := dec.Decode(&e); err != nil {
				return fmt.Errorf("pair %s/%s: %w", selfID, partnerID, err)
			}
			e.PartnerID = partnerID
			p.Add(selfID, e)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	p.sortKeys()
	return nil
}

// MarshalJSON writes the table in insertion order.
func (p *Pairings) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, selfID := range p.selfIDs {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, selfID); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for j, e := range p.entries[selfID] {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, e.PartnerID); err != nil {
				return nil, err
			}
			raw, err := json.Marshal(e)
			if err != nil {
				return nil, err
			}
			buf.Write(raw)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodePairings parses a pairing file.
func DecodePairings(data []byte) (*Pairings, error) {
	p := NewPairings()
	if err := p.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("%w: pairings: %w", ErrMalformed, err)
	}
	return p, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return strings.TrimSpace(key), nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	raw, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(raw)
	buf.WriteByte(':')
	return nil
}
