// Package ranking orders partner summaries by similarity and shapes them
// into the head/tail display list.
package ranking

import (
	"sort"

	"github.com/okian/rendezvous/internal/domain/model"
)

// Default display policy.
const (
	DefaultHead = 5
	DefaultTail = 3
)

// Row is one line of a display list: either a partner or the separator
// standing in for the hidden middle of the ranking.
type Row struct {
	Partner   model.PartnerSummary
	Separator bool
	Hidden    int
}

// DisplayList is the render-ready view of a ranking.
type DisplayList struct {
	Rows      []Row
	Total     int
	Truncated bool
}

// Partners returns the partner rows, skipping any separator.
func (d DisplayList) Partners() []model.PartnerSummary {
	out := make([]model.PartnerSummary, 0, len(d.Rows))
	for _, r := range d.Rows {
		if !r.Separator {
			out = append(out, r.Partner)
		}
	}
	return out
}

// Rank returns a copy of summaries sorted by similarity descending. Equal
// similarities keep their input order so repeated renders are identical.
func Rank(summaries []model.PartnerSummary) []model.PartnerSummary {
	ranked := make([]model.PartnerSummary, len(summaries))
	copy(ranked, summaries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})
	return ranked
}

// Policy truncates long rankings to the strongest head entries, a separator
// and the weakest tail entries.
type Policy struct {
	head int
	tail int
}

// Option applies a configuration option to a Policy.
type Option func(*Policy)

// WithHead sets how many leading entries survive truncation.
func WithHead(n int) Option {
	return func(p *Policy) {
		if n >= 0 {
			p.head = n
		}
	}
}

// WithTail sets how many trailing entries survive truncation.
func WithTail(n int) Option {
	return func(p *Policy) {
		if n >= 0 {
			p.tail = n
		}
	}
}

// NewPolicy creates a display policy, head-5/tail-3 unless overridden.
func NewPolicy(opts ...Option) Policy {
	p := Policy{head: DefaultHead, tail: DefaultTail}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Threshold is the largest list length shown without truncation.
func (p Policy) Threshold() int { return p.head + p.tail }

// Truncate shapes an already ranked list. showAll bypasses truncation.
func (p Policy) Truncate(ranked []model.PartnerSummary, showAll bool) DisplayList {
	n := len(ranked)
	if showAll || n <= p.Threshold() {
		rows := make([]Row, n)
		for i, s := range ranked {
			rows[i] = Row{Partner: s}
		}
		return DisplayList{Rows: rows, Total: n}
	}

	rows := make([]Row, 0, p.Threshold()+1)
	for _, s := range ranked[:p.head] {
		rows = append(rows, Row{Partner: s})
	}
	rows = append(rows, Row{Separator: true, Hidden: n - p.Threshold()})
	for _, s := range ranked[n-p.tail:] {
		rows = append(rows, Row{Partner: s})
	}
	return DisplayList{Rows: rows, Total: n, Truncated: true}
}

// TruncateForDisplay applies the default head-5/tail-3 policy.
func TruncateForDisplay(ranked []model.PartnerSummary, showAll bool) DisplayList {
	return NewPolicy().Truncate(ranked, showAll)
}
