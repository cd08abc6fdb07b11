package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/okian/rendezvous/internal/domain/similarity"
	"github.com/okian/rendezvous/pkg/logger"
)

// maxProblems caps the problems kept in a report.
const maxProblems = 50

// Verify checks a dataset for the faults the service would trip over:
// distances outside [0,2], pairings that name users missing from the
// roster, self pairings and duplicate roster ids. Users with no pairing
// entry are counted but allowed.
func Verify(ctx context.Context, ds *Dataset) (Report, error) {
	r := Report{Users: len(ds.Users)}
	problem := func(format string, args ...any) {
		if len(r.Problems) < maxProblems {
			r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
		}
	}

	roster := make(map[string]bool, len(ds.Users))
	for _, u := range ds.Users {
		switch {
		case u.ID == "":
			problem("roster entry %q has no id", u.Name)
		case roster[u.ID]:
			problem("duplicate roster id %s", u.ID)
		}
		roster[u.ID] = true
	}

	paired := make(map[string]bool)
	if ds.Pairings != nil {
		for _, selfID := range ds.Pairings.SelfIDs() {
			entries := ds.Pairings.Partners(selfID)
			if len(entries) > 0 {
				paired[selfID] = true
			}
			r.SelfIDs++
			if !roster[selfID] {
				problem("pairings for %s who is not on the roster", selfID)
			}
			for _, e := range entries {
				r.Pairs++
				if e.PartnerID == selfID {
					problem("%s is paired with themselves", selfID)
				}
				if !roster[e.PartnerID] {
					problem("pair %s/%s names a partner missing from the roster", selfID, e.PartnerID)
				}
				if err := similarity.ValidateDistance(e.Distance); err != nil {
					problem("pair %s/%s: %v", selfID, e.PartnerID, err)
				}
			}
		}
	}
	for id := range roster {
		if !paired[id] {
			r.WithoutPairings++
		}
	}

	log := logger.GetOrNop()
	if len(r.Problems) > 0 {
		log.Warn(ctx, "dataset has problems",
			logger.Int("problems", len(r.Problems)),
			logger.String("first", r.Problems[0]))
		return r, fmt.Errorf("%w: %w", ErrInvalid, errors.New(r.Problems[0]))
	}
	log.Info(ctx, "dataset verified",
		logger.Int("users", r.Users),
		logger.Int("pairs", r.Pairs),
		logger.Int("without_pairings", r.WithoutPairings))
	return r, nil
}

func marshalIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
