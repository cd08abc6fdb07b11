package dataset

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/rendezvous/internal/adapters/repository"
	"github.com/okian/rendezvous/internal/domain/model"
	"github.com/okian/rendezvous/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o640
)

var (
	firstNames = []string{"Ada", "Grace", "Alan", "Edsger", "Barbara", "Donald", "Frances", "Ken", "Radia", "Leslie", "Margaret", "Niklaus"}
	lastNames  = []string{"Lovelace", "Hopper", "Turing", "Dijkstra", "Liskov", "Knuth", "Allen", "Thompson", "Perlman", "Lamport", "Hamilton", "Wirth"}
	positions  = []string{"PhD Student", "Postdoc", "Assistant Professor", "Associate Professor", "Professor", "Research Scientist"}
	affiliates = []string{"ETH Zurich", "MIT", "University of Tokyo", "TU Delft", "University of Cape Town", "McGill University"}
	interests  = []model.Badge{
		{Title: "Distributed Systems", LongDescription: "Consensus, replication and fault tolerance.", IconRef: "fa-network-wired"},
		{Title: "Machine Learning", LongDescription: "Statistical learning and representation learning.", IconRef: "fa-brain"},
		{Title: "Programming Languages", LongDescription: "Type systems, semantics and compilers.", IconRef: "fa-code"},
		{Title: "Human Computer Interaction", LongDescription: "Interfaces, usability and user studies.", IconRef: "fa-hand-pointer"},
		{Title: "Computational Biology", LongDescription: "Genomics, protein folding and systems biology.", IconRef: "fa-dna"},
		{Title: "Security", LongDescription: "Cryptography, privacy and secure systems.", IconRef: "fa-lock"},
		{Title: "Databases", LongDescription: "Query processing, storage engines and transactions.", IconRef: "fa-database"},
		{Title: "Robotics", LongDescription: "Planning, control and perception.", IconRef: "fa-robot"},
	}
)

// Dataset is a roster and its pairing table.
type Dataset struct {
	Users    []model.User
	Pairings *repository.Pairings
}

func (c Config) validate() error {
	switch {
	case c.Users < 2:
		return fmt.Errorf("%w: need at least two users, got %d", ErrInvalidConfig, c.Users)
	case c.MaxBadges < 1:
		return fmt.Errorf("%w: max badges must be positive", ErrInvalidConfig)
	case c.MaxDistance <= 0 || c.MaxDistance > 2:
		return fmt.Errorf("%w: max distance must be in (0,2], got %v", ErrInvalidConfig, c.MaxDistance)
	}
	return nil
}

// Generate builds a deterministic dataset from cfg.Seed. Every user is
// paired with every other user; distances are symmetric and talking points
// are written from the pair's shared interests.
func Generate(ctx context.Context, cfg Config) (*Dataset, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible fixtures, not secrets

	users := make([]model.User, cfg.Users)
	for i := range users {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return nil, fmt.Errorf("user id: %w", err)
		}
		users[i] = model.User{
			ID:                id.String(),
			Name:              firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))],
			Position:          positions[rng.Intn(len(positions))],
			Affiliation:       affiliates[rng.Intn(len(affiliates))],
			ResearchInterests: pickBadges(rng, cfg.MaxBadges),
		}
	}

	distances := make([][]float64, len(users))
	for i := range distances {
		distances[i] = make([]float64, len(users))
	}
	for i := range users {
		for j := i + 1; j < len(users); j++ {
			d := roundDistance(rng.Float64() * cfg.MaxDistance)
			distances[i][j], distances[j][i] = d, d
		}
	}

	pairs := repository.NewPairings()
	for i, self := range users {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j, partner := range users {
			if i == j {
				continue
			}
			opening, points := talkingPoints(self, partner)
			pairs.Add(self.ID, repository.PairEntry{
				PartnerID:        partner.ID,
				Name:             partner.Name,
				Distance:         distances[i][j],
				OpeningLine:      opening,
				DiscussionPoints: points,
			})
		}
	}

	logger.GetOrNop().Info(ctx, "generated dataset",
		logger.Int("users", len(users)),
		logger.Int("pairs", len(users)*(len(users)-1)))
	return &Dataset{Users: users, Pairings: pairs}, nil
}

func pickBadges(rng *rand.Rand, maxBadges int) []model.Badge {
	n := 1 + rng.Intn(min(maxBadges, len(interests)))
	picked := make([]model.Badge, 0, n)
	for _, i := range rng.Perm(len(interests))[:n] {
		picked = append(picked, interests[i])
	}
	return picked
}

func roundDistance(d float64) float64 {
	return math.Round(d*10000) / 10000
}

func talkingPoints(self, partner model.User) (string, []string) {
	mine := make(map[string]bool, len(self.ResearchInterests))
	for _, b := range self.ResearchInterests {
		mine[b.Title] = true
	}
	var shared []string
	for _, b := range partner.ResearchInterests {
		if mine[b.Title] {
			shared = append(shared, b.Title)
		}
	}

	if len(shared) == 0 {
		return fmt.Sprintf("Hi %s, what brings you from %s to the conference?", partner.Name, partner.Affiliation),
			[]string{fmt.Sprintf("How %s work could meet %s", firstInterest(partner), firstInterest(self))}
	}
	points := make([]string, 0, len(shared))
	for _, t := range shared {
		points = append(points, "Open problems in "+t)
	}
	return fmt.Sprintf("Hi %s, I hear you also work on %s.", partner.Name, shared[0]), points
}

func firstInterest(u model.User) string {
	if len(u.ResearchInterests) == 0 {
		return "your"
	}
	return u.ResearchInterests[0].Title
}

// Write stores ds as a roster file and a pairing file. The two files are
// written concurrently.
func Write(ctx context.Context, ds *Dataset, rosterPath, pairsPath string) error {
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		records := make([]repository.UserRecord, 0, len(ds.Users))
		for _, u := range ds.Users {
			records = append(records, repository.RecordFromUser(u))
		}
		raw, err := marshalIndent(records)
		if err != nil {
			return fmt.Errorf("roster: %w", err)
		}
		return writeFile(rosterPath, raw)
	})
	g.Go(func() error {
		raw, err := ds.Pairings.MarshalJSON()
		if err != nil {
			return fmt.Errorf("pairings: %w", err)
		}
		return writeFile(pairsPath, raw)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	logger.GetOrNop().Info(ctx, "dataset written",
		logger.String("roster", rosterPath),
		logger.String("pairs", pairsPath))
	return nil
}

// Read loads a dataset back from its two files.
func Read(ctx context.Context, rosterPath, pairsPath string) (*Dataset, error) {
	var ds Dataset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := repository.NewFileSource(rosterPath).Fetch(gctx)
		if err != nil {
			return err
		}
		ds.Users, err = repository.DecodeRoster(raw)
		return err
	})
	g.Go(func() error {
		raw, err := repository.NewFileSource(pairsPath).Fetch(gctx)
		if err != nil {
			return err
		}
		ds.Pairings, err = repository.DecodePairings(raw)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ds, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, filePermission); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
