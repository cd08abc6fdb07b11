package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/rendezvous/internal/dataset"
)

func newGenerateCmd() *cobra.Command {
	cfg := dataset.Config{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic roster and pairing file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := dataset.Generate(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := dataset.Write(cmd.Context(), ds, cfg.RosterOut, cfg.PairsOut); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d users to %s and their pairings to %s\n",
				len(ds.Users), cfg.RosterOut, cfg.PairsOut)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&cfg.Users, "users", dataset.DefaultUsers, "number of roster users")
	f.Int64Var(&cfg.Seed, "seed", 1, "random seed")
	f.IntVar(&cfg.MaxBadges, "max-badges", dataset.DefaultMaxBadges, "research interests per user")
	f.Float64Var(&cfg.MaxDistance, "max-distance", dataset.DefaultMaxDistance, "upper bound for distances, at most 2")
	f.StringVar(&cfg.RosterOut, "roster", "data/userData.json", "roster output path")
	f.StringVar(&cfg.PairsOut, "pairs", "data/pairData.json", "pairing output path")
	return cmd
}
