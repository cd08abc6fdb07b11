package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/rendezvous/internal/dataset"
)

func newVerifyCmd() *cobra.Command {
	var roster, pairs string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a roster and pairing file for faults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds, err := dataset.Read(cmd.Context(), roster, pairs)
			if err != nil {
				return err
			}
			r, err := dataset.Verify(cmd.Context(), ds)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "users: %d\nself ids: %d\npairs: %d\nusers without pairings: %d\n",
				r.Users, r.SelfIDs, r.Pairs, r.WithoutPairings)
			for _, p := range r.Problems {
				fmt.Fprintln(out, "problem:", p)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&roster, "roster", "data/userData.json", "roster path")
	cmd.Flags().StringVar(&pairs, "pairs", "data/pairData.json", "pairing path")
	return cmd
}
