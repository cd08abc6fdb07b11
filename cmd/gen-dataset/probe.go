package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/rendezvous/internal/dataset"
)

func newProbeCmd() *cobra.Command {
	cfg := dataset.ProbeConfig{}
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Walk a running service as one user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.UserID == "" {
				return fmt.Errorf("%w: --user is required", dataset.ErrInvalidConfig)
			}
			r, err := dataset.Probe(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s: %d partners, opened %s (profile %s, talking points %s) in %s\n",
				r.UserID, r.Partners, r.Selected, r.ProfileStatus, r.PointsStatus, r.Duration)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	f.StringVar(&cfg.UserID, "user", "", "roster id to log in as")
	f.DurationVar(&cfg.Timeout, "timeout", dataset.DefaultTimeout, "per request timeout")
	f.DurationVar(&cfg.DetailWait, "detail-wait", dataset.DefaultDetailWait, "how long to wait for a resolved detail")
	return cmd
}
