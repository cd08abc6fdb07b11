package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/rendezvous/pkg/logger"
)

func newRootCmd() *cobra.Command {
	var (
		level  string
		format string
	)
	root := &cobra.Command{
		Use:          "gen-dataset",
		Short:        "Generate and check roster and pairing datasets",
		SilenceUsage: true,
		Long: `gen-dataset writes synthetic roster and pairing files for the discovery
service, verifies existing files, and probes a running service end to end.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr()), logger.WithFormat(format)); err != nil {
				return err
			}
			return logger.SetLevelString(level)
		},
	}
	root.PersistentFlags().StringVar(&level, "log-level", "info", "debug, info, warn or error")
	root.PersistentFlags().StringVar(&format, "log-format", "text", "text or json")

	root.AddCommand(newGenerateCmd(), newVerifyCmd(), newProbeCmd())
	return root
}
