package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nathoo/questrun/cli"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the run without changing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s, cleanup, err := openSession(ctx, cfg, os.Stderr)
			if err != nil {
				return err
			}
			defer cleanup()

			snap, err := s.eng.Snapshot()
			if err != nil {
				return err
			}
			for _, line := range cli.StatusLines(snap, s.eng.Now()) {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}

func newTickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run rollover, the deadline sweep and due timers once",
		Long:  "Run one tick and exit. Suitable for cron when no server is running.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			s, cleanup, err := openSession(ctx, cfg, os.Stderr)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := s.eng.Tick(ctx)
			if err != nil {
				return err
			}
			for _, line := range res.Output {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}
