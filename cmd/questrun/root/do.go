package root

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nathoo/questrun/cli"
)

func newDoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "do <command> [args...]",
		Short: "Run one run command and exit",
		Long: "Run one command from the play prompt, for example:\n\n" +
			"  questrun do add Write the report d=3 skill=Writing due=4h\n" +
			"  questrun do done write-the-report\n\n" +
			"Pending timers are flushed before exit.",
		Args:               cobra.MinimumNArgs(1),
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "-h" || args[0] == "--help" {
				return cmd.Help()
			}
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

			if _, err := s.eng.Login(ctx); err != nil {
				return err
			}
			res, execErr := cli.Exec(ctx, s.eng, strings.Join(args, " "))
			for _, line := range res.Output {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			flushed, err := s.eng.Flush(ctx)
			if err != nil {
				return err
			}
			for _, line := range flushed.Output {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			if execErr != nil {
				return errors.New(cli.Describe(execErr))
			}
			return nil
		},
	}
	return cmd
}
