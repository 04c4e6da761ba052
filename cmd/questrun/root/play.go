package root

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nathoo/questrun/cli"
	"github.com/nathoo/questrun/tui"
)

func newPlayCmd() *cobra.Command {
	var (
		plain  bool
		trace  bool
		script string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Open the run dashboard (or a plain prompt)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			interactive := script == "" && !plain && isTerminal()

			// The dashboard owns the screen, so its logs go to a file.
			logOut := io.Writer(os.Stderr)
			if interactive {
				f, err := openLogFile(cfg.DataDir())
				if err != nil {
					return err
				}
				defer f.Close()
				logOut = f
			}

			s, cleanup, err := openSession(ctx, cfg, logOut)
			if err != nil {
				return err
			}
			defer cleanup()
			exportDir := filepath.Join(s.cfg.DataDir(), "exports")

			if interactive {
				return tui.Run(ctx, s.eng, tui.Options{
					TickInterval: s.cfg.TickInterval,
					HistoryPath:  filepath.Join(s.cfg.DataDir(), "history"),
					ExportDir:    exportDir,
				})
			}

			c := cli.New(s.eng)
			c.Out = cmd.OutOrStdout()
			c.ExportDir = exportDir
			c.Trace = trace
			if script != "" {
				f, err := os.Open(script)
				if err != nil {
					return fmt.Errorf("opening script: %w", err)
				}
				defer f.Close()
				c.In = f
				c.EchoInput = true
			}
			return c.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "use a line prompt instead of the dashboard")
	cmd.Flags().BoolVar(&trace, "trace", false, "show rejection details")
	cmd.Flags().StringVar(&script, "script", "", "read commands from a file (implies --plain)")
	return cmd
}

// openLogFile opens the dashboard log in dir.
func openLogFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "questrun.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
