// Package root holds the questrun command tree.
package root

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "questrun",
	Short: "A life-gamification run engine",
	Long: "questrun turns a to-do list into a roguelike run: quests pay XP and gold, " +
		"failures feed a rival, too much damage triggers a lockdown and zero HP ends the run.\n\n" +
		"Configuration comes from QUESTRUN_* environment variables.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree and exits non-zero on error.
func Execute(version, commit, date string) {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	rootCmd.AddCommand(
		newPlayCmd(),
		newDoCmd(),
		newStatusCmd(),
		newTickCmd(),
		newServeCmd(),
		newVersionCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
