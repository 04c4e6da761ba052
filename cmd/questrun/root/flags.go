package root

import (
	"github.com/spf13/cobra"

	"github.com/nathoo/questrun/config"
)

// overrides are persistent flags that win over QUESTRUN_* variables.
var overrides struct {
	store    string
	state    string
	logLevel string
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&overrides.store, "store", "", "state backend: memory, file, sqlite or postgres (default $QUESTRUN_STORE)")
	f.StringVar(&overrides.state, "state", "", "run file path (default $QUESTRUN_STATE_PATH)")
	f.StringVar(&overrides.logLevel, "log-level", "", "debug, info, warn or error (default $QUESTRUN_LOG_LEVEL)")
}

// loadConfig reads the environment, applies flags that were set on the
// command line and validates the result.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.StoreBackend = overrides.store
	}
	if flags.Changed("state") {
		cfg.StatePath = overrides.state
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = overrides.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
