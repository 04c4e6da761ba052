// Package config loads questrun settings from QUESTRUN_* environment
// variables.
package config

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the runtime configuration.
type Config struct {
	StoreBackend string        `env:"QUESTRUN_STORE" envDefault:"file"`
	StatePath    string        `env:"QUESTRUN_STATE_PATH" envDefault:"questrun-data/run.json"`
	SQLitePath   string        `env:"QUESTRUN_SQLITE_PATH" envDefault:"questrun-data/run.sqlite"`
	DatabaseURL  string        `env:"QUESTRUN_DATABASE_URL"`
	QuestDir     string        `env:"QUESTRUN_QUEST_DIR"`
	ContentPack  string        `env:"QUESTRUN_CONTENT"`
	LogLevel     string        `env:"QUESTRUN_LOG_LEVEL" envDefault:"info"`
	Addr         string        `env:"QUESTRUN_ADDR" envDefault:"127.0.0.1:8787"`
	TickInterval time.Duration `env:"QUESTRUN_TICK_INTERVAL" envDefault:"1m"`
	Seed         int64         `env:"QUESTRUN_SEED"`
}

// Load parses the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env parsing cannot.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case "memory", "file", "sqlite":
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("QUESTRUN_STORE=postgres requires QUESTRUN_DATABASE_URL")
		}
	default:
		return fmt.Errorf("unsupported QUESTRUN_STORE %q", c.StoreBackend)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("QUESTRUN_TICK_INTERVAL must be positive, got %s", c.TickInterval)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// DSN returns the store location for the configured backend.
func (c Config) DSN() string {
	switch c.StoreBackend {
	case "sqlite":
		return c.SQLitePath
	case "postgres":
		return c.DatabaseURL
	}
	return c.StatePath
}

// DataDir is the directory holding the run file, and the default home of
// quest notes, command history, exports and the dashboard log.
func (c Config) DataDir() string {
	return filepath.Dir(c.StatePath)
}

// QuestPath returns the quest note directory.
func (c Config) QuestPath() string {
	if c.QuestDir != "" {
		return c.QuestDir
	}
	return filepath.Join(c.DataDir(), "quests")
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid QUESTRUN_LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
