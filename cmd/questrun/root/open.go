package root

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nathoo/questrun/catalog"
	"github.com/nathoo/questrun/config"
	"github.com/nathoo/questrun/engine"
	"github.com/nathoo/questrun/loader"
	"github.com/nathoo/questrun/persist"
	"github.com/nathoo/questrun/quests"
)

// session is an opened run with everything needed to drive it.
type session struct {
	cfg    config.Config
	eng    *engine.Engine
	store  persist.Store
	logger *slog.Logger
}

// openSession loads the content pack, opens the run and quest stores and
// builds the engine. Logs go to logOut.
func openSession(ctx context.Context, cfg config.Config, logOut io.Writer) (*session, func(), error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	cat, err := loader.Load(cfg.ContentPack, catalog.Default(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("content pack: %w", err)
	}

	store, err := persist.Open(ctx, cfg.StoreBackend, cfg.DSN(), cat, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing store", "err", err)
		}
	}

	var qs quests.Store
	if cfg.StoreBackend == persist.BackendMemory {
		qs = quests.NewMemoryStore()
	} else {
		dir, err := quests.NewDirStore(cfg.QuestPath())
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		qs = dir
	}

	seed := cfg.Seed
	if seed == 0 {
		if seed, err = config.NewSeed(); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	eng, err := engine.New(ctx, engine.Options{
		Catalog: cat,
		Quests:  qs,
		Store:   store,
		Logger:  logger,
		Seed:    seed,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return &session{cfg: cfg, eng: eng, store: store, logger: logger}, cleanup, nil
}
