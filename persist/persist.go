// Package persist stores the run state as a single JSON document, in a file
// or in a SQL database.
package persist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/nathoo/questrun/catalog"
	"github.com/nathoo/questrun/engine/save"
	"github.com/nathoo/questrun/types"
)

// ErrNoState is returned by Load when nothing has been saved yet.
var ErrNoState = errors.New("no saved run")

// Store loads and saves the whole run state.
type Store interface {
	Load(ctx context.Context) (*types.RunState, error)
	Save(ctx context.Context, s *types.RunState) error
	Close() error
}

// Backends accepted by Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Open returns the store for a backend. For file and sqlite, dsn is a path;
// for postgres it is a connection string.
func Open(ctx context.Context, backend, dsn string, cat *catalog.Catalog, logger *slog.Logger) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryStore(cat), nil
	case BackendFile, "":
		st, err := NewFileStore(dsn, cat)
		if err != nil {
			return nil, err
		}
		return st, nil
	case BackendSQLite, BackendPostgres:
		st, err := OpenSQL(ctx, Dialect(backend), dsn, DefaultRunID, cat, logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	return nil, fmt.Errorf("unsupported store backend %q", backend)
}

// FileStore keeps the run in one JSON file.
type FileStore struct {
	path string
	cat  *catalog.Catalog
}

// NewFileStore returns a store writing to path, creating its directory.
func NewFileStore(path string, cat *catalog.Catalog) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	return &FileStore{path: path, cat: cat}, nil
}

func (f *FileStore) Load(_ context.Context) (*types.RunState, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return save.Load(data, f.cat)
}

func (f *FileStore) Save(_ context.Context, s *types.RunState) error {
	data, err := save.Save(s)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }

// MemoryStore keeps an encoded copy of the run in memory.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
	cat   *catalog.Catalog
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(cat *catalog.Catalog) *MemoryStore {
	return &MemoryStore{cat: cat}
}

func (m *MemoryStore) Load(_ context.Context) (*types.RunState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNoState
	}
	return save.Load(m.data, m.cat)
}

func (m *MemoryStore) Save(_ context.Context, s *types.RunState) error {
	data, err := save.Save(s)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	m.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MemoryStore) Close() error { return nil }
