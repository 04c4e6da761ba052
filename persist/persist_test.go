package persist

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nathoo/questrun/catalog"
	"github.com/nathoo/questrun/engine/state"
	"github.com/nathoo/questrun/types"
)

func sample(cat *catalog.Catalog) *types.RunState {
	s := state.NewRunState(cat)
	s.Gold = 120
	s.Level = 4
	s.LastLoginDate = "2026-05-04"
	s.Skills = append(s.Skills, types.Skill{Name: "coding", Level: 2, XPReq: 11, Connections: []string{}})
	return s
}

func roundTrip(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	cat := catalog.Default()

	if _, err := st.Load(ctx); !errors.Is(err, ErrNoState) {
		t.Fatalf("Load on empty store = %v", err)
	}
	if err := st.Save(ctx, sample(cat)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	next := sample(cat)
	next.Gold = 5
	if err := st.Save(ctx, next); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Gold != 5 || got.Level != 4 || len(got.Skills) != 1 || got.Skills[0].Name != "coding" {
		t.Errorf("loaded = %+v", got)
	}
}

func TestMemoryStore(t *testing.T) {
	st := NewMemoryStore(catalog.Default())
	roundTrip(t, st)
	if st.Saves() != 2 {
		t.Errorf("Saves = %d", st.Saves())
	}
}

func TestFileStore(t *testing.T) {
	st, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "run.json"), catalog.Default())
	if err != nil {
		t.Fatal(err)
	}
	roundTrip(t, st)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "run.sqlite")
	st, err := OpenSQL(ctx, DialectSQLite, path, "", catalog.Default(), nil)
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	roundTrip(t, st)
	st.Close()

	// Reopening must not re-run migrations or lose the row.
	st, err = OpenSQL(ctx, DialectSQLite, path, "", catalog.Default(), nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	got, err := st.Load(ctx)
	if err != nil || got.Gold != 5 {
		t.Fatalf("reloaded = %+v, %v", got, err)
	}
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()
	cat := catalog.Default()
	if _, err := Open(ctx, BackendPostgres, "", cat, nil); err == nil || !strings.Contains(err.Error(), "requires a DSN") {
		t.Errorf("postgres without DSN: %v", err)
	}
	if _, err := Open(ctx, "bogus", "", cat, nil); err == nil || !strings.Contains(err.Error(), "unsupported store backend") {
		t.Errorf("bogus backend: %v", err)
	}
	if _, err := Open(ctx, BackendFile, "", cat, nil); err == nil {
		t.Error("file store without path accepted")
	}
}
