package bosses

import (
	"errors"
	"testing"
	"time"

	"github.com/nathoo/questrun/catalog"
	"github.com/nathoo/questrun/engine/errs"
	"github.com/nathoo/questrun/engine/state"
)

var t0 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func TestOnLevelReached(t *testing.T) {
	s := state.NewRunState(catalog.Default())
	if got := OnLevelReached(s, 9, t0); len(got) != 0 {
		t.Fatalf("unlocked at 9: %v", got)
	}
	got := OnLevelReached(s, 25, t0)
	if len(got) != 2 || got[0].Level != 10 || got[1].Level != 20 {
		t.Fatalf("unlocked = %+v", got)
	}
	if again := OnLevelReached(s, 25, t0); len(again) != 0 {
		t.Errorf("re-unlocked %v", again)
	}
}

func TestDefeat(t *testing.T) {
	s := state.NewRunState(catalog.Default())

	if _, err := Defeat(s, 10, t0); errs.PreconditionOf(err) != errs.BossLocked {
		t.Fatalf("locked boss: %v", err)
	}
	if _, err := Defeat(s, 15, t0); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("unknown boss: %v", err)
	}

	OnLevelReached(s, 10, t0)
	b, err := Defeat(s, 10, t0)
	if err != nil {
		t.Fatal(err)
	}
	if b.XPReward != 200 || b.DefeatedAt == nil {
		t.Errorf("boss = %+v", b)
	}
	if s.GameWon {
		t.Error("first boss must not win the game")
	}
	if _, err := Defeat(s, 10, t0); errs.PreconditionOf(err) != errs.AlreadyDone {
		t.Errorf("second defeat: %v", err)
	}
	if n := Next(s); n == nil || n.Level != 20 {
		t.Errorf("Next = %+v", n)
	}
}

func TestDefeat_FinalWins(t *testing.T) {
	s := state.NewRunState(catalog.Default())
	OnLevelReached(s, 50, t0)
	if _, err := Defeat(s, 50, t0); err != nil {
		t.Fatal(err)
	}
	if !s.GameWon || s.GameWonAt == nil || !s.GameWonAt.Equal(t0) {
		t.Errorf("won = %v at %v", s.GameWon, s.GameWonAt)
	}
}

func TestIsThreshold(t *testing.T) {
	for lvl, want := range map[int]bool{10: true, 20: true, 30: true, 50: true, 40: false, 11: false} {
		if IsThreshold(lvl) != want {
			t.Errorf("IsThreshold(%d) = %v", lvl, !want)
		}
	}
}
