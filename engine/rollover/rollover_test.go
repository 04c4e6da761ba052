package rollover

import (
	"math/rand"
	"testing"
	"time"

	"github.com/nathoo/questrun/catalog"
	"github.com/nathoo/questrun/engine/state"
	"github.com/nathoo/questrun/types"
)

var day1 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func rng() *rand.Rand { return rand.New(rand.NewSource(7)) }

func TestRun_FirstLogin(t *testing.T) {
	cat := catalog.Default()
	s := state.NewRunState(cat)

	r := Run(s, cat, rng(), day1)
	if !r.Ran || r.RotDamage != 0 {
		t.Fatalf("report = %+v", r)
	}
	if s.LastLoginDate != "2026-05-04" || s.DailyMissionDate != "2026-05-04" {
		t.Errorf("dates = %q, %q", s.LastLoginDate, s.DailyMissionDate)
	}
	if len(s.DailyMissions) != 3 {
		t.Errorf("missions = %d", len(s.DailyMissions))
	}
	if len(s.DayMetrics) != 1 || s.DayMetrics[0].Date != "2026-05-04" {
		t.Errorf("metrics = %+v", s.DayMetrics)
	}
	if again := Run(s, cat, rng(), day1.Add(3*time.Hour)); again.Ran {
		t.Error("rollover ran twice on the same day")
	}
}

func TestRun_RotBeforeHeal(t *testing.T) {
	cat := catalog.Default()
	s := state.NewRunState(cat)
	Run(s, cat, rng(), day1)
	s.HP = 80

	r := Run(s, cat, rng(), day1.Add(4*24*time.Hour))
	if r.DaysElapsed != 4 || r.RotDamage != 30 {
		t.Fatalf("report = %+v", r)
	}
	// 80 - 30 rot, then +20 heal.
	if s.HP != 70 {
		t.Errorf("HP = %d, want 70", s.HP)
	}
	if len(s.DayMetrics) != 2 {
		t.Errorf("metrics = %d", len(s.DayMetrics))
	}
}

func TestRun_NoRotWithinGrace(t *testing.T) {
	cat := catalog.Default()
	s := state.NewRunState(cat)
	Run(s, cat, rng(), day1)
	s.HP = 50

	if r := Run(s, cat, rng(), day1.Add(2*24*time.Hour)); r.RotDamage != 0 {
		t.Errorf("rot after 2 days = %d", r.RotDamage)
	}
	if s.HP != 70 {
		t.Errorf("HP = %d", s.HP)
	}
}

func TestRun_Resets(t *testing.T) {
	cat := catalog.Default()
	s := state.NewRunState(cat)
	Run(s, cat, rng(), day1)

	s.DamageTakenToday = 60
	s.LockdownUntil = state.TimePtr(day1.Add(30 * time.Hour))
	s.MeditationCycles = 4
	s.ShieldUntil = state.TimePtr(day1.Add(48 * time.Hour))
	s.DeletionsToday = 3
	s.Streak = types.Streak{Current: 4, Longest: 4, LastDate: "2026-05-04"}
	s.Level = 2

	next := day1.Add(24 * time.Hour)
	r := Run(s, cat, rng(), next)
	if s.DamageTakenToday != 0 || s.LockdownUntil != nil || s.MeditationCycles != 0 || s.ShieldUntil != nil || s.DeletionsToday != 0 {
		t.Errorf("daily fields not reset: %+v", s)
	}
	if s.MaxHP != 110 {
		t.Errorf("MaxHP = %d", s.MaxHP)
	}
	if r.StreakBroken || s.Streak.Current != 4 {
		t.Errorf("streak broken after one day: %+v", s.Streak)
	}

	Run(s, cat, rng(), next.Add(2*24*time.Hour))
	if s.Streak.Current != 0 || s.Streak.Longest != 4 {
		t.Errorf("streak = %+v", s.Streak)
	}
}
