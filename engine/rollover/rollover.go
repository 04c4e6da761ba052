// Package rollover runs the day-boundary reset pipeline.
//
// The pipeline order is fixed: rot damage, daily resets, skill rust, mission
// roll, chaos modifier. Callers persist once afterwards.
package rollover

import (
	"fmt"
	"time"

	"github.com/nathoo/questrun/catalog"
	"github.com/nathoo/questrun/engine/chaos"
	"github.com/nathoo/questrun/engine/ledger"
	"github.com/nathoo/questrun/engine/lockdown"
	"github.com/nathoo/questrun/engine/missions"
	"github.com/nathoo/questrun/engine/skills"
	"github.com/nathoo/questrun/engine/state"
	"github.com/nathoo/questrun/types"
)

const (
	// RotGraceDays is the longest absence that costs nothing.
	RotGraceDays = 2
	RotPerDay    = 10
	DailyHeal    = 20
)

// Report describes what a rollover did.
type Report struct {
	Ran          bool
	DaysElapsed  int
	RotDamage    int
	StreakBroken bool
	Rusted       []string
	Missions     []types.DailyMission
	Modifier     types.Modifier
}

// Due reports whether now falls on a day the run has not yet rolled into.
func Due(s *types.RunState, now time.Time) bool {
	return s.LastLoginDate != state.DayKey(now)
}

// Run performs the rollover if due.
func Run(s *types.RunState, cat *catalog.Catalog, rng chaos.Random, now time.Time) Report {
	if !Due(s, now) {
		return Report{}
	}
	today := state.DayKey(now)
	r := Report{Ran: true}

	if s.LastLoginDate != "" {
		r.DaysElapsed = state.DaysBetween(s.LastLoginDate, today)
		if r.DaysElapsed > RotGraceDays {
			r.RotDamage = (r.DaysElapsed - 1) * RotPerDay
			s.HP -= r.RotDamage
			state.Record(s, now, "rot", fmt.Sprintf("Away %d days: rot dealt %d damage", r.DaysElapsed, r.RotDamage))
		}
	}

	s.MaxHP = ledger.MaxHPFor(s.Level)
	ledger.Heal(s, DailyHeal)
	s.DamageTakenToday = 0
	lockdown.Clear(s)
	s.ShieldUntil = nil
	s.LastLoginDate = today
	if s.Streak.LastDate != "" && state.DaysBetween(s.Streak.LastDate, today) > 1 && s.Streak.Current > 0 {
		s.Streak.Current = 0
		r.StreakBroken = true
	}
	s.DeletionsToday = 0
	state.Today(s, today)

	r.Rusted = skills.OnDailyRollover(s, now)

	if s.DailyMissionDate != today {
		r.Missions = missions.Roll(s, cat.Missions, rng)
		s.DailyMissionDate = today
	}

	r.Modifier = chaos.Apply(s, rng, cat.Neutral, cat.Modifiers)
	state.Record(s, now, "rollover", fmt.Sprintf("New day %s: %s", today, r.Modifier.Name))
	return r
}
