// Package lockdown implements the punishment lockdown derived from daily
// damage, and the meditation protocol that shortens it.
//
// States are Normal and Locked. Locked holds while now < LockdownUntil and is
// left lazily: nothing transitions back, queries simply stop seeing it.
package lockdown

import (
	"time"

	"github.com/nathoo/questrun/engine/errs"
	"github.com/nathoo/questrun/engine/state"
	"github.com/nathoo/questrun/types"
)

const (
	DamageThreshold    = 50
	Duration           = 6 * time.Hour
	MeditationCooldown = 30 * time.Second
	CyclesPerRelease   = 10
	Release            = 5 * time.Hour
)

// Locked reports whether a lockdown is in force at now.
func Locked(s *types.RunState, now time.Time) bool {
	return state.Active(s.LockdownUntil, now)
}

// Remaining returns the time left on the lockdown, or 0.
func Remaining(s *types.RunState, now time.Time) time.Duration {
	if !Locked(s, now) {
		return 0
	}
	return s.LockdownUntil.Sub(now)
}

// Gate rejects an action while locked.
func Gate(s *types.RunState, now time.Time, action string) error {
	if Locked(s, now) {
		return errs.Blocked(errs.Lockdown, "cannot %s during lockdown (%s left)", action, Remaining(s, now).Round(time.Minute))
	}
	return nil
}

// AfterDamage checks the threshold after a damage application and enters
// lockdown when today's damage exceeds it. It returns true on entry.
func AfterDamage(s *types.RunState, now time.Time) bool {
	if s.DamageTakenToday <= DamageThreshold || Locked(s, now) {
		return false
	}
	s.LockdownUntil = state.TimePtr(now.Add(Duration))
	s.MeditationCycles = 0
	return true
}

// MeditateOutcome reports the effect of one meditation.
type MeditateOutcome struct {
	Cycles   int
	Released bool
	Ended    bool
}

// Meditate performs one meditation cycle.
func Meditate(s *types.RunState, now time.Time) (MeditateOutcome, error) {
	var out MeditateOutcome
	if !Locked(s, now) {
		return out, errs.Blocked(errs.NotLocked, "meditation is only possible during lockdown")
	}
	if s.LastMeditationAt != nil {
		if wait := MeditationCooldown - now.Sub(*s.LastMeditationAt); wait > 0 {
			return out, errs.Blocked(errs.Cooldown, "breathe; next meditation in %s", wait.Round(time.Second))
		}
	}
	if s.MeditationCycles >= CyclesPerRelease {
		return out, errs.Blocked(errs.Cooldown, "meditation cycles exhausted")
	}

	s.LastMeditationAt = state.TimePtr(now)
	s.MeditationCycles++
	out.Cycles = s.MeditationCycles
	if s.MeditationCycles == CyclesPerRelease {
		until := s.LockdownUntil.Add(-Release)
		s.LockdownUntil = &until
		s.MeditationCycles = 0
		out.Released = true
		out.Ended = !Locked(s, now)
	}
	return out, nil
}

// Clear lifts any lockdown.
func Clear(s *types.RunState) {
	s.LockdownUntil = nil
	s.MeditationCycles = 0
}
