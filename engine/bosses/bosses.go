// Package bosses tracks the level-gated boss milestones and the win condition.
package bosses

import (
	"fmt"
	"slices"
	"time"

	"github.com/nathoo/questrun/catalog"
	"github.com/nathoo/questrun/engine/errs"
	"github.com/nathoo/questrun/engine/state"
	"github.com/nathoo/questrun/types"
)

// OnLevelReached unlocks every milestone at or below level and returns the
// newly unlocked ones.
func OnLevelReached(s *types.RunState, level int, now time.Time) []types.BossMilestone {
	var unlocked []types.BossMilestone
	for i := range s.BossMilestones {
		b := &s.BossMilestones[i]
		if b.Unlocked || b.Level > level {
			continue
		}
		b.Unlocked = true
		b.UnlockedAt = state.TimePtr(now)
		unlocked = append(unlocked, *b)
	}
	return unlocked
}

// IsThreshold reports whether level is exactly a boss level.
func IsThreshold(level int) bool {
	return slices.Contains(catalog.BossLevels, level)
}

// Defeat marks the boss at level defeated and returns its XP reward. Beating
// the final boss wins the game.
func Defeat(s *types.RunState, level int, now time.Time) (types.BossMilestone, error) {
	b := state.FindBoss(s, level)
	if b == nil {
		return types.BossMilestone{}, errs.NotFound("boss", fmt.Sprint(level))
	}
	if !b.Unlocked {
		return types.BossMilestone{}, errs.Blocked(errs.BossLocked, "%s is locked until level %d", b.Name, b.Level)
	}
	if b.Defeated {
		return types.BossMilestone{}, errs.Blocked(errs.AlreadyDone, "%s is already defeated", b.Name)
	}
	b.Defeated = true
	b.DefeatedAt = state.TimePtr(now)
	if b.Level == catalog.FinalBossLevel {
		s.GameWon = true
		s.GameWonAt = state.TimePtr(now)
	}
	return *b, nil
}

// Next returns the lowest undefeated milestone, or nil when all are beaten.
func Next(s *types.RunState) *types.BossMilestone {
	for i := range s.BossMilestones {
		if !s.BossMilestones[i].Defeated {
			return &s.BossMilestones[i]
		}
	}
	return nil
}
