// Package ledger owns the player's resource economy: HP, gold, XP and level.
// All functions mutate the RunState passed in; none retain it.
package ledger

import (
	"math"
	"time"

	"github.com/nathoo/questrun/engine/errs"
	"github.com/nathoo/questrun/engine/state"
	"github.com/nathoo/questrun/types"
)

const (
	// HPPerLevel is added to the base max HP for every player level.
	HPPerLevel = 5
	// LevelGrowth multiplies the XP requirement on level-up.
	LevelGrowth = 1.1
)

// MaxHPFor returns the max HP at a level.
func MaxHPFor(level int) int {
	return state.StartHP + level*HPPerLevel
}

// Award credits quest rewards scaled by the modifier and returns the
// credited amounts.
func Award(s *types.RunState, baseXP, baseGold int, mod types.Modifier) (xp, gold int) {
	xp = Scale(baseXP, mod.XPMultiplier)
	gold = Scale(baseGold, mod.GoldMultiplier)
	s.XP += xp
	s.Gold += gold
	return xp, gold
}

// Grant credits XP and gold without any modifier.
func Grant(s *types.RunState, xp, gold int) {
	s.XP += xp
	s.Gold += gold
}

// Scale floors v*mult. A zero multiplier is treated as neutral.
func Scale(v int, mult float64) int {
	if mult == 0 {
		mult = 1
	}
	return int(math.Floor(float64(v) * mult))
}

// CheckLevelUp levels the player once if XP has reached the requirement.
func CheckLevelUp(s *types.RunState) bool {
	if s.XP < s.XPReq {
		return false
	}
	s.Level++
	s.XP = 0
	s.XPReq = int(math.Floor(float64(s.XPReq) * LevelGrowth))
	s.MaxHP = MaxHPFor(s.Level)
	s.HP = s.MaxHP
	if s.Level > s.Legacy.BestLevel {
		s.Legacy.BestLevel = s.Level
	}
	return true
}

// DamageFor applies the debt penalty: damage doubles while gold is negative.
func DamageFor(s *types.RunState, amount int) int {
	if s.Gold < 0 {
		return amount * 2
	}
	return amount
}

// ApplyDamage subtracts HP and tallies today's damage. HP has no floor.
func ApplyDamage(s *types.RunState, amount int) {
	s.HP -= amount
	s.DamageTakenToday += amount
}

// Heal restores HP up to max HP.
func Heal(s *types.RunState, amount int) {
	s.HP += amount
	if s.HP > s.MaxHP {
		s.HP = s.MaxHP
	}
}

// Price applies the price multiplier to a base cost.
func Price(base int, mod types.Modifier) int {
	if mod.PriceMultiplier == 0 {
		return base
	}
	return int(math.Ceil(float64(base) * mod.PriceMultiplier))
}

// Spend deducts gold, rejecting when the player cannot afford it.
func Spend(s *types.RunState, cost int) error {
	if s.Gold < cost {
		return errs.Blocked(errs.Funds, "costs %d gold, you have %d", cost, s.Gold)
	}
	s.Gold -= cost
	return nil
}

// Dead reports whether HP is depleted.
func Dead(s *types.RunState) bool {
	return s.HP <= 0
}

// ResetForNewRun zeroes the economy and records the death in the legacy.
func ResetForNewRun(s *types.RunState, now time.Time) {
	if s.Level > s.Legacy.BestLevel {
		s.Legacy.BestLevel = s.Level
	}
	s.Level = 0
	s.XP = 0
	s.XPReq = state.StartXPReq
	s.Gold = 0
	s.MaxHP = state.StartHP
	s.HP = state.StartHP
	s.RivalDamage = state.StartRivalDamage
	s.DamageTakenToday = 0
	s.LockdownUntil = nil
	s.MeditationCycles = 0
	s.ShieldUntil = nil
	s.RestUntil = nil
	s.Legacy.DeathCount++
	s.Legacy.LastDeathAt = state.TimePtr(now)
}
