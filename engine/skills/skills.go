// Package skills tracks per-skill level, XP and rust.
//
// Rust accrues for every rollover a skill spends more than StaleAfter unused
// and raises its XP requirement; using a rusty skill polishes one step of that
// debt back off.
package skills

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/nathoo/questrun/engine/errs"
	"github.com/nathoo/questrun/engine/state"
	"github.com/nathoo/questrun/types"
)

const (
	MaxRust       = 10
	Growth        = 1.1
	StaleAfter    = 3 * 24 * time.Hour
	SecondaryXP   = 0.5
	SynergyFactor = 0.5
)

// UseOutcome reports what a quest completion did to the skills.
type UseOutcome struct {
	Polished         bool
	PrimaryLevelUp   bool
	SecondaryLevelUp bool
	SynergyBonus     int
	NewConnection    bool
}

// Create registers a new skill.
func Create(s *types.RunState, name string, now time.Time) (*types.Skill, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Blocked(errs.InvalidInput, "skill name is required")
	}
	if state.FindSkill(s, name) != nil {
		return nil, errs.Blocked(errs.DuplicateEntry, "skill %q already exists", name)
	}
	s.Skills = append(s.Skills, types.Skill{
		Name:        name,
		Level:       1,
		XPReq:       state.SkillStartXPReq,
		LastUsedAt:  now,
		Connections: []string{},
	})
	return &s.Skills[len(s.Skills)-1], nil
}

// Validate checks that the named skills exist. An empty secondary, or one
// equal to the primary, is ignored.
func Validate(s *types.RunState, primary, secondary string) error {
	if primary == "" {
		return nil
	}
	if state.FindSkill(s, primary) == nil {
		return errs.NotFound("skill", primary)
	}
	if secondary != "" && secondary != primary && state.FindSkill(s, secondary) == nil {
		return errs.NotFound("skill", secondary)
	}
	return nil
}

// OnQuestComplete applies a quest completion to its primary and optional
// secondary skill. The synergy bonus is returned for the caller to credit to
// the quest's XP total; it is not added to any skill.
func OnQuestComplete(s *types.RunState, primary, secondary string, now time.Time) (UseOutcome, error) {
	var out UseOutcome
	if err := Validate(s, primary, secondary); err != nil {
		return out, err
	}
	if primary == "" {
		return out, nil
	}

	p := state.FindSkill(s, primary)
	if p.Rust > 0 {
		p.XPReq = shrink(p.XPReq)
		out.Polished = true
	}
	p.Rust = 0
	p.LastUsedAt = now
	p.XP++
	out.PrimaryLevelUp = levelUp(p)

	if secondary == "" || secondary == primary {
		return out, nil
	}
	sec := state.FindSkill(s, secondary)
	out.SynergyBonus = int(math.Floor(float64(sec.Level) * SynergyFactor))
	sec.XP += SecondaryXP
	out.SecondaryLevelUp = levelUp(sec)

	if !slices.Contains(p.Connections, secondary) {
		p.Connections = append(p.Connections, secondary)
		out.NewConnection = true
	}
	return out, nil
}

// AddXP credits XP to a skill and levels it if due.
func AddXP(s *types.RunState, name string, xp float64) (bool, error) {
	sk := state.FindSkill(s, name)
	if sk == nil {
		return false, errs.NotFound("skill", name)
	}
	sk.XP += xp
	return levelUp(sk), nil
}

// OnDailyRollover rusts every skill unused for longer than StaleAfter,
// unless the player is resting. It returns the names of the skills that rusted.
func OnDailyRollover(s *types.RunState, now time.Time) []string {
	if state.Active(s.RestUntil, now) {
		return nil
	}
	var rusted []string
	for i := range s.Skills {
		sk := &s.Skills[i]
		if now.Sub(sk.LastUsedAt) <= StaleAfter {
			continue
		}
		if sk.Rust < MaxRust {
			sk.Rust++
		}
		sk.XPReq = grow(sk.XPReq)
		rusted = append(rusted, sk.Name)
	}
	return rusted
}

// ClearRust removes all rust without touching requirements.
func ClearRust(s *types.RunState, now time.Time) {
	for i := range s.Skills {
		s.Skills[i].Rust = 0
		s.Skills[i].LastUsedAt = now
	}
}

func levelUp(sk *types.Skill) bool {
	if sk.XP < float64(sk.XPReq) {
		return false
	}
	sk.XP = 0
	sk.Level++
	sk.XPReq = grow(sk.XPReq)
	return true
}

func grow(req int) int {
	return int(math.Floor(float64(req) * Growth))
}

func shrink(req int) int {
	// Epsilon keeps exact quotients such as 33/1.1 from flooring to 29.
	v := int(math.Floor(float64(req)/Growth + 1e-9))
	if v < 1 {
		return 1
	}
	return v
}
