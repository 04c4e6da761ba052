package loader

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nathoo/questrun/catalog"
	"github.com/nathoo/questrun/types"
)

// ValidationError collects every problem found in a pack.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("content pack invalid, %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

func (e *ValidationError) add(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

var missionKinds = map[types.MissionKind]bool{
	types.MissionMorningTrivial: true,
	types.MissionQuestCount:     true,
	types.MissionZeroInbox:      true,
	types.MissionSkillRepeat:    true,
	types.MissionHighStakes:     true,
	types.MissionFastComplete:   true,
	types.MissionSynergy:        true,
	types.MissionNoDamage:       true,
	types.MissionHardQuest:      true,
}

var shopItems = []string{catalog.ItemShield, catalog.ItemRest, catalog.ItemPotion}

// validate checks a compiled pack. Warnings do not fail the load.
func validate(p *Pack) (warnings []string, err error) {
	ve := &ValidationError{}

	if p.Neutral != nil {
		checkMultipliers(ve, "Neutral", *p.Neutral)
	}

	seen := map[string]bool{}
	for _, m := range p.Modifiers {
		if strings.TrimSpace(m.Name) == "" {
			ve.add("Modifier name is required")
		}
		if seen[m.Name] {
			ve.add("duplicate Modifier %q", m.Name)
		}
		seen[m.Name] = true
		checkMultipliers(ve, fmt.Sprintf("Modifier %q", m.Name), m)
	}

	seen = map[string]bool{}
	for _, m := range p.Missions {
		if seen[m.ID] {
			ve.add("duplicate Mission %q", m.ID)
		}
		seen[m.ID] = true
		if !missionKinds[m.Kind] {
			ve.add("Mission %q has unknown kind %q", m.ID, m.Kind)
		}
		if m.Target < 1 {
			ve.add("Mission %q target must be at least 1, got %d", m.ID, m.Target)
		}
		if m.Reward.XP < 0 || m.Reward.Gold < 0 {
			ve.add("Mission %q reward must not be negative", m.ID)
		}
	}

	seen = map[string]bool{}
	for _, a := range p.Achievements {
		if seen[a.ID] {
			ve.add("duplicate Achievement %q", a.ID)
		}
		seen[a.ID] = true
		if !slices.ContainsFunc(catalog.Default().Achievements, func(d catalog.AchievementDef) bool { return d.ID == a.ID }) {
			warnings = append(warnings, fmt.Sprintf("Achievement %q is never awarded; ignored", a.ID))
		}
	}

	seen = map[string]bool{}
	for _, it := range p.Items {
		if seen[it.ID] {
			ve.add("duplicate Item %q", it.ID)
		}
		seen[it.ID] = true
		if !slices.Contains(shopItems, it.ID) {
			ve.add("Item %q is not a shop item (want one of %s)", it.ID, strings.Join(shopItems, ", "))
		}
		if it.Price <= 0 {
			ve.add("Item %q price must be positive, got %d", it.ID, it.Price)
		}
	}

	levels := map[int]bool{}
	for _, b := range p.Bosses {
		if levels[b.Level] {
			ve.add("duplicate Boss %d", b.Level)
		}
		levels[b.Level] = true
		if !slices.Contains(catalog.BossLevels, b.Level) {
			ve.add("Boss level %d is not a milestone (want one of %v)", b.Level, catalog.BossLevels)
		}
		if b.XPReward <= 0 {
			ve.add("Boss %d xp must be positive, got %d", b.Level, b.XPReward)
		}
	}

	levels = map[int]bool{}
	for _, r := range p.Rewards {
		if levels[r.Difficulty] {
			ve.add("duplicate Reward %d", r.Difficulty)
		}
		levels[r.Difficulty] = true
		if r.Difficulty < 1 || r.Difficulty > 5 {
			ve.add("Reward difficulty must be 1-5, got %d", r.Difficulty)
		}
		if r.Reward.XP < 0 || r.Reward.Gold < 0 {
			ve.add("Reward %d must not be negative", r.Difficulty)
		}
	}

	if len(ve.Errors) > 0 {
		return warnings, ve
	}
	return warnings, nil
}

func checkMultipliers(ve *ValidationError, what string, m types.Modifier) {
	for _, f := range []struct {
		key string
		v   float64
	}{{"xp", m.XPMultiplier}, {"gold", m.GoldMultiplier}, {"price", m.PriceMultiplier}} {
		if f.v <= 0 {
			ve.add("%s %s multiplier must be positive, got %g", what, f.key, f.v)
		}
	}
}
