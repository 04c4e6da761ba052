package loader

import (
	"maps"
	"slices"

	"github.com/nathoo/questrun/catalog"
	"github.com/nathoo/questrun/types"
	lua "github.com/yuin/gopher-lua"
)

// rawNamed holds a string-keyed definition before compilation.
type rawNamed struct {
	id    string
	table *lua.LTable
}

// rawLeveled holds a number-keyed definition (boss level, difficulty).
type rawLeveled struct {
	n     int
	table *lua.LTable
}

// Pack is a compiled content pack: overrides and additions to a catalog.
type Pack struct {
	Neutral      *types.Modifier
	Modifiers    []types.Modifier
	Missions     []catalog.MissionDef
	Achievements []catalog.AchievementDef
	Items        []catalog.ShopItem
	Bosses       []catalog.BossDef
	Rewards      []RewardDef
}

// RewardDef overrides the base reward of one difficulty.
type RewardDef struct {
	Difficulty int
	Reward     types.Reward
}

func getString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getNumber returns a numeric field, or def if missing.
func getNumber(tbl *lua.LTable, key string, def float64) float64 {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return def
}

func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key, 0))
}

func getReward(tbl *lua.LTable) types.Reward {
	return types.Reward{XP: getInt(tbl, "xp"), Gold: getInt(tbl, "gold")}
}

func compileModifier(name string, tbl *lua.LTable) types.Modifier {
	return types.Modifier{
		Name:            name,
		Description:     getString(tbl, "description"),
		XPMultiplier:    getNumber(tbl, "xp", 1),
		GoldMultiplier:  getNumber(tbl, "gold", 1),
		PriceMultiplier: getNumber(tbl, "price", 1),
	}
}

// compile turns collected tables into a Pack.
func compile(coll *collector) *Pack {
	p := &Pack{}
	if coll.neutral != nil {
		name := getString(coll.neutral, "name")
		m := compileModifier(name, coll.neutral)
		p.Neutral = &m
	}
	for _, r := range coll.modifiers {
		p.Modifiers = append(p.Modifiers, compileModifier(r.id, r.table))
	}
	for _, r := range coll.missions {
		p.Missions = append(p.Missions, catalog.MissionDef{
			ID:          r.id,
			Kind:        types.MissionKind(getString(r.table, "kind")),
			Name:        getString(r.table, "name"),
			Description: getString(r.table, "description"),
			Target:      int(getNumber(r.table, "target", 1)),
			Reward:      getReward(r.table),
		})
	}
	for _, r := range coll.achievements {
		p.Achievements = append(p.Achievements, catalog.AchievementDef{
			ID:          r.id,
			Name:        getString(r.table, "name"),
			Description: getString(r.table, "description"),
		})
	}
	for _, r := range coll.items {
		p.Items = append(p.Items, catalog.ShopItem{
			ID:          r.id,
			Name:        getString(r.table, "name"),
			Description: getString(r.table, "description"),
			Price:       getInt(r.table, "price"),
		})
	}
	for _, r := range coll.bosses {
		p.Bosses = append(p.Bosses, catalog.BossDef{
			Level:    r.n,
			Name:     getString(r.table, "name"),
			XPReward: getInt(r.table, "xp"),
		})
	}
	for _, r := range coll.rewards {
		p.Rewards = append(p.Rewards, RewardDef{Difficulty: r.n, Reward: getReward(r.table)})
	}
	return p
}

// Apply returns a copy of base with the pack overlaid. Entries replace base
// entries with the same key; new modifiers and missions extend the tables.
// Blank names and descriptions keep the base text.
func (p *Pack) Apply(base *catalog.Catalog) *catalog.Catalog {
	cat := &catalog.Catalog{
		Neutral:      base.Neutral,
		Modifiers:    slices.Clone(base.Modifiers),
		Missions:     slices.Clone(base.Missions),
		Bosses:       slices.Clone(base.Bosses),
		Achievements: slices.Clone(base.Achievements),
		Shop:         slices.Clone(base.Shop),
		Rewards:      maps.Clone(base.Rewards),
	}
	if cat.Rewards == nil {
		cat.Rewards = map[int]types.Reward{}
	}

	if p.Neutral != nil {
		n := *p.Neutral
		n.Name = or(n.Name, cat.Neutral.Name)
		n.Description = or(n.Description, cat.Neutral.Description)
		cat.Neutral = n
	}
	for _, m := range p.Modifiers {
		if i := slices.IndexFunc(cat.Modifiers, func(x types.Modifier) bool { return x.Name == m.Name }); i >= 0 {
			m.Description = or(m.Description, cat.Modifiers[i].Description)
			cat.Modifiers[i] = m
			continue
		}
		cat.Modifiers = append(cat.Modifiers, m)
	}
	for _, m := range p.Missions {
		if i := slices.IndexFunc(cat.Missions, func(x catalog.MissionDef) bool { return x.ID == m.ID }); i >= 0 {
			m.Name = or(m.Name, cat.Missions[i].Name)
			m.Description = or(m.Description, cat.Missions[i].Description)
			cat.Missions[i] = m
			continue
		}
		cat.Missions = append(cat.Missions, m)
	}
	for _, a := range p.Achievements {
		if i := slices.IndexFunc(cat.Achievements, func(x catalog.AchievementDef) bool { return x.ID == a.ID }); i >= 0 {
			cat.Achievements[i].Name = or(a.Name, cat.Achievements[i].Name)
			cat.Achievements[i].Description = or(a.Description, cat.Achievements[i].Description)
		}
	}
	for _, it := range p.Items {
		if i := slices.IndexFunc(cat.Shop, func(x catalog.ShopItem) bool { return x.ID == it.ID }); i >= 0 {
			it.Name = or(it.Name, cat.Shop[i].Name)
			it.Description = or(it.Description, cat.Shop[i].Description)
			cat.Shop[i] = it
		}
	}
	for _, b := range p.Bosses {
		if i := slices.IndexFunc(cat.Bosses, func(x catalog.BossDef) bool { return x.Level == b.Level }); i >= 0 {
			b.Name = or(b.Name, cat.Bosses[i].Name)
			cat.Bosses[i] = b
		}
	}
	for _, r := range p.Rewards {
		cat.Rewards[r.Difficulty] = r.Reward
	}
	return cat
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
