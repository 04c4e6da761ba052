// Package state builds fresh run state and provides lookups over it.
package state

import (
	"time"

	"github.com/nathoo/questrun/catalog"
	"github.com/nathoo/questrun/types"
)

// Starting values for a new run.
const (
	StartHP          = 100
	StartXPReq       = 100
	StartRivalDamage = 10
	SkillStartXPReq  = 10
	HistoryCap       = 200
	DateLayout       = "2006-01-02"
)

// NewRunState creates a fresh run from a catalog.
func NewRunState(cat *catalog.Catalog) *types.RunState {
	s := &types.RunState{
		HP:             StartHP,
		MaxHP:          StartHP,
		XPReq:          StartXPReq,
		RivalDamage:    StartRivalDamage,
		DailyModifier:  cat.Neutral,
		Skills:         []types.Skill{},
		ActiveChains:   []types.QuestChain{},
		ChainHistory:   []types.QuestChainRecord{},
		ResearchQuests: []types.ResearchQuest{},
		NextResearchID: 1,
		DailyMissions:  []types.DailyMission{},
		SkillUsesToday: map[string]int{},
		DayMetrics:     []types.DayMetric{},
		History:        []types.HistoryEntry{},
	}
	s.BossMilestones = NewBossMilestones(cat)
	s.Achievements = NewAchievements(cat)
	return s
}

// NewBossMilestones returns the locked boss milestones for a catalog.
func NewBossMilestones(cat *catalog.Catalog) []types.BossMilestone {
	out := make([]types.BossMilestone, 0, len(cat.Bosses))
	for _, b := range cat.Bosses {
		out = append(out, types.BossMilestone{Level: b.Level, Name: b.Name, XPReward: b.XPReward})
	}
	return out
}

// NewAchievements returns the locked achievement list for a catalog.
func NewAchievements(cat *catalog.Catalog) []types.Achievement {
	out := make([]types.Achievement, 0, len(cat.Achievements))
	for _, a := range cat.Achievements {
		out = append(out, types.Achievement{ID: a.ID, Name: a.Name, Description: a.Description})
	}
	return out
}

// DayKey returns the calendar-day key of t in its own location.
func DayKey(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the number of calendar days from day key a to day key b.
// Unparseable keys yield 0.
func DaysBetween(a, b string) int {
	ta, err := time.Parse(DateLayout, a)
	if err != nil {
		return 0
	}
	tb, err := time.Parse(DateLayout, b)
	if err != nil {
		return 0
	}
	return int(tb.Sub(ta).Hours() / 24)
}

// FindSkill returns a pointer to the named skill, or nil.
func FindSkill(s *types.RunState, name string) *types.Skill {
	for i := range s.Skills {
		if s.Skills[i].Name == name {
			return &s.Skills[i]
		}
	}
	return nil
}

// FindChain returns a pointer to the chain with the given ID, or nil.
func FindChain(s *types.RunState, id string) *types.QuestChain {
	for i := range s.ActiveChains {
		if s.ActiveChains[i].ID == id {
			return &s.ActiveChains[i]
		}
	}
	return nil
}

// CurrentChain returns the chain that currently gates quest order, or nil.
func CurrentChain(s *types.RunState) *types.QuestChain {
	if s.CurrentChainID == "" {
		return nil
	}
	return FindChain(s, s.CurrentChainID)
}

// FindResearch returns a pointer to the research quest with the given ID, or nil.
func FindResearch(s *types.RunState, id int) *types.ResearchQuest {
	for i := range s.ResearchQuests {
		if s.ResearchQuests[i].ID == id {
			return &s.ResearchQuests[i]
		}
	}
	return nil
}

// FindBoss returns a pointer to the milestone at level, or nil.
func FindBoss(s *types.RunState, level int) *types.BossMilestone {
	for i := range s.BossMilestones {
		if s.BossMilestones[i].Level == level {
			return &s.BossMilestones[i]
		}
	}
	return nil
}

// Today returns the metric entry for day, appending one if missing.
func Today(s *types.RunState, day string) *types.DayMetric {
	if n := len(s.DayMetrics); n > 0 && s.DayMetrics[n-1].Date == day {
		return &s.DayMetrics[n-1]
	}
	s.DayMetrics = append(s.DayMetrics, types.DayMetric{Date: day})
	return &s.DayMetrics[len(s.DayMetrics)-1]
}

// Record appends an entry to the activity log, trimming the oldest entries
// beyond HistoryCap.
func Record(s *types.RunState, at time.Time, kind, msg string) {
	s.History = append(s.History, types.HistoryEntry{At: at, Kind: kind, Message: msg})
	if over := len(s.History) - HistoryCap; over > 0 {
		s.History = append(s.History[:0:0], s.History[over:]...)
	}
}

// Active reports whether a nullable deadline stamp is still in the future.
func Active(until *time.Time, now time.Time) bool {
	return until != nil && now.Before(*until)
}

// TimePtr returns a pointer to a copy of t.
func TimePtr(t time.Time) *time.Time {
	return &t
}
