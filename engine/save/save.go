// Package save implements JSON serialization and deserialization of run state.
package save

import (
	"encoding/json"
	"fmt"

	"github.com/nathoo/questrun/catalog"
	"github.com/nathoo/questrun/engine/state"
	"github.com/nathoo/questrun/types"
)

// Save serializes the run state to JSON bytes.
func Save(s *types.RunState) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Load deserializes JSON bytes into a run state and repairs anything a
// hand-edited or older save left out.
func Load(data []byte, cat *catalog.Catalog) (*types.RunState, error) {
	var s types.RunState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding run state: %w", err)
	}
	Repair(&s, cat)
	return &s, nil
}

// Repair fills nil collections and reconciles catalog-derived lists.
func Repair(s *types.RunState, cat *catalog.Catalog) {
	if s.Skills == nil {
		s.Skills = []types.Skill{}
	}
	for i := range s.Skills {
		if s.Skills[i].Connections == nil {
			s.Skills[i].Connections = []string{}
		}
	}
	if s.ActiveChains == nil {
		s.ActiveChains = []types.QuestChain{}
	}
	if s.ChainHistory == nil {
		s.ChainHistory = []types.QuestChainRecord{}
	}
	if s.ResearchQuests == nil {
		s.ResearchQuests = []types.ResearchQuest{}
	}
	if s.NextResearchID < 1 {
		s.NextResearchID = 1
	}
	for _, rq := range s.ResearchQuests {
		if rq.ID >= s.NextResearchID {
			s.NextResearchID = rq.ID + 1
		}
	}
	if s.DailyMissions == nil {
		s.DailyMissions = []types.DailyMission{}
	}
	if s.SkillUsesToday == nil {
		s.SkillUsesToday = map[string]int{}
	}
	if s.DayMetrics == nil {
		s.DayMetrics = []types.DayMetric{}
	}
	if s.History == nil {
		s.History = []types.HistoryEntry{}
	}
	if len(s.BossMilestones) == 0 {
		s.BossMilestones = state.NewBossMilestones(cat)
	}

	// Keep unlocked achievements; add catalog entries the save predates.
	have := make(map[string]bool, len(s.Achievements))
	for _, a := range s.Achievements {
		have[a.ID] = true
	}
	for _, a := range state.NewAchievements(cat) {
		if !have[a.ID] {
			s.Achievements = append(s.Achievements, a)
		}
	}

	if s.MaxHP <= 0 {
		s.MaxHP = state.StartHP + s.Level*5
	}
	if s.XPReq <= 0 {
		s.XPReq = state.StartXPReq
	}
	if s.RivalDamage <= 0 {
		s.RivalDamage = state.StartRivalDamage
	}
	if s.DailyModifier.Name == "" {
		s.DailyModifier = cat.Neutral
	}
}
