package save

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nathoo/questrun/catalog"
	"github.com/nathoo/questrun/engine/state"
	"github.com/nathoo/questrun/types"
)

var t0 = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func TestRoundTrip(t *testing.T) {
	cat := catalog.Default()
	s := state.NewRunState(cat)

	s.HP = 42
	s.Gold = -7
	s.XP = 55
	s.Level = 3
	s.LastLoginDate = "2026-05-04"
	s.LockdownUntil = state.TimePtr(t0.Add(6 * time.Hour))
	s.DailyModifier = cat.Modifiers[1]
	s.Skills = append(s.Skills, types.Skill{Name: "coding", Level: 2, XP: 1.5, XPReq: 11, LastUsedAt: t0, Rust: 3, Connections: []string{"writing"}})
	s.ActiveChains = append(s.ActiveChains, types.QuestChain{ID: "c1", Name: "Move", Quests: []string{"a", "b"}, CurrentIndex: 1, CreatedAt: t0})
	s.CurrentChainID = "c1"
	s.ResearchQuests = append(s.ResearchQuests, types.ResearchQuest{ID: 1, Title: "notes", Kind: types.ResearchSurvey, WordLimit: 200, CreatedAt: t0})
	s.NextResearchID = 2
	s.DailyMissions = append(s.DailyMissions, types.DailyMission{ID: "gambler", Kind: types.MissionHighStakes, Target: 1, Reward: types.Reward{XP: 25, Gold: 25}})
	s.SkillUsesToday["coding"] = 2
	s.Streak = types.Streak{Current: 2, Longest: 5, LastDate: "2026-05-04"}
	s.Legacy = types.Legacy{DeathCount: 1, BestLevel: 8, LastDeathAt: state.TimePtr(t0.Add(-48 * time.Hour))}
	s.Filters = types.Filters{Status: "active", Difficulty: 3}
	s.RNGSeed = 42
	s.RNGPosition = 17
	state.Record(s, t0, "quest", "Completed Laundry")

	data, err := Save(s)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Load(data, cat)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(s, got) {
		t.Errorf("round trip mismatch:\nwant %+v\ngot  %+v", s, got)
	}
}

func TestLoad_RepairsNils(t *testing.T) {
	got, err := Load([]byte(`{"hp": 90, "level": 2, "skills": [{"name": "art", "level": 1, "xp_req": 10}]}`), catalog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if got.SkillUsesToday == nil || got.History == nil || got.Skills[0].Connections == nil {
		t.Error("nil collections survived load")
	}
	if len(got.BossMilestones) != 4 || len(got.Achievements) == 0 {
		t.Errorf("catalog lists not restored: %d bosses, %d achievements", len(got.BossMilestones), len(got.Achievements))
	}
	if got.MaxHP != 110 || got.XPReq != state.StartXPReq || got.NextResearchID != 1 {
		t.Errorf("defaults: maxHP %d xpReq %d next %d", got.MaxHP, got.XPReq, got.NextResearchID)
	}
}

func TestLoad_NextResearchIDAfterExisting(t *testing.T) {
	got, err := Load([]byte(`{"research_quests": [{"id": 4}], "next_research_id": 2}`), catalog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if got.NextResearchID != 5 {
		t.Errorf("NextResearchID = %d", got.NextResearchID)
	}
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load([]byte("{not json"), catalog.Default())
	if err == nil || !strings.Contains(err.Error(), "decoding run state") {
		t.Errorf("err = %v", err)
	}
}
