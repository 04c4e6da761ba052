package state

import (
	"fmt"
	"testing"
	"time"

	"github.com/nathoo/questrun/catalog"
	"github.com/nathoo/questrun/types"
)

func TestNewRunState(t *testing.T) {
	cat := catalog.Default()
	s := NewRunState(cat)

	if s.HP != StartHP || s.MaxHP != StartHP {
		t.Errorf("hp = %d/%d, want %d", s.HP, s.MaxHP, StartHP)
	}
	if s.Level != 0 || s.XPReq != StartXPReq || s.RivalDamage != StartRivalDamage {
		t.Errorf("level/xpReq/rival = %d/%d/%d", s.Level, s.XPReq, s.RivalDamage)
	}
	if s.DailyModifier != cat.Neutral {
		t.Errorf("modifier = %q, want neutral", s.DailyModifier.Name)
	}
	if len(s.BossMilestones) != len(cat.Bosses) {
		t.Fatalf("bosses = %d, want %d", len(s.BossMilestones), len(cat.Bosses))
	}
	for _, b := range s.BossMilestones {
		if b.Unlocked || b.Defeated {
			t.Errorf("boss %d should start locked", b.Level)
		}
	}
	if len(s.Achievements) != len(cat.Achievements) {
		t.Errorf("achievements = %d", len(s.Achievements))
	}
	if s.NextResearchID != 1 || s.SkillUsesToday == nil {
		t.Error("research id and skill use map must be initialised")
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2026-03-01", "2026-03-01", 0},
		{"2026-03-01", "2026-03-02", 1},
		{"2026-02-27", "2026-03-02", 3},
		{"2025-12-31", "2026-01-01", 1},
		{"garbage", "2026-01-01", 0},
	}
	for _, tt := range tests {
		if got := DaysBetween(tt.a, tt.b); got != tt.want {
			t.Errorf("DaysBetween(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDayKey_UsesLocation(t *testing.T) {
	tz := time.FixedZone("UTC+10", 10*3600)
	at := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	if got := DayKey(at.In(tz)); got != "2026-03-02" {
		t.Errorf("DayKey = %s, want 2026-03-02", got)
	}
}

func TestToday_AppendsOnce(t *testing.T) {
	s := NewRunState(catalog.Default())
	m := Today(s, "2026-03-01")
	m.QuestsCompleted++
	Today(s, "2026-03-01").QuestsCompleted++
	if len(s.DayMetrics) != 1 || s.DayMetrics[0].QuestsCompleted != 2 {
		t.Fatalf("metrics = %+v", s.DayMetrics)
	}
	Today(s, "2026-03-02")
	if len(s.DayMetrics) != 2 {
		t.Errorf("metrics = %d, want 2", len(s.DayMetrics))
	}
}

func TestRecord_Caps(t *testing.T) {
	s := NewRunState(catalog.Default())
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < HistoryCap+5; i++ {
		Record(s, now, "test", fmt.Sprint(i))
	}
	if len(s.History) != HistoryCap {
		t.Fatalf("history = %d, want %d", len(s.History), HistoryCap)
	}
	if s.History[0].Message != "5" {
		t.Errorf("oldest = %q, want 5", s.History[0].Message)
	}
}

func TestFinders(t *testing.T) {
	s := NewRunState(catalog.Default())
	s.Skills = append(s.Skills, types.Skill{Name: "Go"})
	s.ActiveChains = append(s.ActiveChains, types.QuestChain{ID: "c1", Name: "Ship"})
	s.ResearchQuests = append(s.ResearchQuests, types.ResearchQuest{ID: 3})

	if FindSkill(s, "Go") == nil || FindSkill(s, "Rust") != nil {
		t.Error("FindSkill")
	}
	if CurrentChain(s) != nil {
		t.Error("no chain is current yet")
	}
	s.CurrentChainID = "c1"
	if c := CurrentChain(s); c == nil || c.Name != "Ship" {
		t.Error("CurrentChain")
	}
	if FindResearch(s, 3) == nil || FindResearch(s, 4) != nil {
		t.Error("FindResearch")
	}
	if FindBoss(s, 20) == nil || FindBoss(s, 15) != nil {
		t.Error("FindBoss")
	}

	FindSkill(s, "Go").Level = 5
	if s.Skills[0].Level != 5 {
		t.Error("finders must return pointers into the state")
	}
}

func TestActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if Active(nil, now) {
		t.Error("nil is never active")
	}
	if !Active(TimePtr(now.Add(time.Second)), now) {
		t.Error("future stamp is active")
	}
	if Active(TimePtr(now), now) {
		t.Error("a stamp equal to now has expired")
	}
}
