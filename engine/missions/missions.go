// Package missions rolls the three daily objectives and advances them from
// domain events.
package missions

import (
	"time"

	"github.com/nathoo/questrun/catalog"
	"github.com/nathoo/questrun/engine/events"
	"github.com/nathoo/questrun/engine/ledger"
	"github.com/nathoo/questrun/types"
)

const (
	PerDay = 3
	// AllCompleteBonus is the gold paid once when every mission of the day is done.
	AllCompleteBonus = 50
	MorningCutoff    = 10
	FastWindow       = 2 * time.Hour
	HardDifficulty   = 4
)

// Random is the randomness a roll consumes.
type Random interface {
	Intn(n int) int
}

// Roll samples PerDay distinct missions from the pool (all of them if the
// pool is smaller) and resets the daily counters.
func Roll(s *types.RunState, pool []catalog.MissionDef, rng Random) []types.DailyMission {
	idx := make([]int, len(pool))
	for i := range idx {
		idx[i] = i
	}
	k := min(PerDay, len(pool))
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
	}

	out := make([]types.DailyMission, 0, k)
	for _, i := range idx[:k] {
		d := pool[i]
		out = append(out, types.DailyMission{
			ID:          d.ID,
			Kind:        d.Kind,
			Name:        d.Name,
			Description: d.Description,
			Target:      max(1, d.Target),
			Reward:      d.Reward,
		})
	}
	s.DailyMissions = out
	s.QuestsCompletedToday = 0
	s.SkillUsesToday = map[string]int{}
	s.DailyMissionBonusPaid = false
	return out
}

// Outcome lists what an event completed.
type Outcome struct {
	Completed []types.DailyMission
	XP        int
	Gold      int
	Bonus     bool
}

// OnEvent advances the day's missions from ev and grants rewards for any
// mission it completes. A QuestCompleted event also tallies the daily
// counters before evaluation.
func OnEvent(s *types.RunState, ev events.Event) Outcome {
	if e, ok := ev.(events.QuestCompleted); ok {
		tally(s, e)
	}

	var out Outcome
	for i := range s.DailyMissions {
		m := &s.DailyMissions[i]
		if m.Completed {
			continue
		}
		advance(s, m, ev)
		if m.Progress < m.Target {
			continue
		}
		m.Progress = m.Target
		m.Completed = true
		ledger.Grant(s, m.Reward.XP, m.Reward.Gold)
		out.Completed = append(out.Completed, *m)
		out.XP += m.Reward.XP
		out.Gold += m.Reward.Gold
	}

	if AllComplete(s) && !s.DailyMissionBonusPaid {
		s.DailyMissionBonusPaid = true
		ledger.Grant(s, 0, AllCompleteBonus)
		out.Bonus = true
		out.Gold += AllCompleteBonus
	}
	return out
}

// AllComplete reports whether the day has missions and all are done.
func AllComplete(s *types.RunState) bool {
	if len(s.DailyMissions) == 0 {
		return false
	}
	for _, m := range s.DailyMissions {
		if !m.Completed {
			return false
		}
	}
	return true
}

func tally(s *types.RunState, e events.QuestCompleted) {
	s.QuestsCompletedToday++
	if s.SkillUsesToday == nil {
		s.SkillUsesToday = map[string]int{}
	}
	if e.Skill != "" {
		s.SkillUsesToday[e.Skill]++
	}
}

func advance(s *types.RunState, m *types.DailyMission, ev events.Event) {
	switch e := ev.(type) {
	case events.QuestCompleted:
		switch m.Kind {
		case types.MissionMorningTrivial:
			if e.Difficulty == 1 && e.At.Hour() < MorningCutoff {
				m.Progress++
			}
		case types.MissionQuestCount:
			m.Progress = s.QuestsCompletedToday
		case types.MissionSkillRepeat:
			m.Progress = maxUses(s.SkillUsesToday)
		case types.MissionHighStakes:
			if e.HighStakes {
				m.Progress++
			}
		case types.MissionFastComplete:
			if !e.Created.IsZero() && e.At.Sub(e.Created) <= FastWindow {
				m.Progress++
			}
		case types.MissionSynergy:
			if e.Skill != "" && e.Secondary != "" && e.Secondary != e.Skill {
				m.Progress++
			}
		case types.MissionNoDamage:
			m.Progress++
		case types.MissionHardQuest:
			if e.Difficulty >= HardDifficulty {
				m.Progress++
			}
		}
	case events.DamageTaken:
		if m.Kind == types.MissionNoDamage && e.Amount > 0 {
			m.Progress = 0
		}
	case events.InboxChecked:
		if m.Kind == types.MissionZeroInbox && e.Empty() {
			m.Progress = m.Target
		}
	}
}

func maxUses(uses map[string]int) int {
	best := 0
	for _, n := range uses {
		best = max(best, n)
	}
	return best
}
