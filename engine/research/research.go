// Package research gates non-combat research quests behind a combat ratio
// and validates their word counts on completion.
package research

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nathoo/questrun/engine/errs"
	"github.com/nathoo/questrun/engine/skills"
	"github.com/nathoo/questrun/engine/state"
	"github.com/nathoo/questrun/types"
)

const (
	// RequiredRatio is the number of combat completions needed per research
	// quest created.
	RequiredRatio = 2
	// MaxPenalty is the gold deducted at 100% overage.
	MaxPenalty = 20
)

// Limit returns the word target of a research kind.
func Limit(kind types.ResearchKind) (int, bool) {
	switch kind {
	case types.ResearchSurvey:
		return 200, true
	case types.ResearchDeepDive:
		return 400, true
	}
	return 0, false
}

// SkillXP returns the skill XP awarded on completion of a research kind.
func SkillXP(kind types.ResearchKind) int {
	if kind == types.ResearchDeepDive {
		return 20
	}
	return 5
}

// Band returns the accepted word-count range for a limit: [ceil(0.8L), ceil(1.25L)].
func Band(limit int) (lo, hi int) {
	return (4*limit + 4) / 5, (5*limit + 3) / 4
}

// Penalty returns the gold penalty for finishing with words over limit:
// floor(20 * overage% / 100).
func Penalty(words, limit int) int {
	if words <= limit || limit <= 0 {
		return 0
	}
	return MaxPenalty * (words - limit) / limit
}

// CanCreate reports whether the combat ratio allows another research quest.
func CanCreate(stats types.ResearchStats) bool {
	return stats.TotalCombat >= RequiredRatio*max(1, stats.TotalResearch)
}

// Create registers a new research quest.
func Create(s *types.RunState, title string, kind types.ResearchKind, linkedSkill, linkedQuest string, now time.Time) (*types.ResearchQuest, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errs.Blocked(errs.InvalidInput, "research title is required")
	}
	limit, ok := Limit(kind)
	if !ok {
		return nil, errs.Blocked(errs.InvalidInput, "unknown research kind %q (want survey or deep_dive)", kind)
	}
	if linkedSkill != "" && state.FindSkill(s, linkedSkill) == nil {
		return nil, errs.NotFound("skill", linkedSkill)
	}
	if !CanCreate(s.ResearchStats) {
		return nil, errs.Blocked(errs.ResearchRatio,
			"complete more combat quests first: %d combat for %d research, need %d:1",
			s.ResearchStats.TotalCombat, s.ResearchStats.TotalResearch, RequiredRatio)
	}

	if s.NextResearchID < 1 {
		s.NextResearchID = 1
	}
	s.ResearchQuests = append(s.ResearchQuests, types.ResearchQuest{
		ID:          s.NextResearchID,
		Title:       title,
		Kind:        kind,
		WordLimit:   limit,
		LinkedSkill: linkedSkill,
		LinkedQuest: linkedQuest,
		CreatedAt:   now,
	})
	s.NextResearchID++
	s.ResearchStats.TotalResearch++
	return &s.ResearchQuests[len(s.ResearchQuests)-1], nil
}

// Outcome reports the effect of completing a research quest.
type Outcome struct {
	Title        string
	SkillXP      int
	Skill        string
	SkillLevelUp bool
	Penalty      int
}

// Complete finishes a research quest with its final word count.
func Complete(s *types.RunState, id, words int, now time.Time) (Outcome, error) {
	rq := state.FindResearch(s, id)
	if rq == nil {
		return Outcome{}, errs.NotFound("research", fmt.Sprint(id))
	}
	if rq.Completed {
		return Outcome{}, errs.Blocked(errs.AlreadyDone, "research %d is already complete", id)
	}
	lo, hi := Band(rq.WordLimit)
	if words < lo {
		return Outcome{}, errs.Blocked(errs.WordCount, "too short: %d words, need at least %d", words, lo)
	}
	if words > hi {
		return Outcome{}, errs.Blocked(errs.WordCount, "locked, too long: %d words, at most %d", words, hi)
	}
	if rq.LinkedSkill != "" && state.FindSkill(s, rq.LinkedSkill) == nil {
		return Outcome{}, errs.NotFound("skill", rq.LinkedSkill)
	}

	out := Outcome{Title: rq.Title, Skill: rq.LinkedSkill, Penalty: Penalty(words, rq.WordLimit)}
	if rq.LinkedSkill != "" {
		out.SkillXP = SkillXP(rq.Kind)
		out.SkillLevelUp, _ = skills.AddXP(s, rq.LinkedSkill, float64(out.SkillXP))
	}
	s.Gold -= out.Penalty

	rq.WordCount = words
	rq.Completed = true
	rq.CompletedAt = state.TimePtr(now)
	s.ResearchStats.ResearchCompleted++
	return out, nil
}

// Delete removes a research quest and rolls back the counter it contributed.
func Delete(s *types.RunState, id int) (types.ResearchQuest, error) {
	i := slices.IndexFunc(s.ResearchQuests, func(r types.ResearchQuest) bool { return r.ID == id })
	if i < 0 {
		return types.ResearchQuest{}, errs.NotFound("research", fmt.Sprint(id))
	}
	rq := s.ResearchQuests[i]
	s.ResearchQuests = slices.Delete(s.ResearchQuests, i, i+1)
	if rq.Completed {
		s.ResearchStats.ResearchCompleted = max(0, s.ResearchStats.ResearchCompleted-1)
	} else {
		s.ResearchStats.TotalResearch = max(0, s.ResearchStats.TotalResearch-1)
	}
	return rq, nil
}

// SetWordCount records the live word count of an open research quest.
func SetWordCount(s *types.RunState, id, words int) error {
	if words < 0 {
		return errs.Blocked(errs.InvalidInput, "word count cannot be negative")
	}
	rq := state.FindResearch(s, id)
	if rq == nil {
		return errs.NotFound("research", fmt.Sprint(id))
	}
	if rq.Completed {
		return errs.Blocked(errs.AlreadyDone, "research %d is already complete", id)
	}
	rq.WordCount = words
	return nil
}
