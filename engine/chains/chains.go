// Package chains sequences quests that must be completed strictly in order.
// Several chains may be stored, but only the current one gates quest order.
package chains

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nathoo/questrun/engine/errs"
	"github.com/nathoo/questrun/engine/state"
	"github.com/nathoo/questrun/types"
)

const (
	// CompletionBonus is awarded once when the last link completes.
	CompletionBonus = 100
	// LinkCredit is the nominal per-link XP logged when a chain is broken.
	LinkCredit = 10
	MinLength  = 2
)

// Progress reports the effect of an advance.
type Progress struct {
	Chain     string
	Index     int
	Total     int
	Completed bool
	BonusXP   int
}

// Fraction returns progress as done/total.
func (p Progress) Fraction() string {
	return fmt.Sprintf("%d/%d", p.Index, p.Total)
}

// Create stores a new chain and makes it current.
func Create(s *types.RunState, name string, refs []string, now time.Time) (*types.QuestChain, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Blocked(errs.InvalidInput, "chain name is required")
	}
	if len(refs) < MinLength {
		return nil, errs.Blocked(errs.InvalidInput, "a chain needs at least %d quests, got %d", MinLength, len(refs))
	}
	s.ActiveChains = append(s.ActiveChains, types.QuestChain{
		ID:        uuid.NewString(),
		Name:      name,
		Quests:    slices.Clone(refs),
		CreatedAt: now,
	})
	c := &s.ActiveChains[len(s.ActiveChains)-1]
	s.CurrentChainID = c.ID
	return c, nil
}

// IsGating reports whether ref belongs to the current incomplete chain.
func IsGating(s *types.RunState, ref string) bool {
	c := state.CurrentChain(s)
	if c == nil || !active(c) {
		return false
	}
	return slices.Contains(c.Quests, ref)
}

// CanStart reports whether ref may be completed now.
func CanStart(s *types.RunState, ref string) bool {
	c := state.CurrentChain(s)
	if c == nil || !active(c) {
		return true
	}
	return c.Quests[c.CurrentIndex] == ref
}

// Expected returns the next ref of the current chain, or "".
func Expected(s *types.RunState) string {
	c := state.CurrentChain(s)
	if c == nil || !active(c) {
		return ""
	}
	return c.Quests[c.CurrentIndex]
}

// Check rejects ref when it is gated and out of order.
func Check(s *types.RunState, ref string) error {
	if IsGating(s, ref) && !CanStart(s, ref) {
		return errs.Blocked(errs.ChainOrder, "chain order: complete %q before %q", Expected(s), ref)
	}
	return nil
}

// Advance moves the current chain past ref.
func Advance(s *types.RunState, ref string, now time.Time) (Progress, error) {
	c := state.CurrentChain(s)
	if c == nil || !active(c) {
		return Progress{}, errs.NotFound("chain", "current")
	}
	if c.Quests[c.CurrentIndex] != ref {
		return Progress{}, errs.Blocked(errs.ChainOrder, "chain %q expects %q, not %q", c.Name, c.Quests[c.CurrentIndex], ref)
	}
	c.CurrentIndex++
	p := Progress{Chain: c.Name, Index: c.CurrentIndex, Total: len(c.Quests)}
	if c.CurrentIndex < len(c.Quests) {
		return p, nil
	}

	c.Completed = true
	c.CompletedAt = state.TimePtr(now)
	s.ChainHistory = append(s.ChainHistory, types.QuestChainRecord{
		ChainID:        c.ID,
		Name:           c.Name,
		Total:          len(c.Quests),
		CompletedLinks: len(c.Quests),
		XPEarned:       CompletionBonus,
		Outcome:        types.ChainOutcomeCompleted,
		At:             now,
	})
	s.CurrentChainID = ""
	p.Completed = true
	p.BonusXP = CompletionBonus
	return p, nil
}

// Break terminates the current chain early. XP already earned is kept; the
// history record carries a nominal LinkCredit per completed link.
func Break(s *types.RunState, now time.Time) (types.QuestChainRecord, error) {
	c := state.CurrentChain(s)
	if c == nil || !active(c) {
		return types.QuestChainRecord{}, errs.NotFound("chain", "current")
	}
	rec := types.QuestChainRecord{
		ChainID:        c.ID,
		Name:           c.Name,
		Total:          len(c.Quests),
		CompletedLinks: c.CurrentIndex,
		XPEarned:       c.CurrentIndex * LinkCredit,
		Outcome:        types.ChainOutcomeBroken,
		At:             now,
	}
	s.ChainHistory = append(s.ChainHistory, rec)
	id := c.ID
	s.ActiveChains = slices.DeleteFunc(s.ActiveChains, func(q types.QuestChain) bool { return q.ID == id })
	s.CurrentChainID = ""
	return rec, nil
}

func active(c *types.QuestChain) bool {
	return !c.Completed && c.CurrentIndex < len(c.Quests)
}
