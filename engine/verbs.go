package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nathoo/questrun/catalog"
	"github.com/nathoo/questrun/engine/bosses"
	"github.com/nathoo/questrun/engine/chains"
	"github.com/nathoo/questrun/engine/chaos"
	"github.com/nathoo/questrun/engine/errs"
	"github.com/nathoo/questrun/engine/ledger"
	"github.com/nathoo/questrun/engine/lockdown"
	"github.com/nathoo/questrun/engine/research"
	"github.com/nathoo/questrun/engine/state"
	"github.com/nathoo/questrun/types"
)

// Research

// CreateResearchQuest opens a research quest if the combat ratio allows it.
func (e *Engine) CreateResearchQuest(ctx context.Context, title string, kind types.ResearchKind, linkedSkill, linkedQuest string) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clock.Now()
	if err := lockdown.Gate(e.state, now, "create research"); err != nil {
		return e.reject("create research", err)
	}
	rq, err := research.Create(e.state, title, kind, linkedSkill, linkedQuest, now)
	if err != nil {
		return e.reject("create research", err)
	}
	state.Record(e.state, now, "research", "Created "+rq.Title)
	out := &types.Result{}
	lo, hi := research.Band(rq.WordLimit)
	say(out, "Research #%d created: %s (%d words, accepted %d-%d).", rq.ID, rq.Title, rq.WordLimit, lo, hi)
	return e.commit(ctx, "research created", out)
}

// CompleteResearchQuest finishes a research quest with its final word count.
func (e *Engine) CompleteResearchQuest(ctx context.Context, id, words int) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clock.Now()
	if err := lockdown.Gate(e.state, now, "complete research"); err != nil {
		return e.reject("complete research", err)
	}
	res, err := research.Complete(e.state, id, words, now)
	if err != nil {
		return e.reject("complete research", err)
	}
	e.sched.Cancel(wordKey(id))
	e.today(now).ResearchCompleted++

	out := &types.Result{}
	say(out, "Research complete: %s.", res.Title)
	if res.SkillXP > 0 {
		say(out, "%s +%d XP.", res.Skill, res.SkillXP)
	}
	if res.SkillLevelUp {
		say(out, "Skill %s leveled up!", res.Skill)
	}
	if res.Penalty > 0 {
		say(out, "Over the word limit: -%d gold.", res.Penalty)
	}
	e.unlock(achScholar, now, out)
	state.Record(e.state, now, "research", "Completed "+res.Title)
	return e.commit(ctx, "research completed", out)
}

// DeleteResearchQuest removes a research quest.
func (e *Engine) DeleteResearchQuest(ctx context.Context, id int) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rq, err := research.Delete(e.state, id)
	if err != nil {
		return e.reject("delete research", err)
	}
	e.sched.Cancel(wordKey(id))
	out := &types.Result{}
	say(out, "Research #%d deleted: %s.", rq.ID, rq.Title)
	return e.commit(ctx, "research deleted", out)
}

// UpdateResearchWordCount records a live word count. Updates are debounced:
// only the last value within WordDebounce is applied, by RunDue.
func (e *Engine) UpdateResearchWordCount(_ context.Context, id, words int) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rq := state.FindResearch(e.state, id)
	if rq == nil {
		return e.reject("word count", errs.NotFound("research", fmt.Sprint(id)))
	}
	if rq.Completed {
		return e.reject("word count", errs.Blocked(errs.AlreadyDone, "research %d is already complete", id))
	}
	if words < 0 {
		return e.reject("word count", errs.Blocked(errs.InvalidInput, "word count cannot be negative"))
	}
	e.sched.Schedule(wordKey(id), e.clock.Now().Add(WordDebounce), func(time.Time) {
		if err := research.SetWordCount(e.state, id, words); err != nil {
			e.log.Debug("word count dropped", "research", id, "err", err)
		}
	})
	return types.Result{Output: []string{fmt.Sprintf("Research #%d: %d/%d words.", id, words, rq.WordLimit)}}, nil
}

func wordKey(id int) string { return fmt.Sprintf("words:%d", id) }

// Chains

// CreateQuestChain links existing quests into a chain and makes it current.
func (e *Engine) CreateQuestChain(ctx context.Context, name string, refs []string) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ref := range refs {
		if _, err := e.quests.Get(ctx, ref); err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return e.reject("create chain", err)
			}
			return types.Result{}, fmt.Errorf("look up quest %s: %w", ref, err)
		}
	}
	now := e.clock.Now()
	c, err := chains.Create(e.state, name, refs, now)
	if err != nil {
		return e.reject("create chain", err)
	}
	state.Record(e.state, now, "chain", "Started "+c.Name)
	out := &types.Result{}
	say(out, "Chain %s started: %s.", c.Name, strings.Join(c.Quests, " -> "))
	return e.commit(ctx, "chain created", out)
}

// BreakChain abandons the current chain.
func (e *Engine) BreakChain(ctx context.Context) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clock.Now()
	rec, err := chains.Break(e.state, now)
	if err != nil {
		return e.reject("break chain", err)
	}
	state.Record(e.state, now, "chain", "Broke "+rec.Name)
	out := &types.Result{}
	say(out, "Chain %s broken at %d/%d.", rec.Name, rec.CompletedLinks, rec.Total)
	return e.commit(ctx, "chain broken", out)
}

// Bosses

// DefeatBoss records a boss victory outside a boss quest.
func (e *Engine) DefeatBoss(ctx context.Context, level int) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clock.Now()
	out := &types.Result{}
	if err := e.defeatBoss(level, now, out); err != nil {
		return e.reject("defeat boss", err)
	}
	e.levelUp(now, out)
	return e.commit(ctx, "boss defeated", out)
}

func (e *Engine) defeatBoss(level int, now time.Time, out *types.Result) error {
	b, err := bosses.Defeat(e.state, level, now)
	if err != nil {
		return err
	}
	ledger.Grant(e.state, b.XPReward, 0)
	e.today(now).XPEarned += b.XPReward
	e.log.Info("boss defeated", "boss", b.Name, "level", b.Level)
	state.Record(e.state, now, "boss", "Defeated "+b.Name)
	say(out, "%s defeated! +%d XP.", b.Name, b.XPReward)
	e.unlock(achBossSlayer, now, out)
	if e.state.GameWon {
		say(out, "VICTORY. The final boss has fallen.")
		e.unlock(achVictory, now, out)
	}
	return nil
}

// Economy

// RerollModifier pays to roll a new daily modifier.
func (e *Engine) RerollModifier(ctx context.Context) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cost := ledger.Price(RerollCost, e.state.DailyModifier)
	if err := ledger.Spend(e.state, cost); err != nil {
		return e.reject("reroll", err)
	}
	m := chaos.Apply(e.state, e.rng, e.cat.Neutral, e.cat.Modifiers)
	out := &types.Result{}
	say(out, "Paid %d gold. New modifier: %s. %s", cost, m.Name, m.Description)
	return e.commit(ctx, "modifier rerolled", out)
}

// Buy purchases a shop item.
func (e *Engine) Buy(ctx context.Context, id string) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clock.Now()
	it, ok := e.cat.Item(id)
	if !ok {
		return e.reject("buy", errs.NotFound("item", id))
	}
	cost := ledger.Price(it.Price, e.state.DailyModifier)
	if err := ledger.Spend(e.state, cost); err != nil {
		return e.reject("buy", err)
	}

	out := &types.Result{}
	switch it.ID {
	case catalog.ItemShield:
		y, m, d := now.Date()
		e.state.ShieldUntil = state.TimePtr(time.Date(y, m, d+1, 0, 0, 0, 0, now.Location()))
	case catalog.ItemRest:
		e.state.RestUntil = state.TimePtr(now.Add(RestDuration))
	case catalog.ItemPotion:
		ledger.Heal(e.state, PotionHeal)
	}
	state.Record(e.state, now, "shop", "Bought "+it.Name)
	say(out, "Bought %s for %d gold. %s", it.Name, cost, it.Description)
	return e.commit(ctx, "item bought", out)
}

// Filters

// SetFilterState stores UI filter state.
func (e *Engine) SetFilterState(ctx context.Context, f types.Filters) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Filters = f
	return e.commit(ctx, "filters", &types.Result{})
}

// ClearFilters resets UI filter state.
func (e *Engine) ClearFilters(ctx context.Context) (types.Result, error) {
	return e.SetFilterState(ctx, types.Filters{})
}

// TriggerDeath ends the run immediately.
func (e *Engine) TriggerDeath(ctx context.Context) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := &types.Result{}
	e.resetRun(e.clock.Now(), out)
	return e.commit(ctx, "death", out)
}
