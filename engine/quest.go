package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/nathoo/questrun/engine/chains"
	"github.com/nathoo/questrun/engine/errs"
	"github.com/nathoo/questrun/engine/events"
	"github.com/nathoo/questrun/engine/ledger"
	"github.com/nathoo/questrun/engine/lockdown"
	"github.com/nathoo/questrun/engine/skills"
	"github.com/nathoo/questrun/engine/state"
	"github.com/nathoo/questrun/quests"
	"github.com/nathoo/questrun/types"
)

// NewQuest describes a quest to create. Zero rewards take the catalog
// values for the difficulty.
type NewQuest struct {
	Name           string
	Difficulty     int
	Skill          string
	SecondarySkill string
	Deadline       *time.Time
	HighStakes     bool
	Priority       string
	IsBoss         bool
	BossLevel      int
	XPReward       int
	GoldReward     int
	Body           string
}

// deletion is an undo buffer entry.
type deletion struct {
	quest types.Quest
	at    time.Time
}

// Slug derives a quest ref from a name.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// CreateQuest validates and stores a new quest.
func (e *Engine) CreateQuest(ctx context.Context, nq NewQuest) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clock.Now()

	if err := lockdown.Gate(e.state, now, "create quests"); err != nil {
		return e.reject("create quest", err)
	}
	ref := Slug(nq.Name)
	if ref == "" {
		return e.reject("create quest", errs.Blocked(errs.InvalidInput, "quest name is required"))
	}
	if nq.Difficulty < 1 || nq.Difficulty > 5 {
		return e.reject("create quest", errs.Blocked(errs.InvalidInput, "difficulty must be 1-5, got %d", nq.Difficulty))
	}
	if err := skills.Validate(e.state, nq.Skill, nq.SecondarySkill); err != nil {
		return e.reject("create quest", err)
	}
	if nq.IsBoss {
		b := state.FindBoss(e.state, nq.BossLevel)
		switch {
		case b == nil:
			return e.reject("create quest", errs.NotFound("boss", fmt.Sprint(nq.BossLevel)))
		case !b.Unlocked:
			return e.reject("create quest", errs.Blocked(errs.BossLocked, "%s is locked until level %d", b.Name, b.Level))
		case b.Defeated:
			return e.reject("create quest", errs.Blocked(errs.AlreadyDone, "%s is already defeated", b.Name))
		}
	}
	if _, err := e.quests.Get(ctx, ref); err == nil {
		return e.reject("create quest", errs.Blocked(errs.DuplicateEntry, "quest %q already exists", ref))
	} else if !errors.Is(err, errs.ErrNotFound) {
		return types.Result{}, fmt.Errorf("look up quest %s: %w", ref, err)
	}

	reward := e.cat.Reward(nq.Difficulty)
	q := types.Quest{
		Ref:            ref,
		Name:           strings.TrimSpace(nq.Name),
		Status:         types.QuestActive,
		Difficulty:     nq.Difficulty,
		Skill:          nq.Skill,
		SecondarySkill: nq.SecondarySkill,
		XPReward:       reward.XP,
		GoldReward:     reward.Gold,
		HighStakes:     nq.HighStakes,
		IsBoss:         nq.IsBoss,
		BossLevel:      nq.BossLevel,
		Priority:       nq.Priority,
		Deadline:       nq.Deadline,
		Created:        now,
		Body:           nq.Body,
	}
	if nq.XPReward > 0 {
		q.XPReward = nq.XPReward
	}
	if nq.GoldReward > 0 {
		q.GoldReward = nq.GoldReward
	}
	if err := e.quests.Put(ctx, q); err != nil {
		return types.Result{}, fmt.Errorf("store quest %s: %w", ref, err)
	}

	state.Record(e.state, now, "quest", "Created "+q.Name)
	out := &types.Result{}
	say(out, "Quest created: %s [%s] (%s, %d XP, %d gold).", q.Name, ref, quests.DifficultyLabel(q.Difficulty), q.XPReward, q.GoldReward)
	return e.commit(ctx, "quest created", out)
}

// CompleteQuest applies a quest completion.
func (e *Engine) CompleteQuest(ctx context.Context, ref string) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clock.Now()
	s := e.state

	// 1. Lockdown gate.
	if err := lockdown.Gate(s, now, "complete quests"); err != nil {
		return e.reject("complete", err)
	}

	// 2. Quest lookup.
	q, err := e.quests.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return e.reject("complete", err)
		}
		return types.Result{}, fmt.Errorf("look up quest %s: %w", ref, err)
	}
	if q.Status != types.QuestActive {
		return e.reject("complete", errs.Blocked(errs.AlreadyDone, "quest %q is already %s", ref, q.Status))
	}

	// 3. Chain gate.
	if err := chains.Check(s, ref); err != nil {
		return e.reject("complete", err)
	}

	// 4. Skill existence, and boss availability for boss quests.
	if err := skills.Validate(s, q.Skill, q.SecondarySkill); err != nil {
		return e.reject("complete", err)
	}
	if q.IsBoss {
		b := state.FindBoss(s, q.BossLevel)
		switch {
		case b == nil:
			return e.reject("complete", errs.NotFound("boss", fmt.Sprint(q.BossLevel)))
		case !b.Unlocked:
			return e.reject("complete", errs.Blocked(errs.BossLocked, "%s is locked until level %d", b.Name, b.Level))
		case b.Defeated:
			return e.reject("complete", errs.Blocked(errs.AlreadyDone, "%s is already defeated", b.Name))
		}
	}

	out := &types.Result{}
	mod := s.DailyModifier
	metric := e.today(now)

	// 5. Chain advance.
	if chains.IsGating(s, ref) {
		p, err := chains.Advance(s, ref, now)
		switch {
		case err != nil:
			// Order was checked in step 3.
			e.log.Error("chain advance failed after check", "quest", ref, "err", err)
		case p.Completed:
			ledger.Grant(s, p.BonusXP, 0)
			metric.XPEarned += p.BonusXP
			say(out, "Chain %s complete! +%d XP.", p.Chain, p.BonusXP)
			e.unlock(achChainMaster, now, out)
		default:
			say(out, "Chain %s: %s.", p.Chain, p.Fraction())
		}
	}

	// 6. Boss defeat.
	if q.IsBoss {
		if err := e.defeatBoss(q.BossLevel, now, out); err != nil {
			e.log.Error("boss defeat failed after check", "quest", ref, "err", err)
		}
	}

	// 7. Metrics, streak, combat tally.
	metric.QuestsCompleted++
	e.extendStreak(now)
	s.ResearchStats.TotalCombat++
	s.ResearchStats.CombatCompleted++

	// 8. Rewards with the daily modifier.
	reward := e.cat.Reward(q.Difficulty)
	baseXP, baseGold := q.XPReward, q.GoldReward
	if baseXP == 0 {
		baseXP = reward.XP
	}
	if baseGold == 0 {
		baseGold = reward.Gold
	}
	xp, gold := ledger.Award(s, baseXP, baseGold, mod)
	metric.XPEarned += xp
	metric.GoldEarned += gold
	say(out, "Quest complete: %s. +%d XP, +%d gold.", q.Name, xp, gold)

	// 9. Skills and synergy.
	use, err := skills.OnQuestComplete(s, q.Skill, q.SecondarySkill, now)
	if err != nil {
		// Validated in step 4.
		e.log.Error("skill update failed after validation", "quest", ref, "err", err)
	}
	if use.Polished {
		say(out, "Skill %s polished; rust cleared.", q.Skill)
	}
	if use.PrimaryLevelUp {
		say(out, "Skill %s leveled up!", q.Skill)
	}
	if use.SecondaryLevelUp {
		say(out, "Skill %s leveled up!", q.SecondarySkill)
	}
	if use.SynergyBonus > 0 {
		bonus, _ := ledger.Award(s, use.SynergyBonus, 0, mod)
		metric.XPEarned += bonus
		say(out, "Synergy with %s: +%d XP.", q.SecondarySkill, bonus)
	}
	if use.NewConnection {
		say(out, "New skill connection: %s -> %s.", q.Skill, q.SecondarySkill)
	}

	// 10. Adrenaline.
	if metric.QuestsCompleted > AdrenalineAfter {
		dealt := e.damage(now, AdrenalineDamage, "adrenaline", out)
		say(out, "Adrenaline burns: -%d HP for completion #%d today.", dealt, metric.QuestsCompleted)
	}

	// 11. Level-up, boss unlock and spawn.
	e.levelUp(now, out)

	// 12-13. Mission counters and evaluation.
	e.publish(events.QuestCompleted{
		Ref:        ref,
		Difficulty: q.Difficulty,
		At:         now,
		Created:    q.Created,
		HighStakes: q.HighStakes,
		Skill:      q.Skill,
		Secondary:  q.SecondarySkill,
	}, out)
	// Mission rewards can cross the requirement too.
	e.levelUp(now, out)

	// 14. Achievements.
	e.unlock(achFirstBlood, now, out)
	if s.Streak.Current >= WeekStreak {
		e.unlock(achWeekStreak, now, out)
	}

	state.Record(s, now, "quest", "Completed "+q.Name)
	e.log.Info("quest completed", "ref", ref, "xp", xp, "gold", gold)
	e.checkDeath(now, out)

	// 15. Write back the quest record.
	q.Status = types.QuestCompleted
	q.CompletedAt = state.TimePtr(now)
	if err := e.quests.Put(ctx, q); err != nil {
		res, _ := e.commit(ctx, "quest completed", out)
		return res, fmt.Errorf("write back quest %s: %w", ref, err)
	}

	return e.commit(ctx, "quest completed", out)
}

// FailQuest marks a quest failed and deals the rival's damage. Failing is
// never blocked by lockdown.
func (e *Engine) FailQuest(ctx context.Context, ref string, manual bool) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := &types.Result{}
	applied, err := e.failQuest(ctx, ref, manual, e.clock.Now(), out)
	if err != nil {
		if !applied {
			if errors.Is(err, errs.ErrNotFound) || errors.Is(err, errs.ErrBlocked) {
				return e.reject("fail", err)
			}
			return *out, err
		}
		res, _ := e.commit(ctx, "quest failed", out)
		return res, err
	}
	return e.commit(ctx, "quest failed", out)
}

// failQuest reports whether the failure reached the run state; it can be
// true alongside an error when only the record write-back failed.
func (e *Engine) failQuest(ctx context.Context, ref string, manual bool, now time.Time, out *types.Result) (bool, error) {
	s := e.state
	q, err := e.quests.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return false, err
		}
		return false, fmt.Errorf("look up quest %s: %w", ref, err)
	}
	if q.Status != types.QuestActive {
		return false, errs.Blocked(errs.AlreadyDone, "quest %q is already %s", ref, q.Status)
	}

	if manual {
		say(out, "You abandon %s.", q.Name)
	} else {
		say(out, "Deadline missed: %s.", q.Name)
	}

	base := s.RivalDamage
	if q.HighStakes {
		base *= 2
	}
	if q.IsBoss {
		base += BossFailPenalty
	}
	if state.Active(s.ShieldUntil, now) {
		say(out, "Your shield absorbs the blow.")
	} else {
		dealt := e.damage(now, base, "failure", out)
		say(out, "The rival strikes for %d damage. HP %d/%d.", dealt, s.HP, s.MaxHP)
	}
	s.RivalDamage++
	e.today(now).QuestsFailed++

	if chains.IsGating(s, ref) {
		if rec, err := chains.Break(s, now); err == nil {
			say(out, "Chain %s broken at %d/%d.", rec.Name, rec.CompletedLinks, rec.Total)
		}
	}

	state.Record(s, now, "quest", "Failed "+q.Name)
	e.log.Info("quest failed", "ref", ref, "manual", manual, "hp", s.HP)
	e.checkDeath(now, out)

	q.Status = types.QuestFailed
	q.CompletedAt = state.TimePtr(now)
	if err := e.quests.Put(ctx, q); err != nil {
		return true, fmt.Errorf("write back quest %s: %w", ref, err)
	}
	return true, nil
}

// CheckDeadlines fails every active quest whose deadline has passed.
func (e *Engine) CheckDeadlines(ctx context.Context) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := &types.Result{}
	n, err := e.sweepDeadlines(ctx, e.clock.Now(), out)
	if err != nil {
		if n > 0 {
			res, _ := e.commit(ctx, "deadlines", out)
			return res, err
		}
		return *out, err
	}
	if n == 0 {
		return *out, nil
	}
	return e.commit(ctx, "deadlines", out)
}

// sweepDeadlines returns how many failures were applied, including one whose
// record write-back failed.
func (e *Engine) sweepDeadlines(ctx context.Context, now time.Time, out *types.Result) (int, error) {
	all, err := e.quests.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list quests: %w", err)
	}
	n := 0
	for _, q := range quests.Active(all) {
		if q.Deadline == nil || q.Deadline.After(now) {
			continue
		}
		applied, err := e.failQuest(ctx, q.Ref, false, now, out)
		if applied {
			n++
		}
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// DeleteQuest removes a quest. The first FreeDeletions each day are free;
// later ones cost DeletionFee gold scaled by the price multiplier.
func (e *Engine) DeleteQuest(ctx context.Context, ref string) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clock.Now()
	s := e.state

	q, err := e.quests.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return e.reject("delete", err)
		}
		return types.Result{}, fmt.Errorf("look up quest %s: %w", ref, err)
	}
	fee := 0
	if s.DeletionsToday >= FreeDeletions {
		fee = ledger.Price(DeletionFee, s.DailyModifier)
		if s.Gold < fee {
			return e.reject("delete", errs.Blocked(errs.Deletion,
				"free deletions used up (%d/day); this one costs %d gold, you have %d", FreeDeletions, fee, s.Gold))
		}
	}
	if err := e.quests.Delete(ctx, ref); err != nil {
		return types.Result{}, fmt.Errorf("delete quest %s: %w", ref, err)
	}

	out := &types.Result{}
	if fee > 0 {
		s.Gold -= fee
		say(out, "Deleted %s for %d gold.", q.Name, fee)
	} else {
		say(out, "Deleted %s (%d free deletions left today).", q.Name, FreeDeletions-s.DeletionsToday-1)
	}
	s.DeletionsToday++

	if chains.IsGating(s, ref) {
		if rec, err := chains.Break(s, now); err == nil {
			say(out, "Chain %s broken at %d/%d.", rec.Name, rec.CompletedLinks, rec.Total)
		}
	}

	e.undo = append(e.undo, deletion{quest: q, at: now})
	if len(e.undo) > UndoCapacity {
		e.undo = e.undo[len(e.undo)-UndoCapacity:]
	}
	state.Record(s, now, "quest", "Deleted "+q.Name)
	return e.commit(ctx, "quest deleted", out)
}

// UndoLastDeletion restores the most recent deletion if it is still within
// UndoWindow. The entry is consumed whether or not the restore succeeds.
func (e *Engine) UndoLastDeletion(ctx context.Context) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clock.Now()

	if len(e.undo) == 0 {
		return e.reject("undo", errs.NotFound("deletion", "last"))
	}
	d := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]

	if now.Sub(d.at) > UndoWindow {
		return e.reject("undo", errs.Blocked(errs.UndoExpired, "deletion of %q is older than %s", d.quest.Ref, UndoWindow))
	}
	if _, err := e.quests.Get(ctx, d.quest.Ref); err == nil {
		return e.reject("undo", fmt.Errorf("restore %s: %w", d.quest.Ref, errs.ErrRestoreCollision))
	} else if !errors.Is(err, errs.ErrNotFound) {
		return types.Result{}, fmt.Errorf("look up quest %s: %w", d.quest.Ref, err)
	}
	if err := e.quests.Put(ctx, d.quest); err != nil {
		return types.Result{}, fmt.Errorf("restore quest %s: %w", d.quest.Ref, err)
	}

	state.Record(e.state, now, "quest", "Restored "+d.quest.Name)
	out := &types.Result{}
	say(out, "Restored %s.", d.quest.Name)
	return e.commit(ctx, "quest restored", out)
}

// CheckInbox counts the active quests and feeds the zero-inbox mission.
func (e *Engine) CheckInbox(ctx context.Context) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	all, err := e.quests.List(ctx)
	if err != nil {
		return types.Result{}, fmt.Errorf("list quests: %w", err)
	}
	active := quests.Active(all)
	out := &types.Result{}
	if len(active) == 0 {
		say(out, "Inbox zero. Nothing left to do.")
	} else {
		say(out, "%d active quests.", len(active))
	}
	e.publish(events.InboxChecked{Active: len(active)}, out)
	e.levelUp(e.clock.Now(), out)
	return e.commit(ctx, "inbox checked", out)
}
