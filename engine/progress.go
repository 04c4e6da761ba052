package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nathoo/questrun/engine/bosses"
	"github.com/nathoo/questrun/engine/ledger"
	"github.com/nathoo/questrun/engine/lockdown"
	"github.com/nathoo/questrun/engine/rollover"
	"github.com/nathoo/questrun/engine/skills"
	"github.com/nathoo/questrun/engine/state"
	"github.com/nathoo/questrun/types"
)

// Timing and cost constants of the orchestrator.
const (
	AdrenalineAfter  = 5
	AdrenalineDamage = 5
	BossFailPenalty  = 20
	FreeDeletions    = 3
	DeletionFee      = 10
	UndoCapacity     = 5
	UndoWindow       = 60 * time.Second
	RerollCost       = 50
	PotionHeal       = 20
	RestDuration     = 24 * time.Hour
	WordDebounce     = 500 * time.Millisecond
	BossSpawnDelay   = 3 * time.Second
	WeekStreak       = 7
)

// Achievement IDs unlocked by the engine.
const (
	achFirstBlood  = "first_blood"
	achWeekStreak  = "week_streak"
	achChainMaster = "chain_master"
	achScholar     = "scholar"
	achBossSlayer  = "boss_slayer"
	achLevel10     = "level_10"
	achZen         = "zen"
	achVictory     = "victory"
)

// rollover runs the day-boundary pipeline and reports whether it ran.
func (e *Engine) rollover(now time.Time, out *types.Result) bool {
	r := rollover.Run(e.state, e.cat, e.rng, now)
	if !r.Ran {
		return false
	}
	e.log.Info("daily rollover", "day", e.state.LastLoginDate, "days_elapsed", r.DaysElapsed, "rot", r.RotDamage, "modifier", r.Modifier.Name)

	say(out, "A new day: %s.", e.state.LastLoginDate)
	if r.RotDamage > 0 {
		say(out, "You were away %d days. Rot deals %d damage.", r.DaysElapsed, r.RotDamage)
	}
	if r.StreakBroken {
		say(out, "Your streak is broken.")
	}
	for _, name := range r.Rusted {
		say(out, "Skill %s is rusting.", name)
	}
	say(out, "Today's modifier: %s. %s", r.Modifier.Name, r.Modifier.Description)
	if len(r.Missions) > 0 {
		names := make([]string, len(r.Missions))
		for i, m := range r.Missions {
			names[i] = m.Name
		}
		say(out, "Daily missions: %s.", strings.Join(names, ", "))
	}
	e.checkDeath(now, out)
	return true
}

// checkLockdown enters lockdown if today's damage crossed the threshold.
func (e *Engine) checkLockdown(now time.Time, out *types.Result) {
	if !lockdown.AfterDamage(e.state, now) {
		return
	}
	e.log.Info("lockdown entered", "damage_today", e.state.DamageTakenToday, "until", e.state.LockdownUntil)
	state.Record(e.state, now, "lockdown", "Lockdown entered")
	say(out, "LOCKDOWN: %d damage today. Quests are locked for %s; meditate to shorten it.",
		e.state.DamageTakenToday, lockdown.Duration)
}

// levelUp checks the player level once and handles boss unlocks.
func (e *Engine) levelUp(now time.Time, out *types.Result) {
	if !ledger.CheckLevelUp(e.state) {
		return
	}
	lvl := e.state.Level
	e.log.Info("level up", "level", lvl, "xp_req", e.state.XPReq)
	state.Record(e.state, now, "level", fmt.Sprintf("Reached level %d", lvl))
	say(out, "LEVEL UP! You are now level %d. HP restored to %d.", lvl, e.state.MaxHP)
	if lvl >= 10 {
		e.unlock(achLevel10, now, out)
	}

	for _, b := range bosses.OnLevelReached(e.state, lvl, now) {
		say(out, "Boss unlocked: %s (level %d).", b.Name, b.Level)
	}
	if !bosses.IsThreshold(lvl) {
		return
	}
	b := state.FindBoss(e.state, lvl)
	if b == nil {
		return
	}
	say(out, "Boss detected: %s approaches...", b.Name)
	name := b.Name
	e.sched.Schedule(fmt.Sprintf("boss-spawn:%d", lvl), now.Add(BossSpawnDelay), func(time.Time) {
		e.notices = append(e.notices, fmt.Sprintf("%s has spawned. Create a boss quest for level %d to face it.", name, lvl))
	})
}

// checkDeath resets the run when HP is depleted.
func (e *Engine) checkDeath(now time.Time, out *types.Result) {
	if !ledger.Dead(e.state) {
		return
	}
	e.resetRun(now, out)
}

// resetRun starts a new run, keeping the legacy, achievements and history.
func (e *Engine) resetRun(now time.Time, out *types.Result) {
	level := e.state.Level
	ledger.ResetForNewRun(e.state, now)
	e.state.BossMilestones = state.NewBossMilestones(e.cat)
	e.state.ActiveChains = []types.QuestChain{}
	e.state.CurrentChainID = ""
	e.state.GameWon = false
	e.state.GameWonAt = nil
	for i := range e.state.Skills {
		sk := &e.state.Skills[i]
		sk.Level = 1
		sk.XP = 0
		sk.XPReq = state.SkillStartXPReq
		sk.Rust = 0
		sk.LastUsedAt = now
	}
	e.undo = nil

	e.log.Info("run reset", "deaths", e.state.Legacy.DeathCount, "level_reached", level)
	state.Record(e.state, now, "death", fmt.Sprintf("Died at level %d", level))
	say(out, "YOU DIED at level %d. Deaths: %d. Best level: %d. A new run begins.",
		level, e.state.Legacy.DeathCount, e.state.Legacy.BestLevel)
}

// unlock marks an achievement unlocked once.
func (e *Engine) unlock(id string, now time.Time, out *types.Result) {
	for i := range e.state.Achievements {
		a := &e.state.Achievements[i]
		if a.ID != id || a.Unlocked {
			continue
		}
		a.Unlocked = true
		a.UnlockedAt = state.TimePtr(now)
		state.Record(e.state, now, "achievement", a.Name)
		say(out, "Achievement unlocked: %s. %s", a.Name, a.Description)
		return
	}
}

// extendStreak counts today toward the completion streak.
func (e *Engine) extendStreak(now time.Time) {
	st := &e.state.Streak
	today := state.DayKey(now)
	switch {
	case st.LastDate == today:
		return
	case st.LastDate != "" && state.DaysBetween(st.LastDate, today) == 1:
		st.Current++
	default:
		st.Current = 1
	}
	st.LastDate = today
	st.Longest = max(st.Longest, st.Current)
}

// Meditation

// StartMeditation performs one meditation cycle during lockdown.
func (e *Engine) StartMeditation(ctx context.Context) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clock.Now()

	res, err := lockdown.Meditate(e.state, now)
	if err != nil {
		return e.reject("meditate", err)
	}
	out := &types.Result{}
	if !res.Released {
		say(out, "You breathe. Cycle %d/%d.", res.Cycles, lockdown.CyclesPerRelease)
		return e.commit(ctx, "meditation", out)
	}
	e.unlock(achZen, now, out)
	if res.Ended {
		e.log.Info("lockdown lifted by meditation")
		say(out, "Calm returns. The lockdown is lifted.")
	} else {
		say(out, "Calm returns. Lockdown shortened by %s; %s left.", lockdown.Release, lockdown.Remaining(e.state, now).Round(time.Minute))
	}
	return e.commit(ctx, "meditation", out)
}

// Skills

// CreateSkill registers a new skill.
func (e *Engine) CreateSkill(ctx context.Context, name string) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sk, err := skills.Create(e.state, name, e.clock.Now())
	if err != nil {
		return e.reject("create skill", err)
	}
	out := &types.Result{}
	say(out, "Skill %s created.", sk.Name)
	return e.commit(ctx, "skill created", out)
}
