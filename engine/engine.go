// Package engine provides the run orchestrator. Every verb is serialized by
// one mutex, delegates to the component packages, then persists the whole
// run once and publishes a single state-changed signal.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nathoo/questrun/catalog"
	"github.com/nathoo/questrun/engine/events"
	"github.com/nathoo/questrun/engine/ledger"
	"github.com/nathoo/questrun/engine/missions"
	"github.com/nathoo/questrun/engine/save"
	"github.com/nathoo/questrun/engine/schedule"
	"github.com/nathoo/questrun/engine/state"
	"github.com/nathoo/questrun/persist"
	"github.com/nathoo/questrun/quests"
	"github.com/nathoo/questrun/types"
)

// Options configures a new Engine. Zero fields take defaults: the built-in
// catalog, in-memory quest and run stores, the system clock, slog.Default().
type Options struct {
	Catalog *catalog.Catalog
	Quests  quests.Store
	Store   persist.Store
	Clock   schedule.Clock
	Bus     *events.Bus
	Logger  *slog.Logger
	Seed    int64
}

// Engine owns the run state.
type Engine struct {
	mu     sync.Mutex
	cat    *catalog.Catalog
	quests quests.Store
	store  persist.Store
	clock  schedule.Clock
	bus    *events.Bus
	log    *slog.Logger
	sched  *schedule.Scheduler
	rng    *RNG
	state  *types.RunState
	undo   []deletion

	// notices collects output produced by scheduled tasks until RunDue
	// returns it.
	notices []string
}

// New loads the saved run, or starts a fresh one when none exists.
func New(ctx context.Context, opts Options) (*Engine, error) {
	e := &Engine{
		cat:    opts.Catalog,
		quests: opts.Quests,
		store:  opts.Store,
		clock:  opts.Clock,
		bus:    opts.Bus,
		log:    opts.Logger,
		sched:  schedule.NewScheduler(),
	}
	if e.cat == nil {
		e.cat = catalog.Default()
	}
	if e.quests == nil {
		e.quests = quests.NewMemoryStore()
	}
	if e.store == nil {
		e.store = persist.NewMemoryStore(e.cat)
	}
	if e.clock == nil {
		e.clock = schedule.SystemClock{}
	}
	if e.bus == nil {
		e.bus = events.NewBus()
	}
	if e.log == nil {
		e.log = slog.Default()
	}

	s, err := e.store.Load(ctx)
	switch {
	case errors.Is(err, persist.ErrNoState):
		s = state.NewRunState(e.cat)
		s.RNGSeed = opts.Seed
		e.rng = NewRNG(opts.Seed)
		e.log.Info("new run started", "seed", opts.Seed)
	case err != nil:
		return nil, fmt.Errorf("load run: %w", err)
	default:
		e.rng = RestoreRNG(s.RNGSeed, s.RNGPosition)
		e.log.Info("run loaded", "level", s.Level, "hp", s.HP, "gold", s.Gold)
	}
	e.state = s
	return e, nil
}

// Bus returns the state-changed signal bus.
func (e *Engine) Bus() *events.Bus { return e.bus }

// Catalog returns the content tables in use.
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

// Quests returns the quest store.
func (e *Engine) Quests() quests.Store { return e.quests }

// Now returns the engine clock's time.
func (e *Engine) Now() time.Time { return e.clock.Now() }

// Snapshot returns a deep copy of the run state.
func (e *Engine) Snapshot() (*types.RunState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	data, err := save.Save(e.state)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return save.Load(data, e.cat)
}

// RunDue runs scheduled tasks that have come due and returns their notices.
func (e *Engine) RunDue(ctx context.Context) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sched.RunDue(e.clock.Now()) == 0 && len(e.notices) == 0 {
		return types.Result{}, nil
	}
	out := &types.Result{Output: e.notices}
	e.notices = nil
	return e.commit(ctx, "scheduled", out)
}

// Flush runs every pending task at once, due or not. A process that exits
// right after a verb calls it so debounced updates are not lost.
func (e *Engine) Flush(ctx context.Context) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sched.RunAll(e.clock.Now()) == 0 && len(e.notices) == 0 {
		return types.Result{}, nil
	}
	out := &types.Result{Output: e.notices}
	e.notices = nil
	return e.commit(ctx, "flushed", out)
}

// Login runs the daily rollover if the day has changed.
func (e *Engine) Login(ctx context.Context) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := &types.Result{}
	if !e.rollover(e.clock.Now(), out) {
		say(out, "Welcome back. %s", e.statusLine())
		return *out, nil
	}
	return e.commit(ctx, "rollover", out)
}

// Tick is the periodic entry point: rollover, deadline sweep and due tasks
// in one pass.
func (e *Engine) Tick(ctx context.Context) (types.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clock.Now()
	out := &types.Result{}
	changed := e.rollover(now, out)

	failed, err := e.sweepDeadlines(ctx, now, out)
	if err != nil {
		if changed || failed > 0 {
			res, _ := e.commit(ctx, "tick", out)
			return res, err
		}
		return *out, err
	}
	if e.sched.RunDue(now) > 0 || len(e.notices) > 0 {
		out.Output = append(out.Output, e.notices...)
		e.notices = nil
		changed = true
	}
	if !changed && failed == 0 {
		return *out, nil
	}
	return e.commit(ctx, "tick", out)
}

// commit persists the run and publishes one state-changed signal.
func (e *Engine) commit(ctx context.Context, reason string, out *types.Result) (types.Result, error) {
	e.state.RNGPosition = e.rng.Position()
	e.state.RNGSeed = e.rng.Seed()
	if err := e.store.Save(ctx, e.state); err != nil {
		e.log.Error("persist failed", "reason", reason, "err", err)
		return *out, fmt.Errorf("persist run: %w", err)
	}
	e.bus.Publish(reason)
	return *out, nil
}

// reject logs a rejected verb and returns its error untouched.
func (e *Engine) reject(verb string, err error) (types.Result, error) {
	e.log.Debug("verb rejected", "verb", verb, "err", err)
	return types.Result{}, err
}

func say(out *types.Result, format string, args ...any) {
	out.Output = append(out.Output, fmt.Sprintf(format, args...))
}

func (e *Engine) statusLine() string {
	s := e.state
	return fmt.Sprintf("HP %d/%d  Gold %d  Lv %d (%d/%d XP)  %s",
		s.HP, s.MaxHP, s.Gold, s.Level, s.XP, s.XPReq, s.DailyModifier.Name)
}

// publish dispatches a domain event to the mission tracker and reports any
// completions.
func (e *Engine) publish(ev events.Event, out *types.Result) {
	res := missions.OnEvent(e.state, ev)
	for _, m := range res.Completed {
		say(out, "Mission complete: %s (+%d XP, +%d gold)", m.Name, m.Reward.XP, m.Reward.Gold)
	}
	if res.Bonus {
		say(out, "All daily missions complete! +%d gold", missions.AllCompleteBonus)
	}
}

// today returns the metric entry for now.
func (e *Engine) today(now time.Time) *types.DayMetric {
	return state.Today(e.state, state.DayKey(now))
}

// damage routes damage through the debt penalty, tallies it, notifies the
// missions and checks the lockdown threshold. It returns the damage dealt.
func (e *Engine) damage(now time.Time, base int, source string, out *types.Result) int {
	amount := ledger.DamageFor(e.state, base)
	if amount <= 0 {
		return 0
	}
	ledger.ApplyDamage(e.state, amount)
	e.today(now).DamageTaken += amount
	if amount != base {
		say(out, "In debt: damage doubled to %d.", amount)
	}
	e.publish(events.DamageTaken{Amount: amount, Source: source}, out)
	e.checkLockdown(now, out)
	return amount
}
