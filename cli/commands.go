package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nathoo/questrun/engine"
	"github.com/nathoo/questrun/engine/errs"
	"github.com/nathoo/questrun/engine/ledger"
	"github.com/nathoo/questrun/engine/lockdown"
	"github.com/nathoo/questrun/engine/parser"
	"github.com/nathoo/questrun/engine/resolve"
	"github.com/nathoo/questrun/quests"
	"github.com/nathoo/questrun/types"
)

// ErrUsage reports a malformed command line.
var ErrUsage = errors.New("usage")

// ErrUnknownCommand reports a verb with no handler.
var ErrUnknownCommand = errors.New("unknown command")

type handler func(ctx context.Context, e *engine.Engine, args []string) (types.Result, error)

type command struct {
	usage string
	help  string
	run   handler
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"add":        {"add <name> [d=1-5] [skill=S] [with=S] [due=2h|2006-01-02] [stakes=yes] [boss=LEVEL] [prio=P]", "create a quest", cmdAdd},
		"done":       {"done <ref|name>", "complete a quest", refArg(func(ctx context.Context, e *engine.Engine, ref string) (types.Result, error) { return e.CompleteQuest(ctx, ref) })},
		"fail":       {"fail <ref|name>", "give up on a quest", refArg(func(ctx context.Context, e *engine.Engine, ref string) (types.Result, error) { return e.FailQuest(ctx, ref, true) })},
		"delete":     {"delete <ref|name>", "delete a quest (3 free per day)", refArg(func(ctx context.Context, e *engine.Engine, ref string) (types.Result, error) { return e.DeleteQuest(ctx, ref) })},
		"undo":       {"undo", "restore the last deletion", noArgs((*engine.Engine).UndoLastDeletion)},
		"quests":     {"quests", "list active quests", cmdQuests},
		"inbox":      {"inbox", "count active quests", noArgs((*engine.Engine).CheckInbox)},
		"deadlines":  {"deadlines", "fail overdue quests", noArgs((*engine.Engine).CheckDeadlines)},
		"chain":      {"chain <name> <ref> <ref> [ref...]", "start a quest chain", cmdChain},
		"breakchain": {"breakchain", "abandon the current chain", noArgs((*engine.Engine).BreakChain)},
		"research":   {"research <survey|deep_dive> <title> [skill=S] [quest=REF]", "start a research quest", cmdResearch},
		"words":      {"words <id> <count>", "update a research word count", cmdWords},
		"submit":     {"submit <id> <count>", "complete a research quest", cmdSubmit},
		"drop":       {"drop <id>", "delete a research quest", cmdDrop},
		"skill":      {"skill <name>", "create a skill", cmdSkill},
		"skills":     {"skills", "list skills", cmdSkills},
		"meditate":   {"meditate", "meditate during lockdown", noArgs((*engine.Engine).StartMeditation)},
		"shop":       {"shop", "list shop items", cmdShop},
		"buy":        {"buy <item>", "buy a shop item", oneArg(func(ctx context.Context, e *engine.Engine, id string) (types.Result, error) { return e.Buy(ctx, id) })},
		"reroll":     {"reroll", "pay to reroll today's modifier", noArgs((*engine.Engine).RerollModifier)},
		"boss":       {"boss <level>", "record a boss defeat", cmdBoss},
		"missions":   {"missions", "show daily missions", cmdMissions},
		"status":     {"status", "show the run", cmdStatus},
		"filter":     {"filter [status=S] [skill=S] [d=N] | filter clear", "set list filters", cmdFilter},
		"tick":       {"tick", "run rollover, deadlines and timers", noArgs((*engine.Engine).Tick)},
		"die":        {"die", "end the run now", noArgs((*engine.Engine).TriggerDeath)},
	}
}

// Exec parses one command line and runs it against the engine.
func Exec(ctx context.Context, e *engine.Engine, line string) (types.Result, error) {
	in := parser.Parse(line)
	if in.Verb == "" {
		return types.Result{}, nil
	}
	cmd, ok := commands[in.Verb]
	if !ok {
		return types.Result{}, fmt.Errorf("%w: %s", ErrUnknownCommand, in.Verb)
	}
	res, err := cmd.run(ctx, e, in.Args)
	if errors.Is(err, ErrUsage) {
		return res, fmt.Errorf("%w: %s", ErrUsage, cmd.usage)
	}
	return res, err
}

// Describe renders a verb error for the player.
func Describe(err error) string {
	var (
		be engine.BlockedError
		ae *resolve.AmbiguityError
	)
	switch {
	case errors.As(err, &be):
		return "Blocked: " + be.Reason
	case errors.As(err, &ae):
		return "Which one? " + strings.Join(ae.Candidates, ", ")
	case errors.Is(err, engine.ErrNotFound), errors.Is(err, engine.ErrRestoreCollision):
		return "Sorry, " + err.Error()
	case errors.Is(err, ErrUsage):
		return "Usage: " + strings.TrimPrefix(err.Error(), "usage: ")
	case errors.Is(err, ErrUnknownCommand):
		return err.Error() + ". Type /help for commands."
	}
	return "Error: " + err.Error()
}

// Help lists the commands in name order.
func Help() []string {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, fmt.Sprintf("  %-58s %s", commands[n].usage, commands[n].help))
	}
	return out
}

func noArgs(fn func(*engine.Engine, context.Context) (types.Result, error)) handler {
	return func(ctx context.Context, e *engine.Engine, args []string) (types.Result, error) {
		if len(args) != 0 {
			return types.Result{}, ErrUsage
		}
		return fn(e, ctx)
	}
}

func oneArg(fn func(context.Context, *engine.Engine, string) (types.Result, error)) handler {
	return func(ctx context.Context, e *engine.Engine, args []string) (types.Result, error) {
		if len(args) != 1 {
			return types.Result{}, ErrUsage
		}
		return fn(ctx, e, args[0])
	}
}

// refArg accepts a quest ref, the quest's name or a few words of it.
func refArg(fn func(context.Context, *engine.Engine, string) (types.Result, error)) handler {
	return func(ctx context.Context, e *engine.Engine, args []string) (types.Result, error) {
		if len(args) == 0 {
			return types.Result{}, ErrUsage
		}
		all, err := e.Quests().List(ctx)
		if err != nil {
			return types.Result{}, err
		}
		ref, err := resolve.Quest(all, strings.Join(args, " "), engine.Slug)
		if err != nil {
			return types.Result{}, err
		}
		return fn(ctx, e, ref)
	}
}

// splitOptions separates key=value options from the free words.
func splitOptions(args []string) (words []string, opts map[string]string) {
	opts = map[string]string{}
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if ok && k != "" && !strings.ContainsAny(k, " \t") {
			opts[strings.ToLower(k)] = v
			continue
		}
		words = append(words, a)
	}
	return words, opts
}

func invalid(format string, args ...any) error {
	return errs.Blocked(errs.InvalidInput, format, args...)
}

func cmdAdd(ctx context.Context, e *engine.Engine, args []string) (types.Result, error) {
	words, opts := splitOptions(args)
	if len(words) == 0 {
		return types.Result{}, ErrUsage
	}
	nq := engine.NewQuest{
		Name:           strings.Join(words, " "),
		Difficulty:     1,
		Skill:          opts["skill"],
		SecondarySkill: opts["with"],
		Priority:       opts["prio"],
	}
	if v, ok := opts["d"]; ok {
		d, err := quests.ParseDifficulty(v)
		if err != nil {
			return types.Result{}, invalid("%v", err)
		}
		nq.Difficulty = d
	}
	if v, ok := opts["due"]; ok {
		due, err := parseDue(v, e.Now())
		if err != nil {
			return types.Result{}, invalid("%v", err)
		}
		nq.Deadline = &due
	}
	if v, ok := opts["stakes"]; ok {
		b, err := strconv.ParseBool(yesNo(v))
		if err != nil {
			return types.Result{}, invalid("stakes must be yes or no, got %q", v)
		}
		nq.HighStakes = b
	}
	if v, ok := opts["boss"]; ok {
		lvl, err := strconv.Atoi(v)
		if err != nil {
			return types.Result{}, invalid("boss level must be a number, got %q", v)
		}
		nq.IsBoss = true
		nq.BossLevel = lvl
	}
	return e.CreateQuest(ctx, nq)
}

func yesNo(v string) string {
	switch strings.ToLower(v) {
	case "yes", "y", "on":
		return "true"
	case "no", "n", "off":
		return "false"
	}
	return v
}

// parseDue accepts a duration from now ("90m", "+2h"), a date (midnight
// local) or an RFC 3339 timestamp.
func parseDue(v string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(strings.TrimPrefix(v, "+")); err == nil {
		return now.Add(d), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", v, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot read due %q (try 2h, 2006-01-02 or RFC 3339)", v)
}

func cmdQuests(ctx context.Context, e *engine.Engine, args []string) (types.Result, error) {
	if len(args) != 0 {
		return types.Result{}, ErrUsage
	}
	all, err := e.Quests().List(ctx)
	if err != nil {
		return types.Result{}, err
	}
	s, err := e.Snapshot()
	if err != nil {
		return types.Result{}, err
	}
	var out types.Result
	for _, q := range filterQuests(quests.Active(all), s.Filters) {
		out.Output = append(out.Output, questLine(q, e.Now()))
	}
	if len(out.Output) == 0 {
		out.Output = []string{"No active quests."}
	}
	return out, nil
}

func filterQuests(qs []types.Quest, f types.Filters) []types.Quest {
	var out []types.Quest
	for _, q := range qs {
		if f.Status != "" && q.Status != f.Status {
			continue
		}
		if f.Skill != "" && q.Skill != f.Skill && q.SecondarySkill != f.Skill {
			continue
		}
		if f.Difficulty != 0 && q.Difficulty != f.Difficulty {
			continue
		}
		out = append(out, q)
	}
	return out
}

func questLine(q types.Quest, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-24s %-8s %s", q.Ref, quests.DifficultyLabel(q.Difficulty), q.Name)
	if q.Skill != "" {
		fmt.Fprintf(&b, " (%s", q.Skill)
		if q.SecondarySkill != "" {
			fmt.Fprintf(&b, "+%s", q.SecondarySkill)
		}
		b.WriteString(")")
	}
	if q.HighStakes {
		b.WriteString(" !stakes")
	}
	if q.IsBoss {
		fmt.Fprintf(&b, " [boss %d]", q.BossLevel)
	}
	if q.Deadline != nil {
		left := q.Deadline.Sub(now).Round(time.Minute)
		fmt.Fprintf(&b, " due in %s", left)
	}
	return b.String()
}

func cmdChain(ctx context.Context, e *engine.Engine, args []string) (types.Result, error) {
	if len(args) < 3 {
		return types.Result{}, ErrUsage
	}
	return e.CreateQuestChain(ctx, args[0], args[1:])
}

func cmdResearch(ctx context.Context, e *engine.Engine, args []string) (types.Result, error) {
	words, opts := splitOptions(args)
	if len(words) < 2 {
		return types.Result{}, ErrUsage
	}
	kind := types.ResearchKind(strings.ToLower(words[0]))
	return e.CreateResearchQuest(ctx, strings.Join(words[1:], " "), kind, opts["skill"], opts["quest"])
}

func intArgs(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, ErrUsage
	}
	out := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, invalid("%q is not a number", a)
		}
		out[i] = v
	}
	return out, nil
}

func cmdWords(ctx context.Context, e *engine.Engine, args []string) (types.Result, error) {
	v, err := intArgs(args, 2)
	if err != nil {
		return types.Result{}, err
	}
	return e.UpdateResearchWordCount(ctx, v[0], v[1])
}

func cmdSubmit(ctx context.Context, e *engine.Engine, args []string) (types.Result, error) {
	v, err := intArgs(args, 2)
	if err != nil {
		return types.Result{}, err
	}
	return e.CompleteResearchQuest(ctx, v[0], v[1])
}

func cmdDrop(ctx context.Context, e *engine.Engine, args []string) (types.Result, error) {
	v, err := intArgs(args, 1)
	if err != nil {
		return types.Result{}, err
	}
	return e.DeleteResearchQuest(ctx, v[0])
}

func cmdBoss(ctx context.Context, e *engine.Engine, args []string) (types.Result, error) {
	v, err := intArgs(args, 1)
	if err != nil {
		return types.Result{}, err
	}
	return e.DefeatBoss(ctx, v[0])
}

func cmdSkill(ctx context.Context, e *engine.Engine, args []string) (types.Result, error) {
	if len(args) == 0 {
		return types.Result{}, ErrUsage
	}
	return e.CreateSkill(ctx, strings.Join(args, " "))
}

func cmdSkills(_ context.Context, e *engine.Engine, args []string) (types.Result, error) {
	if len(args) != 0 {
		return types.Result{}, ErrUsage
	}
	s, err := e.Snapshot()
	if err != nil {
		return types.Result{}, err
	}
	var out types.Result
	for _, sk := range s.Skills {
		line := fmt.Sprintf("%-16s Lv %-3d %.1f/%d XP", sk.Name, sk.Level, sk.XP, sk.XPReq)
		if sk.Rust > 0 {
			line += fmt.Sprintf("  rust %d", sk.Rust)
		}
		if len(sk.Connections) > 0 {
			line += "  -> " + strings.Join(sk.Connections, ", ")
		}
		out.Output = append(out.Output, line)
	}
	if len(out.Output) == 0 {
		out.Output = []string{"No skills yet. Try: skill <name>"}
	}
	return out, nil
}

func cmdShop(_ context.Context, e *engine.Engine, args []string) (types.Result, error) {
	if len(args) != 0 {
		return types.Result{}, ErrUsage
	}
	s, err := e.Snapshot()
	if err != nil {
		return types.Result{}, err
	}
	var out types.Result
	for _, it := range e.Catalog().Shop {
		price := ledger.Price(it.Price, s.DailyModifier)
		out.Output = append(out.Output, fmt.Sprintf("%-8s %4d gold  %s: %s", it.ID, price, it.Name, it.Description))
	}
	return out, nil
}

func cmdMissions(_ context.Context, e *engine.Engine, args []string) (types.Result, error) {
	if len(args) != 0 {
		return types.Result{}, ErrUsage
	}
	s, err := e.Snapshot()
	if err != nil {
		return types.Result{}, err
	}
	var out types.Result
	for _, m := range s.DailyMissions {
		mark := " "
		if m.Completed {
			mark = "x"
		}
		out.Output = append(out.Output, fmt.Sprintf("[%s] %s %d/%d: %s", mark, m.Name, m.Progress, m.Target, m.Description))
	}
	if len(out.Output) == 0 {
		out.Output = []string{"No missions yet today. They roll at the first login."}
	}
	return out, nil
}

func cmdStatus(_ context.Context, e *engine.Engine, args []string) (types.Result, error) {
	if len(args) != 0 {
		return types.Result{}, ErrUsage
	}
	s, err := e.Snapshot()
	if err != nil {
		return types.Result{}, err
	}
	return types.Result{Output: StatusLines(s, e.Now())}, nil
}

// StatusLines renders the run summary.
func StatusLines(s *types.RunState, now time.Time) []string {
	out := []string{
		fmt.Sprintf("HP %d/%d  Gold %d  Level %d (%d/%d XP)", s.HP, s.MaxHP, s.Gold, s.Level, s.XP, s.XPReq),
		fmt.Sprintf("Modifier: %s. %s", s.DailyModifier.Name, s.DailyModifier.Description),
		fmt.Sprintf("Rival damage %d  Damage today %d  Streak %d (best %d)", s.RivalDamage, s.DamageTakenToday, s.Streak.Current, s.Streak.Longest),
	}
	if lockdown.Locked(s, now) {
		out = append(out, fmt.Sprintf("LOCKDOWN: %s left, meditation %d/%d", lockdown.Remaining(s, now).Round(time.Minute), s.MeditationCycles, lockdown.CyclesPerRelease))
	}
	for _, c := range s.ActiveChains {
		if c.ID == s.CurrentChainID {
			out = append(out, fmt.Sprintf("Chain %s: %d/%d, next %s", c.Name, c.CurrentIndex, len(c.Quests), c.Quests[c.CurrentIndex]))
		}
	}
	for _, b := range s.BossMilestones {
		if b.Unlocked && !b.Defeated {
			out = append(out, fmt.Sprintf("Boss awaits: %s (level %d)", b.Name, b.Level))
		}
	}
	if s.Legacy.DeathCount > 0 {
		out = append(out, fmt.Sprintf("Deaths %d  Best level %d", s.Legacy.DeathCount, s.Legacy.BestLevel))
	}
	if s.GameWon {
		out = append(out, "The game is won.")
	}
	return out
}

func cmdFilter(ctx context.Context, e *engine.Engine, args []string) (types.Result, error) {
	if len(args) == 1 && strings.EqualFold(args[0], "clear") {
		if _, err := e.ClearFilters(ctx); err != nil {
			return types.Result{}, err
		}
		return types.Result{Output: []string{"Filters cleared."}}, nil
	}
	words, opts := splitOptions(args)
	if len(words) != 0 || len(opts) == 0 {
		return types.Result{}, ErrUsage
	}
	f := types.Filters{Status: opts["status"], Skill: opts["skill"]}
	if v, ok := opts["d"]; ok {
		d, err := quests.ParseDifficulty(v)
		if err != nil {
			return types.Result{}, invalid("%v", err)
		}
		f.Difficulty = d
	}
	if _, err := e.SetFilterState(ctx, f); err != nil {
		return types.Result{}, err
	}
	return types.Result{Output: []string{"Filters set."}}, nil
}
