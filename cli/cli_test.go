package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nathoo/questrun/catalog"
	"github.com/nathoo/questrun/engine"
	"github.com/nathoo/questrun/engine/schedule"
	"github.com/nathoo/questrun/quests"
	"github.com/nathoo/questrun/types"
)

var testStart = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*engine.Engine, *schedule.FakeClock) {
	t.Helper()
	clock := schedule.NewFakeClock(testStart)
	eng, err := engine.New(context.Background(), engine.Options{
		Catalog: catalog.Default(),
		Quests:  quests.NewMemoryStore(),
		Clock:   clock,
		Seed:    7,
	})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return eng, clock
}

func newTestCLI(t *testing.T, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	eng, _ := newTestEngine(t)
	var out bytes.Buffer
	c := &CLI{
		Engine:    eng,
		In:        strings.NewReader(input),
		Out:       &out,
		ExportDir: t.TempDir(),
	}
	return c, &out
}

func run(t *testing.T, c *CLI) {
	t.Helper()
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestCLI_LoginOnStart(t *testing.T) {
	c, out := newTestCLI(t, "/quit\n")
	run(t, c)

	output := out.String()
	if !strings.Contains(output, "A new day: 2026-03-02.") {
		t.Errorf("expected rollover output, got:\n%s", output)
	}
	if !strings.Contains(output, "[Goodbye.]") {
		t.Error("expected goodbye")
	}
}

func TestCLI_AddAndComplete(t *testing.T) {
	c, out := newTestCLI(t, "add Write the report d=3\ndone write-the-report\n/quit\n")
	run(t, c)

	output := out.String()
	if !strings.Contains(output, "Quest created: Write the report [write-the-report]") {
		t.Errorf("missing creation line:\n%s", output)
	}
	if !strings.Contains(output, "Quest complete: Write the report. +40 XP, +20 gold.") {
		t.Errorf("missing completion line:\n%s", output)
	}
	s, _ := c.Engine.Snapshot()
	if s.Gold != 20 {
		t.Errorf("gold = %d, want 20", s.Gold)
	}
}

func TestCLI_BlockedIsDescribed(t *testing.T) {
	c, out := newTestCLI(t, "add Nap d=9\n/quit\n")
	run(t, c)
	if !strings.Contains(out.String(), "Blocked: ") {
		t.Errorf("expected a blocked message:\n%s", out.String())
	}
}

func TestCLI_NotFoundIsDescribed(t *testing.T) {
	c, out := newTestCLI(t, "done ghost\n/quit\n")
	run(t, c)
	if !strings.Contains(out.String(), `Sorry, quest "ghost" not found`) {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestCLI_Again(t *testing.T) {
	c, out := newTestCLI(t, "inbox\ng\n/quit\n")
	run(t, c)
	if n := strings.Count(out.String(), "Inbox zero."); n != 2 {
		t.Errorf("inbox ran %d times, want 2", n)
	}
}

func TestCLI_AgainWithNothingToRepeat(t *testing.T) {
	c, out := newTestCLI(t, "again\n/quit\n")
	run(t, c)
	if !strings.Contains(out.String(), "Nothing to repeat.") {
		t.Error("expected nothing-to-repeat message")
	}
}

func TestCLI_CommentsAndEcho(t *testing.T) {
	c, out := newTestCLI(t, "# setup\nskill Go\n/quit\n")
	c.EchoInput = true
	run(t, c)

	output := out.String()
	if strings.Contains(output, "# setup") {
		t.Error("comment lines should be skipped")
	}
	if !strings.Contains(output, "> skill Go\n") {
		t.Errorf("expected echoed input:\n%s", output)
	}
	if !strings.Contains(output, "Skill Go created.") {
		t.Error("expected the skill to be created")
	}
}

func TestCLI_UnknownCommands(t *testing.T) {
	c, out := newTestCLI(t, "dance\n/bogus\n/quit\n")
	run(t, c)
	output := out.String()
	if !strings.Contains(output, "unknown command: dance") {
		t.Errorf("missing unknown verb message:\n%s", output)
	}
	if !strings.Contains(output, "Unknown command: /bogus") {
		t.Errorf("missing unknown meta message:\n%s", output)
	}
}

func TestCLI_Trace(t *testing.T) {
	c, out := newTestCLI(t, "/trace\nbuy sword\n/quit\n")
	run(t, c)
	output := out.String()
	if !strings.Contains(output, "Trace output enabled.") {
		t.Error("expected trace toggle")
	}
	if !strings.Contains(output, "[trace: ") {
		t.Errorf("expected trace lines:\n%s", output)
	}
}

func TestCLI_Export(t *testing.T) {
	c, out := newTestCLI(t, "skill Go\n/export mine\n/quit\n")
	run(t, c)
	if !strings.Contains(out.String(), "Run exported to") {
		t.Fatalf("expected export confirmation:\n%s", out.String())
	}
	data, err := os.ReadFile(filepath.Join(c.ExportDir, "mine.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"name": "Go"`) {
		t.Error("export should contain the skill")
	}
}

func TestCLI_HelpListsCommands(t *testing.T) {
	c, out := newTestCLI(t, "/help\n/quit\n")
	run(t, c)
	for _, want := range []string{"/export", "add <name>", "meditate", "again (g)"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("help missing %q", want)
		}
	}
}

func TestCLI_StateAndHistory(t *testing.T) {
	c, out := newTestCLI(t, "add Stretch\n/state\n/history 5\n/quit\n")
	run(t, c)
	output := out.String()
	if !strings.Contains(output, "[HP 100/100") {
		t.Errorf("missing state dump:\n%s", output)
	}
	if !strings.Contains(output, "Created Stretch") {
		t.Errorf("missing history entry:\n%s", output)
	}
}

func TestCLI_TimersFireAfterCommands(t *testing.T) {
	eng, clock := newTestEngine(t)
	ctx := context.Background()
	for _, line := range []string{"add One", "done one", "add Two", "done two", "research survey Notes"} {
		if _, err := Exec(ctx, eng, line); err != nil {
			t.Fatalf("%s: %v", line, err)
		}
	}
	var out bytes.Buffer
	c := &CLI{Engine: eng, Out: &out}

	c.Step(ctx, "words 1 120")
	clock.Advance(engine.WordDebounce)
	c.Step(ctx, "inbox")

	s, _ := eng.Snapshot()
	if got := s.ResearchQuests[0].WordCount; got != 120 {
		t.Errorf("word count = %d, want 120", got)
	}
}

func TestExec_Usage(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	for _, line := range []string{"done", "chain only-one x", "words 1", "boss", "add", "undo now"} {
		if _, err := Exec(ctx, eng, line); !errors.Is(err, ErrUsage) {
			t.Errorf("Exec(%q) err = %v, want usage", line, err)
		}
	}
}

func TestExec_AliasesAndNames(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	if _, err := Exec(ctx, eng, "new quest Write the report d=2"); err != nil {
		t.Fatal(err)
	}
	res, err := Exec(ctx, eng, "finish the Write the report")
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if len(res.Output) == 0 || !strings.HasPrefix(res.Output[0], "Quest complete: Write the report.") {
		t.Errorf("output = %v", res.Output)
	}
	if _, err := Exec(ctx, eng, "Check Inbox"); err != nil {
		t.Errorf("check inbox: %v", err)
	}
}

func TestExec_ResolvesPartialNames(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	for _, line := range []string{"add Write the report", "add Review report", "add Call Mom"} {
		if _, err := Exec(ctx, eng, line); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := Exec(ctx, eng, "done mom"); err != nil {
		t.Fatalf("done mom: %v", err)
	}
	if q, _ := eng.Quests().Get(ctx, "call-mom"); q.Status != types.QuestCompleted {
		t.Errorf("call-mom status = %q", q.Status)
	}

	_, err := Exec(ctx, eng, "done report")
	if got := Describe(err); got != "Which one? review-report, write-the-report" {
		t.Errorf("Describe = %q", got)
	}
}

func TestExec_NumbersAreValidated(t *testing.T) {
	eng, _ := newTestEngine(t)
	_, err := Exec(context.Background(), eng, "boss ten")
	if engine.PreconditionOf(err) != "invalid_input" {
		t.Errorf("err = %v", err)
	}
}

func TestExec_AddOptions(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	for _, line := range []string{"skill Go", "skill SQL"} {
		if _, err := Exec(ctx, eng, line); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := Exec(ctx, eng, "add Ship the API d=hard skill=Go with=SQL due=2h stakes=yes prio=high"); err != nil {
		t.Fatalf("add: %v", err)
	}
	q, err := eng.Quests().Get(ctx, "ship-the-api")
	if err != nil {
		t.Fatal(err)
	}
	if q.Difficulty != 4 || q.Skill != "Go" || q.SecondarySkill != "SQL" || !q.HighStakes || q.Priority != "high" {
		t.Errorf("quest = %+v", q)
	}
	if q.Deadline == nil || !q.Deadline.Equal(testStart.Add(2*time.Hour)) {
		t.Errorf("deadline = %v", q.Deadline)
	}
}

func TestExec_QuestsAndFilters(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	for _, line := range []string{"add Easy one d=1", "add Hard one d=4"} {
		if _, err := Exec(ctx, eng, line); err != nil {
			t.Fatal(err)
		}
	}

	res, err := Exec(ctx, eng, "quests")
	if err != nil || len(res.Output) != 2 {
		t.Fatalf("quests = %v, %v", res.Output, err)
	}

	if _, err := Exec(ctx, eng, "filter d=4"); err != nil {
		t.Fatal(err)
	}
	res, _ = Exec(ctx, eng, "quests")
	if len(res.Output) != 1 || !strings.Contains(res.Output[0], "Hard one") {
		t.Errorf("filtered quests = %v", res.Output)
	}

	if _, err := Exec(ctx, eng, "filter clear"); err != nil {
		t.Fatal(err)
	}
	res, _ = Exec(ctx, eng, "quests")
	if len(res.Output) != 2 {
		t.Errorf("after clear = %v", res.Output)
	}
}

func TestParseDue(t *testing.T) {
	now := testStart
	tests := []struct {
		in   string
		want time.Time
	}{
		{"90m", now.Add(90 * time.Minute)},
		{"+2h", now.Add(2 * time.Hour)},
		{"2026-03-05", time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"2026-03-05T17:00:00Z", time.Date(2026, 3, 5, 17, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseDue(tt.in, now)
		if err != nil || !got.Equal(tt.want) {
			t.Errorf("parseDue(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := parseDue("soon", now); err == nil {
		t.Error("parseDue(soon) should fail")
	}
}

func TestSplitOptions(t *testing.T) {
	words, opts := splitOptions([]string{"Read", "SICP", "d=2", "Skill=Lisp"})
	if strings.Join(words, " ") != "Read SICP" {
		t.Errorf("words = %v", words)
	}
	if opts["d"] != "2" || opts["skill"] != "Lisp" {
		t.Errorf("opts = %v", opts)
	}
}

func TestStatusLines_Lockdown(t *testing.T) {
	until := testStart.Add(3 * time.Hour)
	s := &types.RunState{HP: 40, MaxHP: 100, LockdownUntil: &until, DailyModifier: types.Modifier{Name: "Neutral"}}
	lines := StatusLines(s, testStart)
	if !strings.Contains(strings.Join(lines, "\n"), "LOCKDOWN: 3h0m0s left") {
		t.Errorf("lines = %v", lines)
	}
}
