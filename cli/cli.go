// Package cli provides the line-oriented front end of a run: command
// parsing, output formatting and meta-command dispatch.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nathoo/questrun/engine"
	"github.com/nathoo/questrun/engine/save"
	"github.com/nathoo/questrun/types"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	In        io.Reader
	Out       io.Writer
	ExportDir string
	Trace     bool
	EchoInput bool   // echo each input line after the prompt (for script playback)
	lastCmd   string // for "again"/"g" repeat
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine) *CLI {
	home, _ := os.UserHomeDir()
	return &CLI{
		Engine:    eng,
		In:        os.Stdin,
		Out:       os.Stdout,
		ExportDir: filepath.Join(home, ".questrun", "exports"),
	}
}

// Run logs in, then loops: prompt, input, dispatch, output. Timers that fell
// due while waiting for input fire after each line.
func (c *CLI) Run(ctx context.Context) error {
	res, err := c.Engine.Login(ctx)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	c.printResult(res)

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" || strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		if strings.HasPrefix(input, "/") {
			if c.handleMeta(ctx, input) {
				return nil
			}
			continue
		}

		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		c.Step(ctx, input)
	}
	return scanner.Err()
}

// Step runs one command and then any due timers, printing both.
func (c *CLI) Step(ctx context.Context, input string) {
	res, err := Exec(ctx, c.Engine, input)
	c.printResult(res)
	if err != nil {
		c.printLine(Describe(err))
		if c.Trace {
			c.printTrace(err)
		}
	}
	due, err := c.Engine.RunDue(ctx)
	if err != nil {
		c.printSystem(fmt.Sprintf("Timers failed: %v", err))
		return
	}
	c.printResult(due)
}

// handleMeta dispatches meta-commands. Returns true if the session should end.
func (c *CLI) handleMeta(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/export":
		c.cmdExport(arg)

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/history":
		c.cmdHistory(arg)

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	case "/login":
		res, err := c.Engine.Login(ctx)
		if err != nil {
			c.printLine(Describe(err))
			return false
		}
		c.printResult(res)

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdExport(name string) {
	path, err := Export(c.Engine, c.ExportDir, name)
	if err != nil {
		c.printSystem(fmt.Sprintf("Export failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Run exported to %s.", path))
}

// Export writes a JSON copy of the run into dir and returns its path. An
// empty name is derived from the engine clock.
func Export(e *engine.Engine, dir, name string) (string, error) {
	if name == "" {
		name = "run-" + e.Now().Format("20060102-150405")
	}
	s, err := e.Snapshot()
	if err != nil {
		return "", err
	}
	data, err := save.Save(s)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /export [name]  Write the run as JSON",
		"  /history [n]    Show the last n history entries (default 10)",
		"  /login          Run the daily login (rollover, missions, rot)",
		"  /state          Dump the run counters",
		"  /trace          Toggle rejection details",
		"  /help           Show this help",
		"  /quit           Exit",
		"",
		"Run commands:",
	}
	help = append(help, Help()...)
	help = append(help, "  again (g)  Repeat the last command")
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	s, err := c.Engine.Snapshot()
	if err != nil {
		c.printSystem(fmt.Sprintf("State unavailable: %v", err))
		return
	}
	for _, line := range StatusLines(s, c.Engine.Now()) {
		c.printSystem(line)
	}
	c.printSystem(fmt.Sprintf("Deletions today: %d  Quests today: %d", s.DeletionsToday, s.QuestsCompletedToday))
	c.printSystem(fmt.Sprintf("Research: %d combat / %d research", s.ResearchStats.TotalCombat, s.ResearchStats.TotalResearch))
	if len(s.SkillUsesToday) > 0 {
		c.printSystem(fmt.Sprintf("Skill uses: %v", s.SkillUsesToday))
	}
	c.printSystem(fmt.Sprintf("RNG: seed %d position %d", s.RNGSeed, s.RNGPosition))
}

func (c *CLI) cmdHistory(arg string) {
	n := 10
	if arg != "" {
		if _, err := fmt.Sscan(arg, &n); err != nil || n < 1 {
			c.printSystem("Usage: /history [n]")
			return
		}
	}
	s, err := c.Engine.Snapshot()
	if err != nil {
		c.printSystem(fmt.Sprintf("History unavailable: %v", err))
		return
	}
	for _, line := range HistoryLines(s, n) {
		c.printLine(line)
	}
}

// HistoryLines renders the last n history entries.
func HistoryLines(s *types.RunState, n int) []string {
	h := s.History
	if len(h) > n {
		h = h[len(h)-n:]
	}
	out := make([]string, 0, len(h))
	for _, e := range h {
		out = append(out, fmt.Sprintf("%s  %-10s %s", e.At.Format(time.DateTime), e.Kind, e.Message))
	}
	return out
}

func (c *CLI) printTrace(err error) {
	if p := engine.PreconditionOf(err); p != "" {
		c.printSystem(fmt.Sprintf("trace: precondition %s", p))
	}
	c.printSystem(fmt.Sprintf("trace: %v", err))
}

func (c *CLI) printResult(result types.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
