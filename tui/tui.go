package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/questrun/cli"
	"github.com/nathoo/questrun/engine"
	"github.com/nathoo/questrun/types"
)

// timerPoll is how often due timers (debounced word counts, boss notices)
// are fired while the dashboard is open.
const timerPoll = time.Second

// Options configures the dashboard.
type Options struct {
	// TickInterval is how often the full tick (rollover, deadline sweep)
	// runs. Zero disables it; timers still fire every second.
	TickInterval time.Duration
	// HistoryPath persists command history across sessions when set.
	HistoryPath string
	ExportDir   string
}

// rawLine stores an unstyled output line so it can be re-wrapped and
// re-styled when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool
	isSystem bool
}

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	ctx    context.Context
	engine *engine.Engine
	opts   Options
	snap   *types.RunState

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine

	width    int
	height   int
	ready    bool
	trace    bool
	quitting bool
	lastCmd  string
	lastTick time.Time
}

// outputMsg carries engine output into the Update loop.
type outputMsg struct {
	input    string
	lines    []string
	isSystem bool
}

// pollMsg fires the timer poll.
type pollMsg time.Time

// New creates a dashboard model wired to the given engine.
func New(ctx context.Context, eng *engine.Engine, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	h := NewHistory(200)
	if opts.HistoryPath != "" {
		if loaded, err := LoadHistory(opts.HistoryPath, 200); err == nil {
			h = loaded
		}
	}
	m := Model{
		ctx:      ctx,
		engine:   eng,
		opts:     opts,
		input:    ti,
		history:  h,
		lastTick: eng.Now(),
	}
	m.refreshSnapshot()
	return m
}

// Run starts the Bubble Tea program and saves the command history on exit.
func Run(ctx context.Context, eng *engine.Engine, opts Options) error {
	p := tea.NewProgram(New(ctx, eng, opts), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && opts.HistoryPath != "" {
		if err := fm.history.Save(opts.HistoryPath); err != nil {
			return fmt.Errorf("save history: %w", err)
		}
	}
	return nil
}

// Init logs in and starts the timer poll.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.login(), poll())
}

func (m Model) login() tea.Cmd {
	return func() tea.Msg {
		res, err := m.engine.Login(m.ctx)
		lines := res.Output
		if err != nil {
			lines = append(lines, cli.Describe(err))
		}
		lines = append(lines, "Type /help for commands.")
		return outputMsg{lines: lines}
	}
}

func poll() tea.Cmd {
	return tea.Tick(timerPoll, func(t time.Time) tea.Msg { return pollMsg(t) })
}

// Update handles key presses, resizes, engine output and the timer poll.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := max(m.height-2, 1) // status bar + input line
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case outputMsg:
		m = m.appendOutput(msg)

	case pollMsg:
		m = m.onPoll()
		return m, poll()
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// onPoll fires due timers, and the full tick once TickInterval has passed.
func (m Model) onPoll() Model {
	now := m.engine.Now()
	var (
		res types.Result
		err error
	)
	if m.opts.TickInterval > 0 && now.Sub(m.lastTick) >= m.opts.TickInterval {
		m.lastTick = now
		res, err = m.engine.Tick(m.ctx)
	} else {
		res, err = m.engine.RunDue(m.ctx)
	}
	lines := res.Output
	if err != nil {
		lines = append(lines, cli.Describe(err))
	}
	if len(lines) > 0 {
		return m.appendOutput(outputMsg{lines: lines})
	}
	m.refreshSnapshot()
	return m
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if input == "" {
		return m, nil
	}

	m.history.Push(input)
	m.history.ResetCursor()

	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if m.lastCmd == "" {
			return m.appendOutput(outputMsg{input: input, lines: []string{"Nothing to repeat."}, isSystem: true}), nil
		}
		input = m.lastCmd
	} else if !strings.HasPrefix(input, "/") {
		m.lastCmd = input
	}

	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(outputMsg{input: input, lines: output, isSystem: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	res, err := cli.Exec(m.ctx, m.engine, input)
	output := res.Output
	if err != nil {
		output = append(output, cli.Describe(err))
		if m.trace {
			output = append(output, formatTrace(err)...)
		}
	}
	m = m.appendOutput(outputMsg{input: input, lines: output})
	return m, nil
}

// appendOutput adds lines to the log, refreshes the snapshot behind the
// status bar and redraws the viewport.
func (m Model) appendOutput(msg outputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{text: "> " + msg.input, isInput: true})
	}
	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}
	m.rawLines = append(m.rawLines, rawLine{})

	m.refreshSnapshot()
	m.refreshViewport()
	return m
}

func (m *Model) refreshSnapshot() {
	s, err := m.engine.Snapshot()
	if err != nil {
		return
	}
	m.snap = s
}

// refreshViewport re-wraps and re-styles every raw line at the current width.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	width := max(m.width, 10)

	styled := make([]string, 0, len(m.rawLines))
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}
		wrapped := wordWrap(rl.text, width)
		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wrapped))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}
	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text at word boundaries to fit width.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}
	var b strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		switch {
		case i == 0:
			lineLen = len(word)
		case lineLen+1+len(word) > width:
			b.WriteString("\n")
			lineLen = len(word)
		default:
			b.WriteString(" ")
			lineLen += 1 + len(word)
		}
		b.WriteString(word)
	}
	return b.String()
}

// View renders the log, status bar and input line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. It returns output lines and whether
// to quit.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true

	case "/export":
		path, err := cli.Export(m.engine, m.opts.ExportDir, arg)
		if err != nil {
			return []string{fmt.Sprintf("Export failed: %v", err)}, false
		}
		return []string{fmt.Sprintf("Run exported to %s.", path)}, false

	case "/help":
		return m.cmdHelp(), false

	case "/state":
		if m.snap == nil {
			return []string{"State unavailable."}, false
		}
		return cli.StatusLines(m.snap, m.engine.Now()), false

	case "/history":
		n := 10
		if arg != "" {
			if _, err := fmt.Sscan(arg, &n); err != nil || n < 1 {
				return []string{"Usage: /history [n]"}, false
			}
		}
		if m.snap == nil {
			return nil, false
		}
		return cli.HistoryLines(m.snap, n), false

	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Model) cmdHelp() []string {
	out := []string{
		"System:",
		"  /export [name]  Write the run as JSON",
		"  /history [n]    Show recent history",
		"  /state          Show the run summary",
		"  /trace          Toggle rejection details",
		"  /help           Show this help",
		"  /quit           Exit",
		"",
		"Run commands:",
	}
	out = append(out, cli.Help()...)
	out = append(out, "  again (g)  Repeat the last command", "",
		"Navigation: PgUp/PgDn to scroll, Up/Down for command history")
	return out
}

func formatTrace(err error) []string {
	var lines []string
	if p := engine.PreconditionOf(err); p != "" {
		lines = append(lines, "[trace] precondition: "+p)
	}
	return append(lines, "[trace] "+err.Error())
}

// viewportKeyMap disables Up/Down, which drive the command history.
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
