package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/goapcore/engine"
	"github.com/nathoo/goapcore/types"
)

// Options configures the TUI.
type Options struct {
	SaveDir      string
	TickInterval time.Duration
	AutoRun      bool // start with the simulation running
}

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed user input
	isSystem bool // true for system messages
}

// Model is the Bubble Tea model for the goapcore TUI.
type Model struct {
	engine *engine.Engine

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated output lines (unstyled, for re-wrapping)

	width    int
	height   int
	ready    bool
	trace    bool
	quitting bool
	lastCmd  string
	saveDir  string

	auto     bool
	autoGen  int // invalidates tick messages scheduled before a toggle
	interval time.Duration
}

// outputMsg carries output from the engine into the Update loop.
type outputMsg struct {
	input    string   // echoed user input (empty for intro and auto ticks)
	lines    []string // output lines
	isSystem bool     // true for meta-command output
}

// autoTickMsg asks the model to advance the simulation one tick.
type autoTickMsg struct {
	gen int
}

// New creates a TUI model wired to the given engine.
func New(eng *engine.Engine, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	if opts.SaveDir == "" {
		opts.SaveDir = "."
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 500 * time.Millisecond
	}
	return Model{
		engine:   eng,
		input:    ti,
		history:  NewHistory(100),
		saveDir:  opts.SaveDir,
		auto:     opts.AutoRun,
		interval: opts.TickInterval,
	}
}

// Run starts the Bubble Tea program.
func Run(eng *engine.Engine, opts Options) error {
	m := New(eng, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init returns the initial command that produces the intro and world state.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.initialOutput()}
	if m.auto {
		cmds = append(cmds, m.scheduleTick())
	}
	return tea.Batch(cmds...)
}

func (m Model) initialOutput() tea.Cmd {
	return func() tea.Msg {
		d := m.engine.Defs.Domain
		var lines []string

		header := d.Title
		if d.Version != "" {
			header += " v" + d.Version
		}
		if d.Author != "" {
			header += " by " + d.Author
		}
		lines = append(lines, header, "")

		if d.Intro != "" {
			lines = append(lines, d.Intro, "")
		}

		result := m.engine.Step("state")
		lines = append(lines, result.Output...)

		return outputMsg{lines: lines}
	}
}

func (m Model) scheduleTick() tea.Cmd {
	gen := m.autoGen
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return autoTickMsg{gen: gen}
	})
}

// Update handles messages (key presses, window resize, engine output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

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

		case "ctrl+r":
			return m.toggleRun()

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

	case autoTickMsg:
		if !m.auto || msg.gen != m.autoGen {
			return m, nil
		}
		result := m.engine.Tick()
		if len(result.Output) > 0 {
			m = m.appendOutput(m.resultMsg("", result))
		}
		return m, m.scheduleTick()

	case outputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// toggleRun starts or pauses automatic ticking.
func (m Model) toggleRun() (Model, tea.Cmd) {
	m.auto = !m.auto
	m.autoGen++
	if m.auto {
		m = m.appendOutput(outputMsg{lines: []string{fmt.Sprintf("Running (every %s).", m.interval)}, isSystem: true})
		return m, m.scheduleTick()
	}
	m = m.appendOutput(outputMsg{lines: []string{"Paused."}, isSystem: true})
	return m, nil
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

	// Handle "again" / "g".
	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if m.lastCmd == "" {
			m = m.appendOutput(outputMsg{
				input: input, lines: []string{"Nothing to repeat."}, isSystem: true,
			})
			return m, nil
		}
		input = m.lastCmd
	} else {
		m.lastCmd = input
	}

	// Meta-commands.
	if strings.HasPrefix(input, "/") {
		if input == "/run" || input == "/pause" {
			if (input == "/run") != m.auto {
				return m.toggleRun()
			}
			return m, nil
		}
		output, quit := m.handleMeta(input)
		m = m.appendOutput(outputMsg{input: input, lines: output, isSystem: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	// Console command.
	result := m.engine.Step(input)
	m = m.appendOutput(m.resultMsg(input, result))
	return m, nil
}

func (m Model) resultMsg(input string, result types.Result) outputMsg {
	output := result.Output
	if m.trace {
		output = append(output, formatTrace(result)...)
	}
	return outputMsg{input: input, lines: output}
}

// appendOutput adds lines to the log and refreshes the viewport.
func (m Model) appendOutput(msg outputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}

	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}

	// Blank line separator between commands.
	m.rawLines = append(m.rawLines, rawLine{})

	m.refreshViewport()

	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		wrapped := wordWrap(rl.text, width)

		switch {
		case rl.isInput:
			styled = append(styled, styleUserInput.Render(wrapped))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindHeader:
		return styleHeader.Render(line)
	case kindSymbol:
		return styledSymbol(line)
	case kindPlan:
		return stylePlan.Render(line)
	case kindAction:
		return styleAction.Render(line)
	case kindSuccess:
		return styleSuccess.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleNarration.Render(line)
	}
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries. Leading indentation is kept on the first line.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	indent := text[:len(text)-len(strings.TrimLeft(text, " "))]
	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := len(word)

		if i == 0 {
			result.WriteString(indent + word)
			lineLen = len(indent) + wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// View renders the full TUI layout: viewport + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
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

	case "/save":
		return m.cmdSave(arg), false

	case "/load":
		return m.cmdLoad(arg), false

	case "/help":
		return m.cmdHelp(), false

	case "/stats":
		return m.engine.Step("stats").Output, false

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

func (m *Model) savePath(name string) string {
	if name == "" {
		name = "quicksave"
	}
	return filepath.Join(m.saveDir, name+".json")
}

func (m *Model) cmdSave(name string) []string {
	if err := os.MkdirAll(m.saveDir, 0o755); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	path := m.savePath(name)
	if err := m.engine.SaveFile(path); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	return []string{fmt.Sprintf("Saved to %s.", filepath.Base(path))}
}

func (m *Model) cmdLoad(name string) []string {
	path := m.savePath(name)
	if err := m.engine.LoadFile(path); err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	output := []string{fmt.Sprintf("Loaded %s (tick %d).", filepath.Base(path), m.engine.Ticks())}
	return append(output, m.engine.Step("agents").Output...)
}

func (m *Model) cmdHelp() []string {
	return []string{
		"System:",
		"  /run, /pause  Start or stop automatic ticking (also Ctrl+R)",
		"  /save [name]  Save the simulation (default: quicksave)",
		"  /load [name]  Load a simulation (default: quicksave)",
		"  /stats        Show planner and agent metrics",
		"  /trace        Toggle event trace output",
		"  /quit         Exit",
		"  /help         Show this help",
		"",
		"Console commands:",
		"  tick [n] (t, wait)       Advance the simulation",
		"  plan <goal> [for agent]  Dry-run the planner",
		"  set <symbol> <value>     Change the world",
		"  state (s)                Show world symbols",
		"  goals / actions / agents List the domain",
		"  interrupt [agent]        Abandon the current plan",
		"  again (g)                Repeat your last command",
		"",
		"Navigation: PgUp/PgDn to scroll, Up/Down for command history",
	}
}

func formatTrace(result types.Result) []string {
	var lines []string
	if len(result.Effects) > 0 {
		lines = append(lines, fmt.Sprintf("[trace] Effects: %d", len(result.Effects)))
		for _, e := range result.Effects {
			lines = append(lines, fmt.Sprintf("[trace]   %s %s %d", e.Kind, e.Symbol, e.Value))
		}
	}
	if len(result.Events) > 0 {
		lines = append(lines, fmt.Sprintf("[trace] Events: %d", len(result.Events)))
		for _, e := range result.Events {
			lines = append(lines, fmt.Sprintf("[trace]   %s %s", e.Type, e.Agent))
		}
	}
	return lines
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
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
