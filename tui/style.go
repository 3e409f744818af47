package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarration = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleHeader = lipgloss.NewStyle().
			Bold(true)

	styleSymbol = lipgloss.NewStyle().
			Foreground(lipgloss.Color("111"))

	stylePlan = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleAction = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	styleSuccess = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	styleUserInput = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarration lineKind = iota
	kindHeader
	kindSymbol
	kindPlan
	kindAction
	kindSuccess
	kindSystem
	kindError
	kindTrace
)

// classifyLine determines what kind of output line this is. Agent event
// lines look like "[builder] did CutTrees".
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "Tick ") && strings.HasSuffix(line, ":"):
		return kindHeader
	case strings.HasPrefix(line, "  ") && strings.Contains(line, " = "):
		return kindSymbol
	}

	if msg, ok := agentMessage(line); ok {
		switch {
		case strings.HasPrefix(msg, "goal: "), strings.HasPrefix(msg, "plan: "):
			return kindPlan
		case strings.HasPrefix(msg, "did "):
			return kindAction
		case strings.HasPrefix(msg, "achieved "):
			return kindSuccess
		case strings.Contains(msg, "failed"), strings.HasPrefix(msg, "stalled"),
			strings.HasPrefix(msg, "interrupted "):
			return kindError
		}
	}
	return kindNarration
}

// agentMessage strips the "[agent] " prefix from an event line.
func agentMessage(line string) (string, bool) {
	if !strings.HasPrefix(line, "[") {
		return "", false
	}
	end := strings.Index(line, "] ")
	if end < 0 {
		return "", false
	}
	return line[end+2:], true
}

// styledSymbol renders "  Wood = 8" with the symbol name highlighted.
func styledSymbol(line string) string {
	name, value, ok := strings.Cut(line, " = ")
	if !ok {
		return styleNarration.Render(line)
	}
	return styleSymbol.Render(name) + styleNarration.Render(" = "+value)
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
