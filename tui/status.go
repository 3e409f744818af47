package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// agentSummary renders one agent as "name: Goal 1/3" or "name: idle".
func agentSummary(name, goal string, done, steps int) string {
	if goal == "" {
		return name + ": idle"
	}
	if steps == 0 {
		return fmt.Sprintf("%s: %s", name, goal)
	}
	return fmt.Sprintf("%s: %s %d/%d", name, goal, done, steps)
}

// renderStatusBar produces a full-width inverted status line showing the
// domain, each agent's goal and progress, and the tick count.
func (m Model) renderStatusBar() string {
	agents := m.engine.Agents()
	parts := make([]string, len(agents))
	for i, a := range agents {
		parts[i] = agentSummary(a.Name, a.Goal, a.Done, len(a.Plan))
	}

	left := fmt.Sprintf(" %s | %s", m.engine.Defs.Domain.Title, strings.Join(parts, " | "))
	right := fmt.Sprintf("T:%d ", m.engine.Ticks())
	if m.auto {
		right = "RUN | " + right
	}

	// Fall back to an agent count when the summaries do not fit.
	if lipgloss.Width(left)+lipgloss.Width(right)+2 >= m.width && len(agents) > 1 {
		left = fmt.Sprintf(" %s | %d agents", m.engine.Defs.Domain.Title, len(agents))
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
