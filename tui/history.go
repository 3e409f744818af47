// Package tui provides a Bubble Tea terminal UI for watching and steering a
// goapcore simulation.
package tui

// History is a fixed-size ring of submitted commands with a navigation
// cursor for Up/Down recall.
type History struct {
	buf    []string
	start  int // index of the oldest entry
	n      int // number of stored entries
	cursor int // -1 = not navigating, else 0 (oldest) .. n-1 (newest)
}

// NewHistory creates a history holding at most size commands.
func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{buf: make([]string, size), cursor: -1}
}

// Len returns the number of stored commands.
func (h *History) Len() int {
	return h.n
}

func (h *History) at(i int) string {
	return h.buf[(h.start+i)%len(h.buf)]
}

// Push adds a command, evicting the oldest when full. Consecutive
// duplicates are skipped.
func (h *History) Push(cmd string) {
	if h.n > 0 && h.at(h.n-1) == cmd {
		return
	}
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = cmd
		h.n++
		return
	}
	h.buf[h.start] = cmd
	h.start = (h.start + 1) % len(h.buf)
}

// Prev returns the previous (older) entry, staying on the oldest.
// Returns ("", false) if history is empty.
func (h *History) Prev() (string, bool) {
	if h.n == 0 {
		return "", false
	}
	switch {
	case h.cursor == -1:
		h.cursor = h.n - 1
	case h.cursor > 0:
		h.cursor--
	}
	return h.at(h.cursor), true
}

// Next returns the next (newer) entry. Returns ("", false) when moving
// past the newest entry, back to fresh input.
func (h *History) Next() (string, bool) {
	if h.cursor == -1 {
		return "", false
	}
	h.cursor++
	if h.cursor >= h.n {
		h.cursor = -1
		return "", false
	}
	return h.at(h.cursor), true
}

// ResetCursor leaves navigation mode.
func (h *History) ResetCursor() {
	h.cursor = -1
}
