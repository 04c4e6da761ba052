// Package tui provides the Bubble Tea dashboard for a run: a scrolling log,
// a status bar and a command line.
package tui

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// History keeps recent command lines with cursor-based navigation. It can be
// loaded from and written back to a plain text file, one command per line.
type History struct {
	entries []string
	max     int
	cursor  int // -1 = not navigating
}

// NewHistory creates an empty history holding at most max entries.
func NewHistory(max int) *History {
	return &History{entries: make([]string, 0, max), max: max, cursor: -1}
}

// LoadHistory reads path into a new history. A missing file is not an error.
func LoadHistory(path string, max int) (*History, error) {
	h := NewHistory(max)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return h, nil
	}
	if err != nil {
		return h, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		h.Push(sc.Text())
	}
	return h, sc.Err()
}

// Save writes the entries to path, creating its directory.
func (h *History) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data := strings.Join(h.entries, "\n")
	if data != "" {
		data += "\n"
	}
	return os.WriteFile(path, []byte(data), 0o600)
}

// Push records a command. Blank lines are ignored; a command already in the
// history moves to the newest slot instead of repeating.
func (h *History) Push(cmd string) {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" || h.max <= 0 {
		return
	}
	for i, e := range h.entries {
		if e == cmd {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			break
		}
	}
	h.entries = append(h.entries, cmd)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

// Len returns the number of entries.
func (h *History) Len() int { return len(h.entries) }

// Prev steps back to an older entry, stopping at the oldest.
func (h *History) Prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	switch {
	case h.cursor == -1:
		h.cursor = len(h.entries) - 1
	case h.cursor > 0:
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next steps forward; past the newest entry it returns ("", false) and
// leaves navigation.
func (h *History) Next() (string, bool) {
	if h.cursor == -1 {
		return "", false
	}
	h.cursor++
	if h.cursor >= len(h.entries) {
		h.cursor = -1
		return "", false
	}
	return h.entries[h.cursor], true
}

// ResetCursor leaves navigation.
func (h *History) ResetCursor() {
	h.cursor = -1
}
