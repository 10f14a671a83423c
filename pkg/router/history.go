package router

import "errors"

// ErrNoHistory is returned by Back or Forward when there is no entry to
// move to.
var ErrNoHistory = errors.New("router: no history entry")

// History is the browser-visible list of visited paths.
type History interface {
	// Current returns the path of the current entry.
	Current() string

	// Push adds path after the current entry and drops any forward
	// entries. Pushing the path that is already current does nothing and
	// returns false.
	Push(path string) bool

	// Replace overwrites the current entry.
	Replace(path string)

	// Back moves to the previous entry.
	Back() (string, bool)

	// Forward moves to the next entry.
	Forward() (string, bool)

	// Len returns the number of entries.
	Len() int
}

// MemoryHistory is an in-process History used headless and in tests.
type MemoryHistory struct {
	entries []string
	index   int
}

// NewMemoryHistory starts a history with a single entry.
func NewMemoryHistory(initial string) *MemoryHistory {
	if initial == "" {
		initial = "/"
	}
	return &MemoryHistory{entries: []string{initial}}
}

// Current implements History.
func (h *MemoryHistory) Current() string {
	return h.entries[h.index]
}

// Push implements History.
func (h *MemoryHistory) Push(path string) bool {
	if h.entries[h.index] == path {
		return false
	}
	h.entries = append(h.entries[:h.index+1], path)
	h.index++
	return true
}

// Replace implements History.
func (h *MemoryHistory) Replace(path string) {
	h.entries[h.index] = path
}

// Back implements History.
func (h *MemoryHistory) Back() (string, bool) {
	if h.index == 0 {
		return "", false
	}
	h.index--
	return h.entries[h.index], true
}

// Forward implements History.
func (h *MemoryHistory) Forward() (string, bool) {
	if h.index >= len(h.entries)-1 {
		return "", false
	}
	h.index++
	return h.entries[h.index], true
}

// Len implements History.
func (h *MemoryHistory) Len() int {
	return len(h.entries)
}

// Entries returns a copy of every entry, oldest first.
func (h *MemoryHistory) Entries() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Syncer is a History the user can move through without the router, for
// example with the browser's back and forward buttons.
type Syncer interface {
	// Sync moves the current entry to path.
	Sync(path string)
}

// Sync moves the index to match a path reached outside the router: one
// step back, one step forward, or a new entry.
func (h *MemoryHistory) Sync(path string) {
	switch {
	case h.entries[h.index] == path:
	case h.index > 0 && h.entries[h.index-1] == path:
		h.index--
	case h.index < len(h.entries)-1 && h.entries[h.index+1] == path:
		h.index++
	default:
		h.Push(path)
	}
}
