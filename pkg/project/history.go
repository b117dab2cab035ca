package project

import "sync"

// History is a linear undo/redo log of project snapshots. Pushing after an
// undo discards the redo branch.
type History struct {
	mu      sync.Mutex
	entries []Project
	index   int
}

// NewHistory starts a log holding initial as its only entry.
func NewHistory(initial Project) *History {
	return &History{entries: []Project{initial.Clone()}}
}

// Push records p as the newest snapshot and makes it current.
func (h *History) Push(p Project) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], p.Clone())
	h.index = len(h.entries) - 1
}

// Apply runs edit on the current snapshot and pushes the result.
func (h *History) Apply(edit func(Project) Project) Project {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := edit(h.entries[h.index].Clone())
	h.entries = append(h.entries[:h.index+1], next.Clone())
	h.index = len(h.entries) - 1
	return next.Clone()
}

// Current returns the snapshot at the cursor.
func (h *History) Current() Project {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.index].Clone()
}

// Undo moves the cursor back one step. ok is false at the oldest entry.
func (h *History) Undo() (p Project, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index == 0 {
		return h.entries[0].Clone(), false
	}
	h.index--
	return h.entries[h.index].Clone(), true
}

// Redo moves the cursor forward one step. ok is false at the newest entry.
func (h *History) Redo() (p Project, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index == len(h.entries)-1 {
		return h.entries[h.index].Clone(), false
	}
	h.index++
	return h.entries[h.index].Clone(), true
}

func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index > 0
}

func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index < len(h.entries)-1
}

// Len returns the number of recorded snapshots.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Reset discards the log and starts over from p.
func (h *History) Reset(p Project) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = []Project{p.Clone()}
	h.index = 0
}
