package server

import (
	"sync"

	"github.com/xob0t/GoBooth/pkg/project"
)

// sessions keeps one undo/redo history per project edited through the API.
// A history starts at the first edit, from the state before that edit.
// Edits of one project hold its lock so the store and the history see
// them in the same order.
type sessions struct {
	mu      sync.Mutex
	history map[string]*project.History
	locks   map[string]*sync.Mutex
}

func newSessions() *sessions {
	return &sessions{history: make(map[string]*project.History), locks: make(map[string]*sync.Mutex)}
}

// lock takes the edit lock of project id and returns its release.
func (s *sessions) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// record pushes after onto the project's history, creating it from before.
func (s *sessions) record(before, after project.Project) {
	s.mu.Lock()
	h, ok := s.history[after.ID]
	if !ok {
		h = project.NewHistory(before)
		s.history[after.ID] = h
	}
	s.mu.Unlock()
	h.Push(after)
}

func (s *sessions) get(id string) (*project.History, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.history[id]
	return h, ok
}

func (s *sessions) drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, id)
	delete(s.locks, id)
}
