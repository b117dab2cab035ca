package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoBooth/pkg/project"
)

type memoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// NewMemoryStore returns a ProjectStore that lives in process memory.
func NewMemoryStore() ProjectStore {
	return &memoryStore{records: make(map[string]Record), now: time.Now}
}

func (s *memoryStore) List(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, clone(r))
	}
	sortRecords(out)
	return out, nil
}

func (s *memoryStore) Get(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	r, ok := s.records[id]
	s.mu.RUnlock()

	if !ok {
		logrus.WithField("project_id", id).Debug("project not found")
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clone(r), nil
}

func (s *memoryStore) Create(ctx context.Context, p project.Project) (Record, error) {
	if err := checkID(p.ID); err != nil {
		return Record{}, err
	}
	now := s.now().UTC()
	r := Record{Project: p.Clone(), CreatedAt: now, UpdatedAt: now}

	s.mu.Lock()
	s.records[p.ID] = r
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"project_id": p.ID,
		"photos":     len(p.Photos),
	}).Info("Project created")
	return clone(r), nil
}

func (s *memoryStore) Update(ctx context.Context, id string, fn UpdateFunc) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next, err := fn(r.Project.Clone())
	if err != nil {
		return Record{}, err
	}
	next.ID = id
	r.Project = next.Clone()
	r.UpdatedAt = s.now().UTC()
	s.records[id] = r
	return clone(r), nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.records, id)
	logrus.WithField("project_id", id).Info("Project deleted")
	return nil
}

func clone(r Record) Record {
	r.Project = r.Project.Clone()
	return r
}

func sortRecords(rs []Record) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].Project.ID < rs[j].Project.ID
		}
		return rs[i].CreatedAt.Before(rs[j].CreatedAt)
	})
}
