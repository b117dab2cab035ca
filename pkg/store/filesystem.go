package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoBooth/pkg/project"
)

type fsStore struct {
	basePath string
	// mu serializes read-modify-write cycles within this process.
	mu  sync.Mutex
	now func() time.Time
}

type fileRecord struct {
	Project   project.Project `json:"project"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewFilesystemStore keeps one JSON file per project under basePath.
func NewFilesystemStore(basePath string) (ProjectStore, error) {
	if basePath == "" {
		return nil, errors.New("filesystem store needs a base path")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &fsStore{basePath: basePath, now: time.Now}, nil
}

func (s *fsStore) path(id string) string {
	return filepath.Join(s.basePath, id+".json")
}

func (s *fsStore) read(id string) (Record, error) {
	if err := checkID(id); err != nil {
		return Record{}, err
	}
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Record{}, fmt.Errorf("read project %s: %w", id, err)
	}
	var fr fileRecord
	if err := json.Unmarshal(data, &fr); err != nil {
		return Record{}, fmt.Errorf("parse project %s: %w", id, err)
	}
	return Record{Project: fr.Project.Clone(), CreatedAt: fr.CreatedAt, UpdatedAt: fr.UpdatedAt}, nil
}

// write replaces the file atomically via a temp file and rename.
func (s *fsStore) write(r Record) error {
	data, err := json.MarshalIndent(fileRecord{Project: r.Project, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal project %s: %w", r.Project.ID, err)
	}
	tmp, err := os.CreateTemp(s.basePath, ".tmp-*")
	if err != nil {
		return fmt.Errorf("write project %s: %w", r.Project.ID, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write project %s: %w", r.Project.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write project %s: %w", r.Project.ID, err)
	}
	if err := os.Rename(tmp.Name(), s.path(r.Project.ID)); err != nil {
		return fmt.Errorf("write project %s: %w", r.Project.ID, err)
	}
	return nil
}

func (s *fsStore) List(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	out := make([]Record, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		r, err := s.read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			logrus.WithError(err).WithField("file", name).Warn("skipping unreadable project file")
			continue
		}
		out = append(out, r)
	}
	sortRecords(out)
	return out, nil
}

func (s *fsStore) Get(ctx context.Context, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(id)
}

func (s *fsStore) Create(ctx context.Context, p project.Project) (Record, error) {
	if err := checkID(p.ID); err != nil {
		return Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	r := Record{Project: p.Clone(), CreatedAt: now, UpdatedAt: now}
	if err := s.write(r); err != nil {
		logrus.WithError(err).WithField("project_id", p.ID).Error("Failed to create project")
		return Record{}, err
	}
	logrus.WithFields(logrus.Fields{
		"project_id": p.ID,
		"file_path":  s.path(p.ID),
	}).Info("Project created")
	return r, nil
}

func (s *fsStore) Update(ctx context.Context, id string, fn UpdateFunc) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.read(id)
	if err != nil {
		return Record{}, err
	}
	next, err := fn(r.Project.Clone())
	if err != nil {
		return Record{}, err
	}
	next.ID = id
	r.Project = next.Clone()
	r.UpdatedAt = s.now().UTC()
	if err := s.write(r); err != nil {
		return Record{}, err
	}
	return r, nil
}

func (s *fsStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	logrus.WithField("project_id", id).Info("Project deleted")
	return nil
}
