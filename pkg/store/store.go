// Package store persists project records for the HTTP server. The engine
// never touches it; it only consumes resolved project.Project values.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoBooth/pkg/project"
)

var (
	ErrNotFound  = errors.New("project not found")
	ErrInvalidID = errors.New("invalid project id")
)

// Record is a stored project with bookkeeping timestamps.
type Record struct {
	Project   project.Project
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpdateFunc edits a project inside Update. Returning an error aborts the
// update and leaves the stored record untouched.
type UpdateFunc func(project.Project) (project.Project, error)

// ProjectStore is the persistence collaborator.
type ProjectStore interface {
	// List returns every record in creation order.
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id string) (Record, error)
	// Create stores p; a record with the same id is replaced.
	Create(ctx context.Context, p project.Project) (Record, error)
	// Update applies fn atomically to the stored project.
	Update(ctx context.Context, id string, fn UpdateFunc) (Record, error)
	Delete(ctx context.Context, id string) error
}

// New returns the store selected by kind: "filesystem" (rooted at path) or
// anything else for the in-memory store.
func New(kind, path string) (ProjectStore, error) {
	fields := logrus.Fields{"storageType": kind}
	var (
		s   ProjectStore
		err error
	)
	switch kind {
	case "filesystem":
		fields["basePath"] = path
		s, err = NewFilesystemStore(path)
		if err != nil {
			return nil, err
		}
	default:
		fields["storageType"] = "in-memory"
		s = NewMemoryStore()
	}
	logrus.WithFields(fields).Info("Use storage")
	return s, nil
}

// checkID rejects ids that cannot name a file.
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
