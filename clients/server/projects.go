package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/xob0t/GoBooth/pkg/project"
)

var (
	errBadEdit     = errors.New("invalid edit")
	errNothingToDo = errors.New("nothing to do")
)

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := render.DecodeJSON(r.Body, v); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.List(r.Context())
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	out := make([]projectRecord, len(recs))
	for i, rec := range recs {
		out[i] = fromStoreRecord(rec)
	}
	render.JSON(w, r, out)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectCreate
	if !s.decode(w, r, &req) {
		return
	}
	p := req.toModel()
	if err := p.Validate(); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid_project", err)
		return
	}
	rec, err := s.store.Create(r.Context(), p)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, fromStoreRecord(rec))
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	render.JSON(w, r, fromStoreRecord(rec))
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.storeError(w, r, err)
		return
	}
	s.sessions.drop(id)
	render.JSON(w, r, map[string]string{"message": "Project deleted successfully"})
}

// edit applies fn to the stored project and records the change in the
// project's undo history.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, fn func(project.Project) (project.Project, error)) {
	id := chi.URLParam(r, "id")
	defer s.sessions.lock(id)()
	var before project.Project
	rec, err := s.store.Update(r.Context(), id, func(p project.Project) (project.Project, error) {
		before = p
		next, err := fn(p)
		if err != nil {
			return p, err
		}
		if err := next.Validate(); err != nil {
			return p, fmt.Errorf("%w: %w", errBadEdit, err)
		}
		return next, nil
	})
	if err != nil {
		if errors.Is(err, project.ErrPhotoNotFound) {
			s.respondError(w, r, http.StatusNotFound, "photo_not_found", err)
			return
		}
		s.storeError(w, r, err)
		return
	}
	s.sessions.record(before, rec.Project)
	render.JSON(w, r, fromStoreRecord(rec))
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req projectUpdate
	if !s.decode(w, r, &req) {
		return
	}
	s.edit(w, r, func(p project.Project) (project.Project, error) {
		return req.apply(p), nil
	})
}

func (s *Server) handleAddPhotos(w http.ResponseWriter, r *http.Request) {
	var req []photoCreate
	if !s.decode(w, r, &req) {
		return
	}
	photos := newPhotos(req)
	for _, ph := range photos {
		if err := ph.Validate(); err != nil {
			s.respondError(w, r, http.StatusBadRequest, "invalid_photo", err)
			return
		}
	}
	s.edit(w, r, func(p project.Project) (project.Project, error) {
		return p.AddPhotos(photos...), nil
	})
}

func (s *Server) handleRemovePhoto(w http.ResponseWriter, r *http.Request) {
	photoID := chi.URLParam(r, "photoID")
	s.edit(w, r, func(p project.Project) (project.Project, error) {
		return p.RemovePhoto(photoID)
	})
}

func (s *Server) handlePatchCustomization(w http.ResponseWriter, r *http.Request) {
	var req customizationPatch
	if !s.decode(w, r, &req) {
		return
	}
	s.edit(w, r, func(p project.Project) (project.Project, error) {
		return p.WithCustomization(req.toPartial()), nil
	})
}

// step moves the project's history one entry and stores the result.
func (s *Server) step(w http.ResponseWriter, r *http.Request, move func(*project.History) (project.Project, bool)) {
	id := chi.URLParam(r, "id")
	defer s.sessions.lock(id)()
	h, ok := s.sessions.get(id)
	if !ok {
		s.respondError(w, r, http.StatusConflict, "nothing_to_do", errNothingToDo)
		return
	}
	p, ok := move(h)
	if !ok {
		s.respondError(w, r, http.StatusConflict, "nothing_to_do", errNothingToDo)
		return
	}
	rec, err := s.store.Update(r.Context(), id, func(project.Project) (project.Project, error) {
		return p, nil
	})
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	render.JSON(w, r, fromStoreRecord(rec))
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, (*project.History).Undo)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, (*project.History).Redo)
}

type historyResponse struct {
	Entries int  `json:"entries"`
	CanUndo bool `json:"can_undo"`
	CanRedo bool `json:"can_redo"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.Get(r.Context(), id); err != nil {
		s.storeError(w, r, err)
		return
	}
	resp := historyResponse{Entries: 1}
	if h, ok := s.sessions.get(id); ok {
		resp = historyResponse{Entries: h.Len(), CanUndo: h.CanUndo(), CanRedo: h.CanRedo()}
	}
	render.JSON(w, r, resp)
}

// loadProject fetches the stored project named by the id URL parameter.
func (s *Server) loadProject(w http.ResponseWriter, r *http.Request) (project.Project, bool) {
	rec, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, r, err)
		return project.Project{}, false
	}
	return rec.Project, true
}
