package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoBooth/pkg/bundle"
	"github.com/xob0t/GoBooth/pkg/compositor"
	"github.com/xob0t/GoBooth/pkg/export"
	"github.com/xob0t/GoBooth/pkg/project"
	"github.com/xob0t/GoBooth/pkg/raster"
)

// renderProject draws p on a fresh canvas.
func (s *Server) renderProject(ctx context.Context, p project.Project) (*raster.Canvas, compositor.Report, error) {
	canvas := raster.NewCanvas(s.fonts)
	rep := s.compositor.NewView(canvas).Render(ctx, p)
	if rep.Err != nil {
		return nil, rep, rep.Err
	}
	return canvas, rep, nil
}

// exportOptions reads ?format= and ?quality=.
func exportOptions(r *http.Request) (export.Format, int, error) {
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		return "", 0, err
	}
	quality := export.DefaultJPEGQuality
	if q := r.URL.Query().Get("quality"); q != "" {
		quality, err = strconv.Atoi(q)
		if err != nil || quality < 1 || quality > 100 {
			return "", 0, fmt.Errorf("quality must be 1-100, got %q", q)
		}
	}
	return f, quality, nil
}

// writeImage renders p and answers with the encoded bitmap. With attach set
// the response carries the download file name.
func (s *Server) writeImage(w http.ResponseWriter, r *http.Request, p project.Project, attach bool) {
	f, quality, err := exportOptions(r)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid_request", err)
		return
	}

	canvas, rep, err := s.renderProject(r.Context(), p)
	if err != nil {
		s.respondError(w, r, http.StatusServiceUnavailable, "render_cancelled", err)
		return
	}
	data, err := export.Serialize(canvas, f, quality)
	if err != nil {
		s.log.WithFields(logrus.Fields{"project_id": p.ID, "format": f}).WithError(err).Error("Export failed")
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, errorResponse{Error: "export_failed", Detail: err.Error()})
		return
	}

	w.Header().Set("Content-Type", f.MimeType())
	w.Header().Set("X-Photos-Loaded", strconv.Itoa(rep.Loaded))
	w.Header().Set("X-Photos-Failed", strconv.Itoa(rep.Failed))
	if attach {
		name := export.Filename(p.Name, s.now(), f)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	}
	w.Write(data)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProject(w, r)
	if !ok {
		return
	}
	s.writeImage(w, r, p, true)
}

// handleRender draws an unsaved project sent in the request body.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req projectCreate
	if !s.decode(w, r, &req) {
		return
	}
	p := req.toModel()
	if err := p.Validate(); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid_project", err)
		return
	}
	s.writeImage(w, r, p, false)
}

type fitResponse struct {
	Layout  string      `json:"layout"`
	Scale   float64     `json:"scale"`
	Canvas  export.Size `json:"canvas"`
	Display export.Size `json:"display"`
}

func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProject(w, r)
	if !ok {
		return
	}
	var vp export.Size
	for _, q := range []struct {
		name string
		dst  *float64
	}{{"width", &vp.Width}, {"height", &vp.Height}} {
		v, err := strconv.ParseFloat(r.URL.Query().Get(q.name), 64)
		if err != nil {
			s.respondError(w, r, http.StatusBadRequest, "invalid_request", fmt.Errorf("%s: %w", q.name, err))
			return
		}
		*q.dst = v
	}

	tpl, err := s.catalog.Layout(p.LayoutID)
	if err != nil {
		tpl = s.catalog.DefaultLayout()
	}
	canvas := export.Size{Width: float64(tpl.Canvas.Width), Height: float64(tpl.Canvas.Height)}
	scale := export.FitScale(canvas, export.Inset(vp, export.ViewportPadding))
	render.JSON(w, r, fitResponse{
		Layout:  tpl.ID,
		Scale:   scale,
		Canvas:  canvas,
		Display: canvas.Scaled(scale),
	})
}

func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProject(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := bundle.Write(r.Context(), &buf, p, s.images); err != nil {
		s.respondError(w, r, http.StatusUnprocessableEntity, "bundle_failed", err)
		return
	}
	name := strings.TrimSuffix(export.Filename(p.Name, s.now(), export.PNG), export.PNG.Ext()) + ".zip"
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Write(buf.Bytes())
}

// handleImportBundle stores a project read from a bundle, sent either as the
// raw request body or as the "file" field of a multipart form. The imported
// project gets a new id.
func (s *Server) handleImportBundle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		file, _, err := r.FormFile("file")
		if err != nil {
			s.respondError(w, r, http.StatusBadRequest, "invalid_request", fmt.Errorf("no file uploaded: %w", err))
			return
		}
		defer file.Close()
		src = file
	}
	data, err := io.ReadAll(src)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid_request", err)
		return
	}

	p, err := bundle.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, bundle.ErrInvalidBundle) {
			status = http.StatusBadRequest
		}
		s.respondError(w, r, status, "invalid_bundle", err)
		return
	}
	p.ID = uuid.NewString()
	if err := p.Validate(); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid_project", err)
		return
	}

	rec, err := s.store.Create(r.Context(), p)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.log.WithFields(logrus.Fields{"project_id": rec.Project.ID, "photos": len(p.Photos)}).Info("Project imported")
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, fromStoreRecord(rec))
}
