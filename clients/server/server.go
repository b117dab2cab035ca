// Package server provides the GoBooth HTTP API: the catalog, project records,
// studio edits with undo and redo, rendering, export, bundles and uploads.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoBooth/pkg/catalog"
	"github.com/xob0t/GoBooth/pkg/compositor"
	"github.com/xob0t/GoBooth/pkg/config"
	"github.com/xob0t/GoBooth/pkg/filter"
	"github.com/xob0t/GoBooth/pkg/loader"
	"github.com/xob0t/GoBooth/pkg/raster"
	"github.com/xob0t/GoBooth/pkg/store"
)

// Server wires the engine to HTTP.
type Server struct {
	cfg        *config.Config
	log        logrus.FieldLogger
	catalog    *catalog.Catalog
	compositor *compositor.Compositor
	images     *loader.Loader
	fonts      *raster.FontManager
	store      store.ProjectStore
	assets     *assetManager
	sessions   *sessions
	now        func() time.Time
}

// New builds a Server. Uploaded assets are resolvable by the image loader
// through "asset:<id>" photo sources.
func New(cfg *config.Config, cat *catalog.Catalog, st store.ProjectStore, fonts *raster.FontManager, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if fonts == nil {
		fonts = raster.DefaultFontManager()
	}
	s := &Server{
		cfg:      cfg,
		log:      log,
		catalog:  cat,
		fonts:    fonts,
		store:    st,
		assets:   newAssetManager(cfg.MaxAssets, cfg.MaxAssetBytes),
		sessions: newSessions(),
		now:      time.Now,
	}
	s.images = loader.New(loader.Options{
		Concurrency: cfg.LoadConcurrency,
		Timeout:     cfg.FetchTimeout,
		Origin:      cfg.CORSOrigin,
		Assets:      s.assets.bytes,
		CacheSize:   cfg.ImageCacheSize,
		CacheTTL:    cfg.ImageCacheTTL,
		Logger:      log,
	})
	s.compositor = compositor.New(cat, filter.NewMapper(cat), s.images,
		compositor.WithLogger(log),
		compositor.WithFullFidelity(cfg.FullFidelityFilters),
	)
	return s
}

// Router returns the HTTP handler for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", s.handleRoot)
		r.Get("/health", s.handleHealth)
		r.Get("/catalog", s.handleCatalog)
		r.Post("/render", s.handleRender)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.handleListProjects)
			r.Post("/", s.handleCreateProject)
			r.Post("/import", s.handleImportBundle)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetProject)
				r.Put("/", s.handleUpdateProject)
				r.Delete("/", s.handleDeleteProject)
				r.Post("/photos", s.handleAddPhotos)
				r.Delete("/photos/{photoID}", s.handleRemovePhoto)
				r.Patch("/customization", s.handlePatchCustomization)
				r.Post("/undo", s.handleUndo)
				r.Post("/redo", s.handleRedo)
				r.Get("/history", s.handleHistory)
				r.Get("/export", s.handleExport)
				r.Get("/fit", s.handleFit)
				r.Get("/bundle", s.handleBundle)
			})
		})

		r.Route("/assets", func(r chi.Router) {
			r.Get("/", s.handleListAssets)
			r.Post("/", s.handleUploadAsset)
			r.Get("/{id}", s.handleGetAsset)
			r.Delete("/{id}", s.handleDeleteAsset)
		})
	})

	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config, s *Server) error {
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", srv.Addr).Info("GoBooth API listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, code string, err error) {
	resp := errorResponse{Error: code}
	if err != nil {
		resp.Detail = err.Error()
		entry := s.log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"status":     status,
		}).WithError(err)
		if status >= http.StatusInternalServerError {
			entry.Error(code)
		} else {
			entry.Debug(code)
		}
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}

// storeError maps a store or edit failure onto a response.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrInvalidID):
		s.respondError(w, r, http.StatusNotFound, "not_found", err)
	case errors.Is(err, errBadEdit):
		s.respondError(w, r, http.StatusBadRequest, "invalid_project", err)
	default:
		s.respondError(w, r, http.StatusInternalServerError, "store_failed", err)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"message": "GoBooth API is running!"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok", "version": config.Version})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.catalog.Document())
}
