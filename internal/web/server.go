// Package web serves the shelf page and the catalog JSON API.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kug0115-cpu/kookmath/internal/shelf"
)

const (
	maxBodyBytes  = 1 << 20
	checkTimeout  = 2 * time.Second
	jsonMediaType = "application/json"
)

// Checker is a dependency checked by /readyz.
type Checker interface {
	Name() string
	HealthCheck(ctx context.Context) error
}

// Config holds the dependencies of a Server.
type Config struct {
	Shelf        *shelf.Shelf
	Checkers     []Checker
	AdminEnabled bool
}

// Server routes HTTP requests to the shelf.
type Server struct {
	shelf    *shelf.Shelf
	checkers []Checker
	admin    bool
	page     *pageRenderer
}

func NewServer(cfg Config) *Server {
	return &Server{
		shelf:    cfg.Shelf,
		checkers: cfg.Checkers,
		admin:    cfg.AdminEnabled,
		page:     newPageRenderer(),
	}
}

// Router builds the chi router. Admin routes are mounted only when enabled.
func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, requestLogger)
	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/", s.handleShelf)

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)
		r.Get("/export.xlsx", s.handleExportXLSX)
		r.Get("/books/{bookID}", s.handleBook)
		r.Get("/books/{bookID}/chapters/{index}/link", s.handleShareLink)

		if !s.admin {
			return
		}
		r.Group(func(r chi.Router) {
			r.Use(limitBody)
			r.Post("/grades", s.handleAddGrade)
			r.Post("/books", s.handleAddBook)
			r.Delete("/grades/{gradeID}/books/{index}", s.handleRemoveBook)
			r.Post("/books/{bookID}/chapters", s.handleAddChapter)
			r.Post("/books/{bookID}/chapters/{index}/videos", s.handleAddVideos)
			r.Put("/books/{bookID}/chapters/{index}/videos/{videoIndex}", s.handleUpdateVideo)
		})
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	failed := map[string]string{}
	for _, c := range s.checkers {
		if err := c.HealthCheck(ctx); err != nil {
			slog.Warn("readiness check failed", "check", c.Name(), "error", err)
			failed[c.Name()] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", jsonMediaType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, shelf.ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, shelf.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, shelf.ErrPersist):
		status = http.StatusInternalServerError
	default:
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		level := slog.LevelDebug
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		slog.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
