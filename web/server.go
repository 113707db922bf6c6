// Package web exposes the import engine over HTTP. It carries no
// authentication and is meant to run behind a trusted network boundary.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"timetrack/importer"
	"timetrack/internal/logging"
)

// Importer runs one import. *importer.Engine satisfies it.
type Importer interface {
	Run(ctx context.Context, opts importer.Options) (*importer.Result, error)
}

type Server struct {
	engine    Importer
	importDir string
	router    *chi.Mux
}

// NewServer wires the routes. importDir is the only directory the file
// based trigger reads from.
func NewServer(engine Importer, importDir string) http.Handler {
	s := &Server{
		engine:    engine,
		importDir: importDir,
		router:    chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/imports", func(r chi.Router) {
		r.Post("/time-entries", s.handleImportFile)
		r.Post("/uploads", s.handleImportUpload)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logging.FromContext(r.Context()).WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          r.RemoteAddr,
		}).Info("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
