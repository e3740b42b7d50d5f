// Package server is the HTTP API of htmlcleaner. Documents are uploaded
// (or fetched by URL) into an in-memory session, inspected, re-leveled and
// transformed, and the result is returned or saved by the output writer.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tesarmarek/Legal-document-cleaner/config"
	"github.com/tesarmarek/Legal-document-cleaner/core/output"
	"github.com/tesarmarek/Legal-document-cleaner/core/pipeline"
	"github.com/tesarmarek/Legal-document-cleaner/metrics"
)

// Server is the HTTP API server for htmlcleaner.
type Server struct {
	router   chi.Router
	pipeline *pipeline.Pipeline
	store    *Store
	writer   *output.Writer
	metrics  *metrics.Metrics
	log      *slog.Logger
	cfg      config.ServerConfig
}

// NewServer creates and configures the HTTP server.
func NewServer(p *pipeline.Pipeline, writer *output.Writer, m *metrics.Metrics, log *slog.Logger, cfg config.ServerConfig) *Server {
	s := &Server{
		pipeline: p,
		store:    NewStore(),
		writer:   writer,
		metrics:  m,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Store returns the documents held by the server.
func (s *Server) Store() *Store {
	return s.store
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(Instrument(s.metrics))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/documents", func(r chi.Router) {
		r.Get("/", s.handleListDocuments)
		r.Post("/", s.handleCreateDocument)

		r.Route("/{docID}", func(r chi.Router) {
			r.Get("/", s.handleGetDocument)
			r.Delete("/", s.handleDeleteDocument)
			r.Get("/headers", s.handleListHeaders)
			r.Put("/headers/{index}", s.handleUpdateHeader)
			r.Get("/structure", s.handleStructure)
			r.Get("/element", s.handleElement)
			r.Post("/transform", s.handleTransform)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "documents": s.store.Len()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
