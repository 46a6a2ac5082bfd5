package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/ckirubhananth/Agent-Sangam/internal/config"
	"github.com/ckirubhananth/Agent-Sangam/internal/service"
)

// Server is the HTTP surface over the document Q&A core.
type Server struct {
	router   chi.Router
	core     *service.Service
	log      *slog.Logger
	cfg      config.Config
	validate *validator.Validate
}

func NewServer(core *service.Service, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		core:     core,
		log:      log,
		cfg:      cfg,
		validate: validator.New(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Post("/api/upload", s.handleUpload)
	r.Get("/api/tasks/{taskID}", s.handleTaskStatus)

	r.Get("/api/documents", s.handleListDocuments)
	r.Get("/api/documents/{docID}/search", s.handleSearch)
	r.Get("/api/documents/{docID}/entities", s.handleEntities)
	r.Get("/api/documents/{docID}/summary", s.handleSummary)
	r.Get("/api/documents/{docID}/context", s.handleContext)

	r.Post("/api/ask", s.handleAsk)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
