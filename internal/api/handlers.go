package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ckirubhananth/Agent-Sangam/internal/llm"
	"github.com/ckirubhananth/Agent-Sangam/internal/pipeline"
	"github.com/ckirubhananth/Agent-Sangam/internal/service"
	"github.com/ckirubhananth/Agent-Sangam/internal/store"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	docID, taskID, err := s.core.Upload(r.Context(), data, sanitizeFilename(header.Filename))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":   docID,
		"task_id":  taskID,
		"poll_url": fmt.Sprintf("/api/tasks/%s", taskID),
	})
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.core.Status(chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.core.Documents()
	out := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		out = append(out, map[string]any{
			"doc_id":   d.ID,
			"filename": d.Filename,
			"status":   d.Status,
		})
	}
	writeJSON(w, map[string]any{"documents": out})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	query := r.URL.Query().Get("q")

	maxResults := 5
	if v := r.URL.Query().Get("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, "max_results must be an integer", http.StatusBadRequest)
			return
		}
		maxResults = n
	}

	snippets, err := s.core.Search(docID, query, maxResults)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"results": snippets})
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	groups, err := s.core.Entities(chi.URLParam(r, "docID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"entities": groups})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.core.Summary(chi.URLParam(r, "docID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"summary": summary})
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	excerpt, err := s.core.Context(chi.URLParam(r, "docID"), r.URL.Query().Get("question"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"context": excerpt})
}

type askRequest struct {
	DocID    string `json:"doc_id" validate:"required"`
	UserID   string `json:"user_id" validate:"required"`
	Question string `json:"question" validate:"required,min=1,max=4000"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		jsonError(w, "validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	answer, err := s.core.Ask(r.Context(), req.DocID, req.UserID, req.Question)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"question": req.Question,
		"answer":   answer,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeError maps core errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var genErr *llm.GenerationError
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, pipeline.ErrTaskNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrNotReady):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrValidation):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &genErr):
		jsonError(w, err.Error(), http.StatusBadGateway)
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
