package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ckirubhananth/Agent-Sangam/internal/entity"
	"github.com/ckirubhananth/Agent-Sangam/internal/extract"
	"github.com/ckirubhananth/Agent-Sangam/internal/history"
	"github.com/ckirubhananth/Agent-Sangam/internal/index"
	"github.com/ckirubhananth/Agent-Sangam/internal/llm"
	"github.com/ckirubhananth/Agent-Sangam/internal/pipeline"
	"github.com/ckirubhananth/Agent-Sangam/internal/retrieval"
	"github.com/ckirubhananth/Agent-Sangam/internal/storage"
	"github.com/ckirubhananth/Agent-Sangam/internal/store"
)

// ErrValidation flags malformed caller input.
var ErrValidation = errors.New("invalid input")

// DefaultSnippetRadius is the half-width of search snippet windows.
const DefaultSnippetRadius = 160

// Service is the core façade: a closed set of operations over the
// injected stores, pipeline and collaborators. The HTTP layer maps
// requests onto these methods and nothing else.
type Service struct {
	docs      *store.Store
	tasks     *pipeline.TaskStore
	runner    *pipeline.Runner
	blobs     storage.Store
	histories *history.Store
	engine    *retrieval.Engine
	generator llm.Generator
	log       *slog.Logger

	snippetRadius int
}

type Options struct {
	SnippetRadius int
}

func New(docs *store.Store, tasks *pipeline.TaskStore, runner *pipeline.Runner, blobs storage.Store, histories *history.Store, engine *retrieval.Engine, generator llm.Generator, log *slog.Logger, opts Options) *Service {
	radius := opts.SnippetRadius
	if radius <= 0 {
		radius = DefaultSnippetRadius
	}
	return &Service{
		docs:          docs,
		tasks:         tasks,
		runner:        runner,
		blobs:         blobs,
		histories:     histories,
		engine:        engine,
		generator:     generator,
		log:           log,
		snippetRadius: radius,
	}
}

// Upload registers a document, persists the raw bytes and starts the
// ingestion pipeline. Pipeline failures are reported via Status, never
// from here.
func (s *Service) Upload(ctx context.Context, data []byte, filename string) (docID, taskID string, err error) {
	if len(data) == 0 {
		return "", "", fmt.Errorf("%w: empty upload", ErrValidation)
	}
	if !extract.IsSupportedExtension(filename) {
		return "", "", fmt.Errorf("%w: unsupported file type %q", ErrValidation, filename)
	}

	docID = uuid.NewString()
	s.docs.Create(docID, filename)
	if err := s.blobs.Put(docID, data); err != nil {
		s.log.Warn("blob store write failed", "doc_id", docID, "error", err)
	}

	// The run outlives the upload request; only process shutdown or a
	// future cancellation hook should stop it.
	handle := s.runner.Run(context.WithoutCancel(ctx), docID, filename, data)
	return docID, handle.Task().ID, nil
}

// Status reports the tracked stage, progress and error for a task.
func (s *Service) Status(taskID string) (pipeline.Snapshot, error) {
	t, err := s.tasks.Get(taskID)
	if err != nil {
		return pipeline.Snapshot{}, err
	}
	return t.Snapshot(), nil
}

// Search runs keyword search over a ready document's index. An empty
// query returns no results and no error.
func (s *Service) Search(docID, query string, maxResults int) ([]index.Snippet, error) {
	if maxResults < 0 {
		return nil, fmt.Errorf("%w: max_results must be non-negative", ErrValidation)
	}
	doc, err := s.docs.Ready(docID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return []index.Snippet{}, nil
	}
	return doc.Index.Search(doc.Text, query, maxResults, s.snippetRadius), nil
}

// Entities returns extracted entities grouped by category, values in
// first-seen order.
func (s *Service) Entities(docID string) (map[entity.Category][]string, error) {
	doc, err := s.docs.Ready(docID)
	if err != nil {
		return nil, err
	}
	return entity.Group(doc.Entities), nil
}

// Summary returns the document-level summary.
func (s *Service) Summary(docID string) (string, error) {
	doc, err := s.docs.Ready(docID)
	if err != nil {
		return "", err
	}
	return doc.Summary, nil
}

// Context returns bounded, offset-ordered context for a question.
func (s *Service) Context(docID, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: question is required", ErrValidation)
	}
	doc, err := s.docs.Ready(docID)
	if err != nil {
		return "", err
	}
	return s.engine.Context(doc.Text, doc.Segments, question), nil
}

// Ask answers a question about a document: retrieve context and the
// bounded history, assemble the prompt, delegate generation, then
// record the turn.
func (s *Service) Ask(ctx context.Context, docID, userID, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: question is required", ErrValidation)
	}
	if userID == "" {
		return "", fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	doc, err := s.docs.Ready(docID)
	if err != nil {
		return "", err
	}

	excerpt := s.engine.Context(doc.Text, doc.Segments, question)
	turns := s.histories.Get(userID, docID)

	answer, err := s.generator.Generate(ctx, buildPrompt(excerpt, turns, question))
	if err != nil {
		return "", err
	}

	s.histories.Append(userID, docID, question, answer)
	return answer, nil
}

// History returns the retained conversation window, oldest first.
func (s *Service) History(userID, docID string) []history.Entry {
	return s.histories.Get(userID, docID)
}

// Documents lists all known documents.
func (s *Service) Documents() []store.Document {
	return s.docs.List()
}

func buildPrompt(excerpt string, turns []history.Entry, question string) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful assistant. Use the document excerpt and the conversation history to answer the question.\n\n")
	if len(turns) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, t := range turns {
			sb.WriteString("User: " + t.Question + "\nAssistant: " + t.Answer + "\n\n")
		}
	}
	sb.WriteString("Relevant document excerpt:\n" + excerpt + "\n\n")
	sb.WriteString("Question: " + question + "\n\nAnswer:")
	return sb.String()
}
