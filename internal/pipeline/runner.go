package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ckirubhananth/Agent-Sangam/internal/entity"
	"github.com/ckirubhananth/Agent-Sangam/internal/extract"
	"github.com/ckirubhananth/Agent-Sangam/internal/index"
	"github.com/ckirubhananth/Agent-Sangam/internal/segment"
	"github.com/ckirubhananth/Agent-Sangam/internal/store"
)

// Stage collaborators are injected so the runner carries no format or
// ranking knowledge of its own and tests can substitute failing stages.
type (
	// Extractor turns raw bytes into ordered per-page text.
	Extractor interface {
		Extract(data []byte, filename string) ([]extract.Page, error)
	}
	// Segmenter splits flattened text into offset-bearing segments.
	Segmenter interface {
		Segment(text string) []segment.Segment
	}
	// Summarizer produces the document-level summary.
	Summarizer interface {
		Summarize(text string) string
	}
	// Indexer builds the per-document inverted index.
	Indexer interface {
		Build(text string, segs []segment.Segment) (*index.Index, error)
	}
	// EntityScanner extracts categorized entities from document text.
	EntityScanner interface {
		Scan(text string) []entity.Entity
	}
)

// Deps bundles the runner's collaborators.
type Deps struct {
	Extractor Extractor
	Segmenter Segmenter
	Summary   Summarizer
	Indexer   Indexer
	Entities  EntityScanner
}

// Runner drives one-shot, per-document ingestion. Each Run gets its own
// goroutine; concurrent documents never serialize on each other.
type Runner struct {
	docs  *store.Store
	tasks *TaskStore
	deps  Deps
	log   *slog.Logger

	// Optional per-stage deadline; 0 disables it. With it disabled a
	// stuck stage leaves its task in-flight forever (known gap).
	stageTimeout time.Duration

	wg sync.WaitGroup
}

func NewRunner(docs *store.Store, tasks *TaskStore, deps Deps, log *slog.Logger, stageTimeout time.Duration) *Runner {
	return &Runner{
		docs:         docs,
		tasks:        tasks,
		deps:         deps,
		log:          log,
		stageTimeout: stageTimeout,
	}
}

// Run starts processing a document and returns an awaitable handle.
// Stage failures are recorded on the task, never returned here.
func (r *Runner) Run(ctx context.Context, docID, filename string, data []byte) *Handle {
	task := r.tasks.Create(docID)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.process(ctx, task, filename, data)
	}()
	return &Handle{task: task}
}

// Wait blocks until every in-flight run has terminated.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) process(ctx context.Context, task *Task, filename string, data []byte) {
	log := r.log.With("task_id", task.ID, "doc_id", task.DocID)

	var text string
	var segs []segment.Segment

	stages := []struct {
		stage store.Stage
		run   func() error
	}{
		{store.StageExtracting, func() error {
			pages, err := r.deps.Extractor.Extract(data, filename)
			if err != nil {
				return err
			}
			text = extract.Flatten(pages)
			if text == "" {
				return fmt.Errorf("no extractable content")
			}
			return r.docs.SetText(task.DocID, text)
		}},
		{store.StageSegmenting, func() error {
			segs = r.deps.Segmenter.Segment(text)
			if len(segs) == 0 {
				return fmt.Errorf("no segments produced")
			}
			return r.docs.SetSegments(task.DocID, segs)
		}},
		{store.StageSummarizing, func() error {
			return r.docs.SetSummary(task.DocID, r.deps.Summary.Summarize(text))
		}},
		{store.StageIndexing, func() error {
			var ix *index.Index
			var ents []entity.Entity
			g, _ := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				ix, err = r.deps.Indexer.Build(text, segs)
				return err
			})
			g.Go(func() error {
				ents = r.deps.Entities.Scan(text)
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}
			return r.docs.SetIndexed(task.DocID, ix, ents)
		}},
	}

	for _, st := range stages {
		if err := r.runStage(st.stage, st.run); err != nil {
			log.Error("stage failed", "stage", st.stage, "error", err)
			task.Fail(st.stage, err.Error())
			r.docs.SetStatus(task.DocID, store.StageFailed)
			return
		}
		// Document first, then task: a poller that sees the new
		// progress is guaranteed to see the matching document state.
		r.docs.SetStatus(task.DocID, st.stage)
		if err := task.Advance(st.stage, store.ProgressFor(st.stage)); err != nil {
			log.Error("tracker rejected transition", "stage", st.stage, "error", err)
			task.Fail(st.stage, err.Error())
			r.docs.SetStatus(task.DocID, store.StageFailed)
			return
		}
		log.Info("stage complete", "stage", st.stage, "progress", store.ProgressFor(st.stage))
	}

	r.docs.SetStatus(task.DocID, store.StageReady)
	if err := task.Advance(store.StageReady, store.ProgressFor(store.StageReady)); err != nil {
		log.Error("tracker rejected completion", "error", err)
		task.Fail(store.StageIndexing, err.Error())
		r.docs.SetStatus(task.DocID, store.StageFailed)
		return
	}
	log.Info("document ready", "chars", len(text), "segments", len(segs))
}

// runStage executes one stage, optionally bounded by the configured
// deadline. On timeout the stage goroutine is abandoned; there is no
// preemption.
func (r *Runner) runStage(stage store.Stage, fn func() error) error {
	if r.stageTimeout <= 0 {
		return fn()
	}
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-time.After(r.stageTimeout):
		return fmt.Errorf("stage %s timed out after %s", stage, r.stageTimeout)
	}
}

// FileExtractor dispatches to the per-format extractors by filename.
type FileExtractor struct{}

func (FileExtractor) Extract(data []byte, filename string) ([]extract.Page, error) {
	ex, err := extract.ForFile(filename)
	if err != nil {
		return nil, err
	}
	return ex.Extract(bytes.NewReader(data), filename)
}
