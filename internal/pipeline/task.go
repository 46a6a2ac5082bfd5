package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ckirubhananth/Agent-Sangam/internal/store"
	"github.com/google/uuid"
)

var (
	// ErrTaskNotFound is returned for unknown task ids.
	ErrTaskNotFound = errors.New("task not found")
	// ErrInvalidTransition flags a stage/progress pair that is not the
	// immediate successor of the task's current state. Only the
	// pipeline calls Advance, so seeing this is a programming error.
	ErrInvalidTransition = errors.New("invalid stage transition")
)

// StageError records which stage failed and why.
type StageError struct {
	Stage   store.Stage `json:"stage"`
	Message string      `json:"message"`
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %s", e.Stage, e.Message)
}

// Task tracks one document's ingestion run. Progress is monotone
// non-decreasing; the per-task mutex guarantees the pipeline writer
// and status pollers never observe a torn update.
type Task struct {
	mu sync.Mutex

	ID    string
	DocID string

	stage    store.Stage
	progress int
	err      *StageError

	done chan struct{}

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot is a read-only copy of task state.
type Snapshot struct {
	ID       string      `json:"task_id"`
	DocID    string      `json:"doc_id"`
	Stage    store.Stage `json:"stage"`
	Progress int         `json:"progress"`
	Err      *StageError `json:"error,omitempty"`
}

// Advance moves the task to the given stage with its progress value.
// Anything but the immediate successor stage carrying its fixed
// progress value is rejected with ErrInvalidTransition.
func (t *Task) Advance(stage store.Stage, progress int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stage.Terminal() {
		return fmt.Errorf("%w: task %s already terminal in %s", ErrInvalidTransition, t.ID, t.stage)
	}
	if next := t.stage.Next(); stage != next {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.stage, stage)
	}
	if want := store.ProgressFor(stage); progress != want {
		return fmt.Errorf("%w: stage %s expects progress %d, got %d", ErrInvalidTransition, stage, want, progress)
	}
	t.stage = stage
	t.progress = progress
	t.UpdatedAt = time.Now()
	if t.stage.Terminal() {
		close(t.done)
	}
	return nil
}

// Fail moves the task to failed, recording the erring stage and
// message. A task already in a terminal stage is left untouched, so
// a finished pipeline can never be retroactively marked failed.
func (t *Task) Fail(stage store.Stage, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stage.Terminal() {
		return
	}
	t.stage = store.StageFailed
	t.err = &StageError{Stage: stage, Message: message}
	t.UpdatedAt = time.Now()
	close(t.done)
}

// Snapshot returns a consistent copy of the task state.
func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		ID:       t.ID,
		DocID:    t.DocID,
		Stage:    t.stage,
		Progress: t.progress,
		Err:      t.err,
	}
}

// Done is closed when the task reaches a terminal stage.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// TaskStore is a thread-safe in-memory task registry. Tasks are never
// deleted during process lifetime.
type TaskStore struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[string]*Task)}
}

// Create registers a task for a document in the uploaded stage,
// progress 0.
func (s *TaskStore) Create(docID string) *Task {
	now := time.Now()
	t := &Task{
		ID:        uuid.NewString(),
		DocID:     docID,
		stage:     store.StageUploaded,
		progress:  0,
		done:      make(chan struct{}),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
	return t
}

// Get returns the task or ErrTaskNotFound.
func (s *TaskStore) Get(id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return t, nil
}
