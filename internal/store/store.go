package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ckirubhananth/Agent-Sangam/internal/entity"
	"github.com/ckirubhananth/Agent-Sangam/internal/index"
	"github.com/ckirubhananth/Agent-Sangam/internal/segment"
)

var (
	// ErrNotFound is returned for unknown document ids.
	ErrNotFound = errors.New("document not found")
	// ErrNotReady is returned when a query arrives before the pipeline
	// has finished processing the document.
	ErrNotReady = errors.New("document not ready")
)

// Stage is the processing state of a document. A document only moves
// forward through the fixed order below; Failed is terminal and
// reachable from any non-terminal stage.
type Stage string

const (
	StageUploaded    Stage = "uploaded"
	StageExtracting  Stage = "extracting"
	StageSegmenting  Stage = "segmenting"
	StageSummarizing Stage = "summarizing"
	StageIndexing    Stage = "indexing"
	StageReady       Stage = "ready"
	StageFailed      Stage = "failed"
)

// stageOrder is the fixed pipeline progression.
var stageOrder = []Stage{
	StageUploaded,
	StageExtracting,
	StageSegmenting,
	StageSummarizing,
	StageIndexing,
	StageReady,
}

// stageProgress maps each completed stage to its progress value.
var stageProgress = map[Stage]int{
	StageUploaded:    0,
	StageExtracting:  20,
	StageSegmenting:  40,
	StageSummarizing: 60,
	StageIndexing:    80,
	StageReady:       100,
}

// Next returns the immediate successor stage, or "" if s is terminal.
func (s Stage) Next() Stage {
	for i, st := range stageOrder {
		if st == s && i+1 < len(stageOrder) {
			return stageOrder[i+1]
		}
	}
	return ""
}

// Terminal reports whether s ends the pipeline.
func (s Stage) Terminal() bool {
	return s == StageReady || s == StageFailed
}

// ProgressFor returns the progress value recorded when stage s completes.
func ProgressFor(s Stage) int {
	return stageProgress[s]
}

// Document is the unit of ingestion and querying. It is owned by the
// pipeline until Status reaches ready, after which it is read-only.
type Document struct {
	ID       string
	Filename string
	Text     string
	Segments []segment.Segment
	Summary  string
	Entities []entity.Entity
	Index    *index.Index
	Status   Stage

	CreatedAt time.Time
}

// Store is the process-wide document container. It is constructed once
// at start-up and injected into the pipeline and query paths; there are
// no package-level singletons.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

func New() *Store {
	return &Store{docs: make(map[string]*Document)}
}

// Create registers a new document in the uploaded stage.
func (s *Store) Create(id, filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = &Document{
		ID:        id,
		Filename:  filename,
		Status:    StageUploaded,
		CreatedAt: time.Now(),
	}
}

// SetText records the extracted text for a document.
func (s *Store) SetText(id, text string) error {
	return s.update(id, func(d *Document) { d.Text = text })
}

// SetSegments records the segmenter output.
func (s *Store) SetSegments(id string, segs []segment.Segment) error {
	return s.update(id, func(d *Document) { d.Segments = segs })
}

// SetSummary records the document-level summary.
func (s *Store) SetSummary(id, summary string) error {
	return s.update(id, func(d *Document) { d.Summary = summary })
}

// SetIndexed records the built index and extracted entities together.
func (s *Store) SetIndexed(id string, ix *index.Index, ents []entity.Entity) error {
	return s.update(id, func(d *Document) {
		d.Index = ix
		d.Entities = ents
	})
}

// SetStatus advances the document's stage. Callers (the pipeline)
// guarantee ordering; the store only guards against torn reads.
func (s *Store) SetStatus(id string, status Stage) error {
	return s.update(id, func(d *Document) { d.Status = status })
}

func (s *Store) update(id string, fn func(*Document)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return ErrNotFound
	}
	fn(d)
	return nil
}

// Snapshot returns a shallow copy of the document under the store lock,
// so a concurrent stage transition is never observed half-applied.
func (s *Store) Snapshot(id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return *d, nil
}

// Ready returns a snapshot of the document, failing with ErrNotReady
// unless the whole pipeline has completed. Index and entities must not
// be consulted before this succeeds.
func (s *Store) Ready(id string) (Document, error) {
	d, err := s.Snapshot(id)
	if err != nil {
		return Document{}, err
	}
	if d.Status != StageReady {
		return Document{}, ErrNotReady
	}
	return d, nil
}

// List returns snapshots of all documents in creation order.
func (s *Store) List() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
