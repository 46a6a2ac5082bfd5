package store

import (
	"errors"
	"testing"

	"github.com/ckirubhananth/Agent-Sangam/internal/segment"
)

func TestStageOrder(t *testing.T) {
	steps := []struct {
		stage    Stage
		next     Stage
		progress int
	}{
		{StageUploaded, StageExtracting, 0},
		{StageExtracting, StageSegmenting, 20},
		{StageSegmenting, StageSummarizing, 40},
		{StageSummarizing, StageIndexing, 60},
		{StageIndexing, StageReady, 80},
		{StageReady, "", 100},
	}
	for _, st := range steps {
		if got := st.stage.Next(); got != st.next {
			t.Errorf("%s.Next(): expected %q, got %q", st.stage, st.next, got)
		}
		if got := ProgressFor(st.stage); got != st.progress {
			t.Errorf("ProgressFor(%s): expected %d, got %d", st.stage, st.progress, got)
		}
	}
	if !StageReady.Terminal() || !StageFailed.Terminal() {
		t.Error("ready and failed must be terminal")
	}
	if StageIndexing.Terminal() {
		t.Error("indexing must not be terminal")
	}
}

func TestStore_CreateAndSnapshot(t *testing.T) {
	s := New()
	s.Create("d1", "book.txt")

	doc, err := s.Snapshot("d1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if doc.Status != StageUploaded {
		t.Errorf("expected uploaded, got %s", doc.Status)
	}
	if doc.Filename != "book.txt" {
		t.Errorf("expected filename book.txt, got %s", doc.Filename)
	}
}

func TestStore_UnknownDocument(t *testing.T) {
	s := New()
	if _, err := s.Snapshot("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.SetText("ghost", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ReadyGate(t *testing.T) {
	s := New()
	s.Create("d1", "book.txt")

	for _, st := range []Stage{StageUploaded, StageExtracting, StageSegmenting, StageSummarizing, StageIndexing, StageFailed} {
		s.SetStatus("d1", st)
		if _, err := s.Ready("d1"); !errors.Is(err, ErrNotReady) {
			t.Errorf("stage %s: expected ErrNotReady, got %v", st, err)
		}
	}

	s.SetStatus("d1", StageReady)
	if _, err := s.Ready("d1"); err != nil {
		t.Errorf("expected ready document, got %v", err)
	}
}

func TestStore_SettersAccumulate(t *testing.T) {
	s := New()
	s.Create("d1", "book.txt")

	if err := s.SetText("d1", "The cat sat."); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSegments("d1", []segment.Segment{{ID: 0, Start: 0, End: 12, Text: "The cat sat."}}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSummary("d1", "A cat sat."); err != nil {
		t.Fatal(err)
	}

	doc, err := s.Snapshot("d1")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Text == "" || len(doc.Segments) != 1 || doc.Summary == "" {
		t.Errorf("setters lost data: %+v", doc)
	}
}

func TestStore_ListOrdered(t *testing.T) {
	s := New()
	s.Create("d1", "a.txt")
	s.Create("d2", "b.txt")
	s.Create("d3", "c.txt")

	docs := s.List()
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
}
