package history

import (
	"fmt"
	"strings"
	"testing"
)

func TestAppendGet_Order(t *testing.T) {
	s := NewStore(6)
	s.Append("u1", "d1", "q1", "a1")
	s.Append("u1", "d1", "q2", "a2")

	got := s.Get("u1", "d1")
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Question != "q1" || got[1].Question != "q2" {
		t.Errorf("entries out of order: %v", got)
	}
}

func TestAppend_EvictsOldestBeyondCapacity(t *testing.T) {
	s := NewStore(6)
	for i := 1; i <= 9; i++ {
		s.Append("u1", "d1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	got := s.Get("u1", "d1")
	if len(got) != 6 {
		t.Fatalf("expected 6 retained entries, got %d", len(got))
	}
	if got[0].Question != "q4" {
		t.Errorf("expected oldest retained entry q4, got %s", got[0].Question)
	}
	if got[5].Question != "q9" {
		t.Errorf("expected newest entry q9, got %s", got[5].Question)
	}
	for _, e := range got {
		for i := 1; i <= 3; i++ {
			if e.Question == fmt.Sprintf("q%d", i) {
				t.Errorf("evicted entry q%d still present", i)
			}
		}
	}
}

func TestKeys_Independent(t *testing.T) {
	s := NewStore(6)
	s.Append("u1", "d1", "q-u1-d1", "a")
	s.Append("u1", "d2", "q-u1-d2", "a")
	s.Append("u2", "d1", "q-u2-d1", "a")

	if got := s.Get("u1", "d1"); len(got) != 1 || got[0].Question != "q-u1-d1" {
		t.Errorf("u1/d1 history polluted: %v", got)
	}
	if got := s.Get("u2", "d1"); len(got) != 1 || got[0].Question != "q-u2-d1" {
		t.Errorf("u2/d1 history polluted: %v", got)
	}
}

func TestGet_EmptyForUnknownPair(t *testing.T) {
	s := NewStore(6)
	if got := s.Get("nobody", "nothing"); len(got) != 0 {
		t.Errorf("expected empty history, got %v", got)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := NewStore(6)
	s.Append("u1", "d1", "q1", "a1")
	got := s.Get("u1", "d1")
	got[0].Question = "mutated"
	if fresh := s.Get("u1", "d1"); fresh[0].Question != "q1" {
		t.Error("Get returned aliased internal state")
	}
}

func TestDocuments_FirstInteractionOrder(t *testing.T) {
	s := NewStore(6)
	s.Append("u1", "d2", "q", "a")
	s.Append("u1", "d1", "q", "a")
	s.Append("u1", "d2", "q", "a")

	docs := s.Documents("u1")
	if strings.Join(docs, ",") != "d2,d1" {
		t.Errorf("expected [d2 d1], got %v", docs)
	}
}
