package history

import (
	"sync"
	"time"
)

// DefaultTurns bounds the per-(user, document) conversation window.
const DefaultTurns = 6

// Entry is one question/answer turn.
type Entry struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	At       time.Time `json:"at"`
}

type key struct {
	userID string
	docID  string
}

// Store keeps bounded per-(user, document) conversation history plus a
// per-user record of which documents the user has interacted with.
// All state is volatile.
type Store struct {
	mu       sync.Mutex
	turns    map[key][]Entry
	userDocs map[string][]string
	capacity int
}

func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultTurns
	}
	return &Store{
		turns:    make(map[key][]Entry),
		userDocs: make(map[string][]string),
		capacity: capacity,
	}
}

// Append pushes a turn. When the queue exceeds capacity the oldest
// entry is evicted, FIFO.
func (s *Store) Append(userID, docID, question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{userID, docID}
	q := append(s.turns[k], Entry{Question: question, Answer: answer, At: time.Now()})
	if len(q) > s.capacity {
		q = q[len(q)-s.capacity:]
	}
	s.turns[k] = q

	if !contains(s.userDocs[userID], docID) {
		s.userDocs[userID] = append(s.userDocs[userID], docID)
	}
}

// Get returns the retained window, oldest first. A copy is returned so
// callers never alias internal state.
func (s *Store) Get(userID, docID string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.turns[key{userID, docID}]
	out := make([]Entry, len(q))
	copy(out, q)
	return out
}

// Documents lists the document ids a user has asked about, in first
// interaction order.
func (s *Store) Documents(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.userDocs[userID]
	out := make([]string, len(docs))
	copy(out, docs)
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
