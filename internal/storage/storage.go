package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned for unknown blob keys.
var ErrNotFound = errors.New("blob not found")

// Store persists raw uploaded bytes keyed by document id. The query
// path never reads from it; it exists so the original upload survives
// past extraction within the process lifetime.
type Store interface {
	Put(docID string, data []byte) error
	Get(docID string) ([]byte, error)
	Delete(docID string) error
}

// MemoryStore keeps blobs in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(docID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.blobs[docID] = cp
	return nil
}

func (s *MemoryStore) Get(docID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[docID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (s *MemoryStore) Delete(docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, docID)
	return nil
}

// DiskStore writes blobs under a directory, one file per document id.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) path(docID string) string {
	return filepath.Join(s.dir, filepath.Base(docID))
}

func (s *DiskStore) Put(docID string, data []byte) error {
	return os.WriteFile(s.path(docID), data, 0o644)
}

func (s *DiskStore) Get(docID string) ([]byte, error) {
	data, err := os.ReadFile(s.path(docID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *DiskStore) Delete(docID string) error {
	err := os.Remove(s.path(docID))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
