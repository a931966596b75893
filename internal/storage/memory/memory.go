package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/retrosole/storefront/internal/storage"
)

// Storage implements storage.Storage using an in-memory map. It exists
// for tests that need to observe blob writes and deletes.
type Storage struct {
	mu      sync.RWMutex
	blobs   map[string][]byte
	baseURL string

	// PutErr and DeleteErr, when set, are returned by the corresponding
	// operations to simulate storage failures.
	PutErr    error
	DeleteErr error
}

// New creates a new in-memory storage instance.
func New(baseURL string) *Storage {
	return &Storage{
		blobs:   make(map[string][]byte),
		baseURL: baseURL,
	}
}

// Put stores the blob bytes in memory.
func (s *Storage) Put(_ context.Context, input *storage.PutInput) (*storage.PutResult, error) {
	if s.PutErr != nil {
		return nil, s.PutErr
	}

	data, err := io.ReadAll(input.Data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.blobs[input.Key] = data
	s.mu.Unlock()

	return &storage.PutResult{
		Key: input.Key,
		URL: s.URL(input.Key),
	}, nil
}

// Delete removes the blob from memory.
func (s *Storage) Delete(_ context.Context, key string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.blobs[key]; !exists {
		return fmt.Errorf("blob not found: %s", key)
	}
	delete(s.blobs, key)
	return nil
}

// Exists reports whether a blob is stored under the given key.
func (s *Storage) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.blobs[key]
	return exists, nil
}

// URL returns the URL for the given key.
func (s *Storage) URL(key string) string {
	return s.baseURL + "/" + key
}

// Keys returns the keys of all stored blobs.
func (s *Storage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of stored blobs.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
