package storage

import (
	"context"
	"sync"

	appdoc "github.com/bizdocs/backend/internal/application/document"
	"github.com/bizdocs/backend/internal/domain/shared"
)

var _ appdoc.ArtifactStore = (*MemoryArtifactStore)(nil)

// MemoryArtifactStore keeps artifacts in process memory.
// Use it for development and tests; artifacts are lost on restart.
type MemoryArtifactStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemoryArtifactStore creates an empty store
func NewMemoryArtifactStore() *MemoryArtifactStore {
	return &MemoryArtifactStore{files: make(map[string][]byte)}
}

// Put stores a copy of content under key
func (s *MemoryArtifactStore) Put(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	if key == "" {
		return "", shared.NewValidationError("artifact key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = append([]byte(nil), content...)
	return key, nil
}

// Get returns a copy of the stored content
func (s *MemoryArtifactStore) Get(ctx context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.files[path]
	if !ok {
		return nil, shared.NewNotFoundError("artifact %s not found", path)
	}
	return append([]byte(nil), content...), nil
}

// Delete forgets an artifact
func (s *MemoryArtifactStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	return nil
}

// Len returns the number of stored artifacts
func (s *MemoryArtifactStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
