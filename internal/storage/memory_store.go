package storage

import (
	"context"
	"sync"
)

// MemoryObjectStore is an in-memory ObjectStore. It backs single-instance
// deployments and tests; a bucket-backed implementation satisfies the same
// interface for anything larger.
type MemoryObjectStore struct {
	mu      sync.RWMutex
	objects map[string]*Object
}

// NewMemoryObjectStore creates an empty in-memory object store.
func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{
		objects: make(map[string]*Object),
	}
}

// Ensure MemoryObjectStore implements ObjectStore interface
var _ ObjectStore = (*MemoryObjectStore)(nil)

// Put implements ObjectStore.Put.
func (s *MemoryObjectStore) Put(_ context.Context, key, contentType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy so the caller's buffer cannot mutate the stored object.
	stored := make([]byte, len(data))
	copy(stored, data)

	s.objects[key] = &Object{
		Key:         key,
		ContentType: contentType,
		Data:        stored,
	}
	return nil
}

// Get implements ObjectStore.Get.
func (s *MemoryObjectStore) Get(_ context.Context, key string) (*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return obj, nil
}
