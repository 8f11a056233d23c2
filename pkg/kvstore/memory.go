package kvstore

import (
	"context"
	"sync"

	"github.com/launchgate-inc/launchgate-engine/pkg/apperrors"
)

// memoryStore is a mutex-guarded map store for tests and local development.
type memoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte // collection → key → blob
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() Store {
	return &memoryStore{
		data: make(map[string]map[string][]byte),
	}
}

func (s *memoryStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[collection][key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return cloneBytes(value), nil
}

func (s *memoryStore) Set(ctx context.Context, collection, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data[collection] == nil {
		s.data[collection] = make(map[string][]byte)
	}
	s.data[collection][key] = cloneBytes(value)
	return nil
}

func (s *memoryStore) SetNX(ctx context.Context, collection, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[collection][key]; exists {
		return apperrors.ErrConflict
	}
	if s.data[collection] == nil {
		s.data[collection] = make(map[string][]byte)
	}
	s.data[collection][key] = cloneBytes(value)
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, collection, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[collection][key]; !ok {
		return apperrors.ErrNotFound
	}
	delete(s.data[collection], key)
	return nil
}

func (s *memoryStore) List(ctx context.Context, collection string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]byte, len(s.data[collection]))
	for k, v := range s.data[collection] {
		out[k] = cloneBytes(v)
	}
	return out, nil
}

// cloneBytes copies a blob so callers can never alias the stored value.
func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

var _ Store = (*memoryStore)(nil)
