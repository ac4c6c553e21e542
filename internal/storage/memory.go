package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process ObjectStore used in tests and local
// development without an S3 endpoint.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	order   []string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Put stores body under key, rejecting overwrites.
func (s *MemoryStore) Put(_ context.Context, key string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[key]; exists {
		return fmt.Errorf("put %s: %w", key, ErrKeyExists)
	}
	cp := make([]byte, len(body))
	copy(cp, body)
	s.objects[key] = cp
	s.order = append(s.order, key)
	return nil
}

// List returns up to maxKeys objects in lexical key order, matching the
// listing order of an S3 bucket.
func (s *MemoryStore) List(_ context.Context, maxKeys int) ([]ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, len(s.order))
	copy(keys, s.order)
	sort.Strings(keys)
	if len(keys) > maxKeys {
		keys = keys[:maxKeys]
	}
	objects := make([]ObjectInfo, len(keys))
	for i, k := range keys {
		objects[i] = ObjectInfo{Key: k}
	}
	return objects, nil
}

// Get returns the body stored under key.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, ErrNotFound)
	}
	cp := make([]byte, len(body))
	copy(cp, body)
	return cp, nil
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
