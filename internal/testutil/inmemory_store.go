package testutil

import (
	"context"
	"sort"
	"sync"

	ierr "github.com/projectledger/projectledger/internal/errors"
)

// InMemoryStore is a generic keyed store backing the in-memory repositories. Callers are
// responsible for copying values in and out so stored items are never aliased.
type InMemoryStore[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

func NewInMemoryStore[T any]() *InMemoryStore[T] {
	return &InMemoryStore[T]{
		items: make(map[string]T),
	}
}

// Create stores item under id, failing when the id is taken
func (s *InMemoryStore[T]) Create(_ context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; exists {
		return ierr.NewErrorf("item %s already exists", id).
			WithHint("An item with this ID already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	s.items[id] = item
	return nil
}

// Get retrieves the item stored under id
func (s *InMemoryStore[T]) Get(_ context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	if !exists {
		var zero T
		return zero, ierr.NewErrorf("item %s not found", id).
			WithHint("The requested item was not found").
			Mark(ierr.ErrNotFound)
	}
	return item, nil
}

// Update replaces the item stored under id
func (s *InMemoryStore[T]) Update(_ context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return ierr.NewErrorf("item %s not found", id).
			WithHint("The item to update was not found").
			Mark(ierr.ErrNotFound)
	}
	s.items[id] = item
	return nil
}

// Delete removes the item stored under id
func (s *InMemoryStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return ierr.NewErrorf("item %s not found", id).
			WithHint("The item to delete was not found").
			Mark(ierr.ErrNotFound)
	}
	delete(s.items, id)
	return nil
}

// List returns the items matching filterFn, ordered by lessFn when it is set
func (s *InMemoryStore[T]) List(_ context.Context, filterFn func(T) bool, lessFn func(a, b T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]T, 0, len(s.items))
	for _, item := range s.items {
		if filterFn == nil || filterFn(item) {
			result = append(result, item)
		}
	}
	if lessFn != nil {
		sort.SliceStable(result, func(i, j int) bool {
			return lessFn(result[i], result[j])
		})
	}
	return result
}

// Count returns the number of stored items
func (s *InMemoryStore[T]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Clear removes all items
func (s *InMemoryStore[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]T)
}

// Snapshot captures the current contents and returns a function restoring them. Stored items
// are replaced on write, never mutated in place, so a shallow map copy is enough.
func (s *InMemoryStore[T]) Snapshot() func() {
	s.mu.RLock()
	saved := make(map[string]T, len(s.items))
	for k, v := range s.items {
		saved[k] = v
	}
	s.mu.RUnlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.items = saved
	}
}
