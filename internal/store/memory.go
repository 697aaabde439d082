package store

import (
	"context"
	"sync"

	"finance-insights/internal/models"
	"finance-insights/pkg/errors"
)

// MemoryStore implements Store with in-memory storage
type MemoryStore struct {
	mu      sync.RWMutex
	dataset *models.Dataset
}

// NewMemoryStore creates a store seeded with a copy of ds, which may be nil
func NewMemoryStore(ds *models.Dataset) *MemoryStore {
	return &MemoryStore{dataset: ds.Clone()}
}

// Load returns a copy of the current dataset
func (s *MemoryStore) Load(ctx context.Context) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.InternalError(errors.CodeCancelled, "memory_load", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset.Clone(), nil
}

// Save stores a copy of ds
func (s *MemoryStore) Save(ctx context.Context, ds *models.Dataset) error {
	if err := ctx.Err(); err != nil {
		return errors.InternalError(errors.CodeCancelled, "memory_save", err)
	}
	if ds == nil {
		return errors.StorageError(errors.CodeSaveFailed, "memory", nil).WithContext("reason", "nil dataset")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = ds.Clone()
	return nil
}
