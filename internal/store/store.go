// Package store persists financial datasets.
package store

//go:generate mockgen -source=store.go -destination=mock_store.go -package=store

import (
	"context"

	"finance-insights/internal/models"
)

// Store loads and saves a user's dataset as one snapshot
type Store interface {
	// Load returns a copy of the stored dataset. A store that has never
	// been saved returns an empty dataset.
	Load(ctx context.Context) (*models.Dataset, error)

	// Save replaces the stored dataset
	Save(ctx context.Context, ds *models.Dataset) error
}
