package storagearea

import (
	"context"

	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

// Repository defines storage operations for storage areas.
type Repository interface {
	// Create inserts a new area
	Create(ctx context.Context, area *StorageArea) error

	// GetByID retrieves an area by ID
	GetByID(ctx context.Context, areaID id.ID) (*StorageArea, error)

	// GetByCode retrieves an area by its unique code
	GetByCode(ctx context.Context, code string) (*StorageArea, error)

	// Update modifies an area with optimistic locking on Version
	Update(ctx context.Context, area *StorageArea) error

	// List retrieves areas with filtering
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*StorageArea], error)
}

// ListFilter narrows area listings.
type ListFilter struct {
	domain.ListFilter

	Status *Status
}
