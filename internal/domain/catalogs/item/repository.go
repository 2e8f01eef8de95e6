package item

import (
	"context"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

// Repository defines storage operations for items.
type Repository interface {
	// Create inserts a new item
	Create(ctx context.Context, it *Item) error

	// GetByID retrieves an item by ID
	GetByID(ctx context.Context, itemID id.ID) (*Item, error)

	// GetByCode retrieves an item by its unique code
	GetByCode(ctx context.Context, code string) (*Item, error)

	// Update modifies an item with optimistic locking on Version
	Update(ctx context.Context, it *Item) error

	// List retrieves items with filtering
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Item], error)
}

// ListFilter narrows item listings.
type ListFilter struct {
	domain.ListFilter

	Kind   *entity.ItemKind
	Status *Status
}
