package checks

import (
	"context"

	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

// Repository defines storage operations for inventory checks.
type Repository interface {
	// Create inserts the header
	Create(ctx context.Context, doc *InventoryCheck) error

	// GetByID retrieves the header (without details)
	GetByID(ctx context.Context, docID id.ID) (*InventoryCheck, error)

	// Update modifies the header with optimistic locking on Version
	Update(ctx context.Context, doc *InventoryCheck) error

	// SaveDetails replaces the detail set
	SaveDetails(ctx context.Context, docID id.ID, details []Detail) error

	// GetDetails retrieves details ordered by line number
	GetDetails(ctx context.Context, docID id.ID) ([]Detail, error)

	// List retrieves checks with filtering
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*InventoryCheck], error)

	// NextSequence returns the next document number for a prefix+year pair
	NextSequence(ctx context.Context, prefix string, year int) (int64, error)
}

// ListFilter narrows check listings.
type ListFilter struct {
	domain.ListFilter

	AreaID *id.ID
	Status *Status
}

// AreaDirectory is the storage-area existence check consumed from the
// catalog collaborator.
type AreaDirectory interface {
	ActiveExists(ctx context.Context, areaID id.ID) (bool, error)
}
