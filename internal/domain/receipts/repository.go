package receipts

import (
	"context"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

// Repository defines storage operations for receipts.
type Repository interface {
	// Create inserts the header
	Create(ctx context.Context, doc *Receipt) error

	// GetByID retrieves the header (without lines)
	GetByID(ctx context.Context, docID id.ID) (*Receipt, error)

	// Update modifies the header with optimistic locking on Version
	Update(ctx context.Context, doc *Receipt) error

	// SaveLines replaces the line set. Callers must hold CanModify.
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	// GetLines retrieves lines ordered by line number
	GetLines(ctx context.Context, docID id.ID) ([]Line, error)

	// Delete sets the deletion mark
	Delete(ctx context.Context, docID id.ID) error

	// List retrieves receipts with filtering
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Receipt], error)

	// NextSequence returns the next document number for a prefix+year pair
	NextSequence(ctx context.Context, prefix string, year int) (int64, error)
}

// ListFilter narrows receipt listings.
type ListFilter struct {
	domain.ListFilter

	Direction *Direction
	Kind      *Kind
	Status    *Status
	AreaID    *id.ID
}

// AreaDirectory is the storage-area existence check consumed from the
// catalog collaborator.
type AreaDirectory interface {
	// ActiveExists reports whether the area exists and is not deleted.
	ActiveExists(ctx context.Context, areaID id.ID) (bool, error)
}

// ItemDirectory is the item existence/kind check consumed from the catalog
// collaborator.
type ItemDirectory interface {
	// ActiveExists reports whether the referenced item exists with the
	// referenced kind and is not deleted.
	ActiveExists(ctx context.Context, item entity.ItemRef) (bool, error)
}
