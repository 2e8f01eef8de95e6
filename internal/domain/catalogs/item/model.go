// Package item provides the item catalog. An item is either a product or a
// material; the kind is fixed at creation and every ledger reference carries
// it alongside the ID.
package item

import (
	"context"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/types"
)

// Status is the item lifecycle state.
type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

// Item is a tracked product or material.
type Item struct {
	entity.Catalog

	Kind   entity.ItemKind `db:"kind" json:"kind"`
	Status Status          `db:"status" json:"status"`

	// Unit is the unit of measure (pcs, kg, m)
	Unit string `db:"unit" json:"unit"`

	// DefaultPrice is informational; movements carry their own prices
	DefaultPrice *types.Money `db:"default_price" json:"defaultPrice,omitempty"`

	Comment string `db:"comment" json:"comment,omitempty"`
}

// New creates an active item of the given kind.
func New(kind entity.ItemKind, code, name, unit string) *Item {
	return &Item{
		Catalog: entity.NewCatalog(code, name),
		Kind:    kind,
		Status:  StatusActive,
		Unit:    unit,
	}
}

// Validate implements entity.Validatable.
func (it *Item) Validate(ctx context.Context) error {
	if err := it.Catalog.Validate(ctx); err != nil {
		return err
	}
	if it.Code == "" {
		return apperror.NewValidation("code is required").
			WithDetail("field", "code")
	}
	if !it.Kind.Valid() {
		return apperror.NewValidation("invalid item kind").
			WithDetail("value", string(it.Kind))
	}
	if it.Unit == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}
	if it.Status != StatusActive && it.Status != StatusDeleted {
		return apperror.NewValidation("invalid status").
			WithDetail("value", string(it.Status))
	}
	return nil
}

// IsActive reports whether the item accepts movements.
func (it *Item) IsActive() bool {
	return it.Status == StatusActive && !it.DeletionMark
}

// Ref returns the kinded reference used by ledger and documents.
func (it *Item) Ref() entity.ItemRef {
	return entity.ItemRef{Kind: it.Kind, ItemID: it.ID}
}
