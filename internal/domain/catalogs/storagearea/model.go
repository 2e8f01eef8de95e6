// Package storagearea provides the storage area catalog. Areas are the
// physical locations stock is tracked against; every balance and ledger
// entry references one.
package storagearea

import (
	"context"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
)

// Status is the area lifecycle state.
type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

// StorageArea is a physical stock location.
type StorageArea struct {
	entity.Catalog

	Status Status `db:"status" json:"status"`

	// Address is free-form location text
	Address string `db:"address" json:"address,omitempty"`

	// ResponsiblePerson is the name of the area keeper
	ResponsiblePerson string `db:"responsible_person" json:"responsiblePerson,omitempty"`

	Comment string `db:"comment" json:"comment,omitempty"`
}

// New creates an active storage area.
func New(code, name string) *StorageArea {
	return &StorageArea{
		Catalog: entity.NewCatalog(code, name),
		Status:  StatusActive,
	}
}

// Validate implements entity.Validatable.
func (a *StorageArea) Validate(ctx context.Context) error {
	if err := a.Catalog.Validate(ctx); err != nil {
		return err
	}
	if a.Code == "" {
		return apperror.NewValidation("code is required").
			WithDetail("field", "code")
	}
	if a.Status != StatusActive && a.Status != StatusDeleted {
		return apperror.NewValidation("invalid status").
			WithDetail("value", string(a.Status))
	}
	return nil
}

// IsActive reports whether the area accepts movements.
func (a *StorageArea) IsActive() bool {
	return a.Status == StatusActive && !a.DeletionMark
}
