// Package checks provides inventory checks: physical-count reconciliation
// events that compare ledger-expected quantities against counted quantities
// and emit correction movements for the deviations.
package checks

import (
	"context"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Status is the check lifecycle state.
type Status string

const (
	StatusOpen      Status = "open"
	StatusClosed    Status = "closed"
	StatusCancelled Status = "cancelled"
)

// InventoryCheck is a physical count for one storage area.
type InventoryCheck struct {
	entity.BaseDocument

	// Number is the human-readable document number (e.g. CHK-2026-00007)
	Number string `db:"number" json:"number"`

	AreaID    id.ID     `db:"area_id" json:"areaId"`
	CheckDate time.Time `db:"check_date" json:"checkDate"`
	Status    Status    `db:"status" json:"status"`

	// ClosedAt is set when the check closes
	ClosedAt *time.Time `db:"closed_at" json:"closedAt,omitempty"`

	Details []Detail `db:"-" json:"details"`
}

// Detail is one counted item. ExactQuantity is the live balance captured at
// open time; closing verifies it against the then-live balance and fails
// with StaleInventoryCheck on divergence.
type Detail struct {
	DetailID id.ID `db:"detail_id" json:"detailId"`
	LineNo   int   `db:"line_no" json:"lineNo"`

	entity.ItemRef

	// ExactQuantity is the ledger-expected baseline captured at open time
	ExactQuantity types.Quantity `db:"exact_quantity" json:"exactQuantity"`

	// ActualQuantity is the physically counted quantity, nil until counted
	ActualQuantity *types.Quantity `db:"actual_quantity" json:"actualQuantity,omitempty"`

	// DefectiveQuantity is reporting-only: defective units still exist
	// physically until a separate export removes them
	DefectiveQuantity types.Quantity `db:"defective_quantity" json:"defectiveQuantity"`

	// Note describes the discrepancy in free text
	Note string `db:"note" json:"note,omitempty"`
}

// NewInventoryCheck creates an open check for a storage area.
func NewInventoryCheck(areaID id.ID, createdBy string) *InventoryCheck {
	return &InventoryCheck{
		BaseDocument: entity.NewBaseDocument(createdBy),
		AreaID:       areaID,
		CheckDate:    time.Now().UTC(),
		Status:       StatusOpen,
		Details:      make([]Detail, 0),
	}
}

// AddDetail appends a detail, assigning its ID and number.
func (c *InventoryCheck) AddDetail(item entity.ItemRef, exact types.Quantity) {
	c.Details = append(c.Details, Detail{
		DetailID:      id.New(),
		LineNo:        len(c.Details) + 1,
		ItemRef:       item,
		ExactQuantity: exact,
	})
}

// Validate implements entity.Validatable.
func (c *InventoryCheck) Validate(ctx context.Context) error {
	if id.IsNil(c.AreaID) {
		return apperror.NewValidation("storage area is required").
			WithDetail("field", "areaId")
	}
	if c.CheckDate.IsZero() {
		return apperror.NewValidation("check date is required").
			WithDetail("field", "checkDate")
	}
	if len(c.Details) == 0 {
		return apperror.NewValidation("at least one detail is required").
			WithDetail("field", "details")
	}

	seen := make(map[entity.ItemRef]bool, len(c.Details))
	for i, d := range c.Details {
		if err := d.ItemRef.Validate(); err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return appErr.WithDetail("lineNo", i+1)
			}
			return err
		}
		if d.ExactQuantity.IsNegative() {
			return apperror.NewValidation("exact quantity cannot be negative").
				WithDetail("lineNo", i+1)
		}
		if seen[d.ItemRef] {
			return apperror.NewValidation("duplicate item in check").
				WithDetail("lineNo", i+1).
				WithDetail("item", d.ItemRef.String())
		}
		seen[d.ItemRef] = true
	}

	return nil
}

// CanClose verifies the check is still open.
func (c *InventoryCheck) CanClose() error {
	if c.Status != StatusOpen {
		return apperror.NewInvalidStateTransition("inventory check", string(c.Status), string(StatusClosed)).
			WithDetail("check_id", c.ID.String())
	}
	return nil
}

// Deviation returns actual − exact for a counted detail; zero when uncounted.
func (d Detail) Deviation() types.Quantity {
	if d.ActualQuantity == nil {
		return 0
	}
	return *d.ActualQuantity - d.ExactQuantity
}
