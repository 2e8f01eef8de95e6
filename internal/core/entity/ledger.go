package entity

import (
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// ActionType classifies why a ledger entry exists.
type ActionType string

const (
	ActionImportNormal ActionType = "IMPORT_NORMAL"
	ActionImportReturn ActionType = "IMPORT_RETURN"
	ActionExportNormal ActionType = "EXPORT_NORMAL"
	ActionExportReturn ActionType = "EXPORT_RETURN"
	ActionExportCancel ActionType = "EXPORT_CANCEL"
	ActionCheck        ActionType = "CHECK"
)

// Valid reports whether the action type is known.
func (a ActionType) Valid() bool {
	switch a {
	case ActionImportNormal, ActionImportReturn,
		ActionExportNormal, ActionExportReturn, ActionExportCancel,
		ActionCheck:
		return true
	}
	return false
}

// IsExport reports whether the action normally decreases stock.
// CHECK is excluded: its sign comes from the counted deviation.
func (a ActionType) IsExport() bool {
	return a == ActionExportNormal || a == ActionExportReturn
}

// LedgerEntry is one immutable record of a quantity change at one location.
// Entries are never updated or deleted after creation; corrections are new
// entries with action type CHECK.
//
// The same structure serves products and materials: the embedded ItemRef
// carries the discriminator, replacing the per-kind history tables of older
// designs.
type LedgerEntry struct {
	// Seq is the commit-ordered cursor assigned by the store.
	// GetLedger is restartable from any Seq.
	Seq int64 `db:"seq" json:"seq"`

	// EntryID is the stable identifier (UUIDv7)
	EntryID id.ID `db:"entry_id" json:"entryId"`

	ItemRef

	// AreaID is the storage area the change applies to
	AreaID id.ID `db:"area_id" json:"areaId"`

	// QuantityBefore is the location balance read under lock before applying
	QuantityBefore types.Quantity `db:"quantity_before" json:"quantityBefore"`

	// QuantityChange is the signed delta
	QuantityChange types.Quantity `db:"quantity_change" json:"quantityChange"`

	// QuantityAfter = QuantityBefore + QuantityChange
	QuantityAfter types.Quantity `db:"quantity_after" json:"quantityAfter"`

	// RemainingQuantity is the location balance at commit time.
	// Location-level ledgers keep it equal to QuantityAfter; it is persisted
	// separately so readers never have to re-derive it.
	RemainingQuantity types.Quantity `db:"remaining_quantity" json:"remainingQuantity"`

	// ActionType classifies the movement
	ActionType ActionType `db:"action_type" json:"actionType"`

	// RefType and RefID link to the receipt or check that caused the entry
	RefType string `db:"ref_type" json:"refType"`
	RefID   id.ID  `db:"ref_id" json:"refId"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	CreatedBy string    `db:"created_by" json:"createdBy"`
}

// NewLedgerEntry builds an entry from a locked balance read and a delta.
// Invariants are checked here so a malformed entry can never be persisted.
func NewLedgerEntry(
	item ItemRef,
	areaID id.ID,
	before, change types.Quantity,
	action ActionType,
	refType string,
	refID id.ID,
	createdBy string,
) (LedgerEntry, error) {
	after := before + change

	if before.IsNegative() || after.IsNegative() {
		return LedgerEntry{}, apperror.NewInsufficientStock(
			item.String(), change.Abs().Float64(), before.Float64())
	}
	if !action.Valid() {
		return LedgerEntry{}, apperror.NewValidation("invalid action type").
			WithDetail("field", "actionType").
			WithDetail("value", string(action))
	}

	return LedgerEntry{
		EntryID:           id.New(),
		ItemRef:           item,
		AreaID:            areaID,
		QuantityBefore:    before,
		QuantityChange:    change,
		QuantityAfter:     after,
		RemainingQuantity: after,
		ActionType:        action,
		RefType:           refType,
		RefID:             refID,
		CreatedAt:         time.Now().UTC(),
		CreatedBy:         createdBy,
	}, nil
}

// Key returns the balance key the entry belongs to.
func (e *LedgerEntry) Key() BalanceKey {
	return BalanceKey{Item: e.ItemRef, AreaID: e.AreaID}
}

// LocationBalance is the current quantity of one item at one storage area.
// It is a cache maintained in lockstep with the ledger: mutated only by the
// ledger writer, never directly. Created on first movement and kept at zero
// rather than deleted.
type LocationBalance struct {
	ItemRef

	AreaID id.ID `db:"area_id" json:"areaId"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`

	LastMovementAt time.Time `db:"last_movement_at" json:"lastMovementAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Key returns the balance key.
func (b *LocationBalance) Key() BalanceKey {
	return BalanceKey{Item: b.ItemRef, AreaID: b.AreaID}
}
