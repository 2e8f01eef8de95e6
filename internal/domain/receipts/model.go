// Package receipts provides import/export receipt documents and their
// approval workflow. A receipt groups one or more line movements under a
// single all-or-nothing business transaction.
package receipts

import (
	"context"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Direction tells whether a receipt brings stock in or takes it out.
type Direction string

const (
	DirectionImport Direction = "import"
	DirectionExport Direction = "export"
)

// Valid reports whether the direction is known.
func (d Direction) Valid() bool {
	return d == DirectionImport || d == DirectionExport
}

// Kind distinguishes regular movements from returns.
type Kind string

const (
	KindNormal Kind = "NORMAL"
	KindReturn Kind = "RETURN"
)

// Valid reports whether the kind is known.
func (k Kind) Valid() bool {
	return k == KindNormal || k == KindReturn
}

// Status is the receipt lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
	// StatusCancelled reverses an approved export via compensating
	// EXPORT_CANCEL entries. Import receipts cannot be cancelled once
	// approved; they run to completion.
	StatusCancelled Status = "cancelled"
)

// transitions is the full state machine. Anything absent is disallowed.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusCompleted, StatusCancelled},
}

// CanTransitionTo reports whether the move is allowed by the state machine.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition exists.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Receipt is the header of an import or export document. Movements happen
// only on the PENDING→APPROVED transition (or cancellation compensation),
// never at creation time.
type Receipt struct {
	entity.BaseDocument

	// Number is the human-readable document number (e.g. IMP-2026-00042)
	Number string `db:"number" json:"number"`

	Direction Direction `db:"direction" json:"direction"`
	Kind      Kind      `db:"kind" json:"kind"`
	Status    Status    `db:"status" json:"status"`

	// ReceiptDate is the business date
	ReceiptDate time.Time `db:"receipt_date" json:"receiptDate"`

	// ApprovedBy is set on the approving transition
	ApprovedBy string `db:"approved_by" json:"approvedBy,omitempty"`

	// ReceiverName is the counterparty handing over / accepting the goods
	ReceiverName string `db:"receiver_name" json:"receiverName,omitempty"`

	Comment string `db:"comment" json:"comment,omitempty"`

	// Lines are immutable once the header leaves pending
	Lines []Line `db:"-" json:"lines"`
}

// Line is one item movement within a receipt.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	entity.ItemRef

	AreaID   id.ID          `db:"area_id" json:"areaId"`
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// ExpiresAt is an optional expiry date for perishables
	ExpiresAt *time.Time `db:"expires_at" json:"expiresAt,omitempty"`

	// UnitPrice is optional valuation data; it never affects stock math
	UnitPrice *types.Money `db:"unit_price" json:"unitPrice,omitempty"`
}

// NewReceipt creates a pending receipt.
func NewReceipt(direction Direction, kind Kind, createdBy string) *Receipt {
	return &Receipt{
		BaseDocument: entity.NewBaseDocument(createdBy),
		Direction:    direction,
		Kind:         kind,
		Status:       StatusPending,
		ReceiptDate:  time.Now().UTC(),
		Lines:        make([]Line, 0),
	}
}

// AddLine appends a line, assigning its ID and number.
func (r *Receipt) AddLine(line Line) {
	line.LineID = id.New()
	line.LineNo = len(r.Lines) + 1
	r.Lines = append(r.Lines, line)
}

// Validate implements entity.Validatable.
func (r *Receipt) Validate(ctx context.Context) error {
	if !r.Direction.Valid() {
		return apperror.NewValidation("invalid direction").
			WithDetail("field", "direction").
			WithDetail("value", string(r.Direction))
	}
	if !r.Kind.Valid() {
		return apperror.NewValidation("invalid receipt kind").
			WithDetail("field", "kind").
			WithDetail("value", string(r.Kind))
	}
	if r.ReceiptDate.IsZero() {
		return apperror.NewValidation("receipt date is required").
			WithDetail("field", "receiptDate")
	}
	if len(r.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range r.Lines {
		if err := line.Validate(); err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return appErr.WithDetail("lineNo", i+1)
			}
			return err
		}
	}

	return nil
}

// Validate checks one line's invariants.
func (l Line) Validate() error {
	if err := l.ItemRef.Validate(); err != nil {
		return err
	}
	if id.IsNil(l.AreaID) {
		return apperror.NewValidation("storage area is required").
			WithDetail("field", "areaId")
	}
	if !l.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}
	return nil
}

// ActionType derives the ledger action from direction and kind.
func (r *Receipt) ActionType() entity.ActionType {
	switch {
	case r.Direction == DirectionImport && r.Kind == KindReturn:
		return entity.ActionImportReturn
	case r.Direction == DirectionImport:
		return entity.ActionImportNormal
	case r.Kind == KindReturn:
		return entity.ActionExportReturn
	default:
		return entity.ActionExportNormal
	}
}

// LineDelta returns the signed delta for one line: imports add stock,
// exports remove it.
func (r *Receipt) LineDelta(line Line) types.Quantity {
	if r.Direction == DirectionExport {
		return line.Quantity.Neg()
	}
	return line.Quantity
}

// CanTransition checks the state machine, failing with
// InvalidStateTransition otherwise.
func (r *Receipt) CanTransition(target Status) error {
	if !r.Status.CanTransitionTo(target) {
		return apperror.NewInvalidStateTransition("receipt", string(r.Status), string(target)).
			WithDetail("receipt_id", r.ID.String())
	}
	return nil
}

// CanModify allows header/line edits only while pending.
func (r *Receipt) CanModify() error {
	if r.Status != StatusPending {
		return apperror.NewBusinessRule(
			apperror.CodeInvalidStateTransition,
			"Receipt lines are immutable once the receipt leaves pending",
		).WithDetail("receipt_id", r.ID.String()).
			WithDetail("status", string(r.Status))
	}
	return nil
}

// TotalQuantity sums line quantities (unsigned).
func (r *Receipt) TotalQuantity() types.Quantity {
	var total types.Quantity
	for _, line := range r.Lines {
		total += line.Quantity
	}
	return total
}
