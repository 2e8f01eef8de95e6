// Package dto defines request payloads for the v1 API and their conversion
// to domain types. Responses serialize domain types directly.
package dto

import (
	"time"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/receipts"
)

// ReceiptLineRequest is one movement line in a receipt creation request.
type ReceiptLineRequest struct {
	ItemKind  entity.ItemKind `json:"itemKind" binding:"required"`
	ItemID    id.ID           `json:"itemId" binding:"required"`
	AreaID    id.ID           `json:"areaId" binding:"required"`
	Quantity  types.Quantity  `json:"quantity" binding:"required"`
	ExpiresAt *time.Time      `json:"expiresAt"`
	UnitPrice *types.Money    `json:"unitPrice"`
}

// CreateReceiptRequest creates a pending receipt.
type CreateReceiptRequest struct {
	Direction    receipts.Direction   `json:"direction" binding:"required"`
	Kind         receipts.Kind        `json:"kind"`
	ReceiptDate  *time.Time           `json:"receiptDate"`
	ReceiverName string               `json:"receiverName"`
	Comment      string               `json:"comment"`
	Lines        []ReceiptLineRequest `json:"lines" binding:"required"`
}

// ToReceipt converts the request into a domain receipt. Kind defaults to
// NORMAL, the receipt date to now.
func (r CreateReceiptRequest) ToReceipt(createdBy string) *receipts.Receipt {
	kind := r.Kind
	if kind == "" {
		kind = receipts.KindNormal
	}

	doc := receipts.NewReceipt(r.Direction, kind, createdBy)
	if r.ReceiptDate != nil {
		doc.ReceiptDate = r.ReceiptDate.UTC()
	}
	doc.ReceiverName = r.ReceiverName
	doc.Comment = r.Comment

	for _, l := range r.Lines {
		doc.AddLine(receipts.Line{
			ItemRef:   entity.ItemRef{Kind: l.ItemKind, ItemID: l.ItemID},
			AreaID:    l.AreaID,
			Quantity:  l.Quantity,
			ExpiresAt: l.ExpiresAt,
			UnitPrice: l.UnitPrice,
		})
	}

	return doc
}
