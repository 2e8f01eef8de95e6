package dto

import (
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/checks"
)

// ItemRefRequest references one trackable item.
type ItemRefRequest struct {
	ItemKind entity.ItemKind `json:"itemKind" binding:"required"`
	ItemID   id.ID           `json:"itemId" binding:"required"`
}

// Ref converts to the domain reference.
func (r ItemRefRequest) Ref() entity.ItemRef {
	return entity.ItemRef{Kind: r.ItemKind, ItemID: r.ItemID}
}

// OpenCheckRequest opens an inventory check. With no items, the check
// snapshots every non-zero balance in the area.
type OpenCheckRequest struct {
	AreaID id.ID            `json:"areaId" binding:"required"`
	Items  []ItemRefRequest `json:"items"`
}

// ItemRefs converts the requested item list.
func (r OpenCheckRequest) ItemRefs() []entity.ItemRef {
	refs := make([]entity.ItemRef, 0, len(r.Items))
	for _, it := range r.Items {
		refs = append(refs, it.Ref())
	}
	return refs
}

// CountedLineRequest is one physically counted item.
type CountedLineRequest struct {
	ItemKind          entity.ItemKind `json:"itemKind" binding:"required"`
	ItemID            id.ID           `json:"itemId" binding:"required"`
	ActualQuantity    types.Quantity  `json:"actualQuantity"`
	DefectiveQuantity types.Quantity  `json:"defectiveQuantity"`
	Note              string          `json:"note"`
}

// CloseCheckRequest closes a check with the physical count results.
type CloseCheckRequest struct {
	Lines []CountedLineRequest `json:"lines" binding:"required"`
}

// CountedLines converts the request lines into domain counted lines.
func (r CloseCheckRequest) CountedLines() []checks.CountedLine {
	lines := make([]checks.CountedLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, checks.CountedLine{
			Item:              entity.ItemRef{Kind: l.ItemKind, ItemID: l.ItemID},
			ActualQuantity:    l.ActualQuantity,
			DefectiveQuantity: l.DefectiveQuantity,
			Note:              l.Note,
		})
	}
	return lines
}
