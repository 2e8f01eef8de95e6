package entity

import (
	"fmt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

// ItemKind discriminates trackable items.
type ItemKind string

const (
	// ItemKindProduct is a finished good
	ItemKindProduct ItemKind = "product"
	// ItemKindMaterial is a raw material
	ItemKindMaterial ItemKind = "material"
)

// Valid reports whether the kind is a known discriminator.
func (k ItemKind) Valid() bool {
	return k == ItemKindProduct || k == ItemKindMaterial
}

// ItemRef is a tagged reference to exactly one trackable item.
// It replaces the product-id/material-id nullable pair: a ref is either a
// product or a material, never both and never neither.
type ItemRef struct {
	Kind   ItemKind `db:"item_kind" json:"itemKind"`
	ItemID id.ID    `db:"item_id" json:"itemId"`
}

// NewProductRef creates a reference to a product.
func NewProductRef(productID id.ID) ItemRef {
	return ItemRef{Kind: ItemKindProduct, ItemID: productID}
}

// NewMaterialRef creates a reference to a material.
func NewMaterialRef(materialID id.ID) ItemRef {
	return ItemRef{Kind: ItemKindMaterial, ItemID: materialID}
}

// ParseItemRef builds an ItemRef from the legacy nullable-pair shape.
// Fails with ItemBindingConflict when both or neither ID is set.
func ParseItemRef(productID, materialID *id.ID) (ItemRef, error) {
	hasProduct := productID != nil && !id.IsNil(*productID)
	hasMaterial := materialID != nil && !id.IsNil(*materialID)

	switch {
	case hasProduct && hasMaterial:
		return ItemRef{}, apperror.NewItemBindingConflict(
			"line binds both a product and a material")
	case hasProduct:
		return NewProductRef(*productID), nil
	case hasMaterial:
		return NewMaterialRef(*materialID), nil
	default:
		return ItemRef{}, apperror.NewItemBindingConflict(
			"line binds neither a product nor a material")
	}
}

// IsZero reports whether the reference is unset.
func (r ItemRef) IsZero() bool {
	return r.Kind == "" && id.IsNil(r.ItemID)
}

// Validate checks that the reference is well-formed.
func (r ItemRef) Validate() error {
	if !r.Kind.Valid() {
		return apperror.NewValidation("invalid item kind").
			WithDetail("field", "itemKind").
			WithDetail("value", string(r.Kind))
	}
	if id.IsNil(r.ItemID) {
		return apperror.NewValidation("item is required").
			WithDetail("field", "itemId")
	}
	return nil
}

// String returns "kind:uuid", used in lock keys and error details.
func (r ItemRef) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ItemID)
}

// BalanceKey identifies one location balance. It is the unit of mutual
// exclusion for all quantity changes.
type BalanceKey struct {
	Item   ItemRef
	AreaID id.ID
}

// String returns a stable textual form, used for per-key locks.
func (k BalanceKey) String() string {
	return fmt.Sprintf("%s@%s", k.Item, k.AreaID)
}
