package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

func TestNewLedgerEntry(t *testing.T) {
	item := NewProductRef(id.New())
	areaID := id.New()
	refID := id.New()

	entry, err := NewLedgerEntry(
		item, areaID,
		types.NewQuantityFromInt(10), types.NewQuantityFromInt(-4),
		ActionExportNormal, "Receipt", refID, "tester",
	)
	require.NoError(t, err)

	assert.Equal(t, types.NewQuantityFromInt(10), entry.QuantityBefore)
	assert.Equal(t, types.NewQuantityFromInt(6), entry.QuantityAfter)
	assert.Equal(t, entry.QuantityAfter, entry.RemainingQuantity)
	assert.Equal(t, types.NewQuantityFromInt(-4), entry.QuantityChange)
	assert.False(t, id.IsNil(entry.EntryID))
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestNewLedgerEntry_RejectsNegativeResult(t *testing.T) {
	item := NewMaterialRef(id.New())

	_, err := NewLedgerEntry(
		item, id.New(),
		types.NewQuantityFromInt(3), types.NewQuantityFromInt(-5),
		ActionExportNormal, "Receipt", id.New(), "tester",
	)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestNewLedgerEntry_RejectsUnknownAction(t *testing.T) {
	_, err := NewLedgerEntry(
		NewProductRef(id.New()), id.New(),
		0, types.NewQuantityFromInt(1),
		ActionType("TRANSMUTE"), "Receipt", id.New(), "tester",
	)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestParseItemRef(t *testing.T) {
	productID := id.New()
	materialID := id.New()

	ref, err := ParseItemRef(&productID, nil)
	require.NoError(t, err)
	assert.Equal(t, ItemKindProduct, ref.Kind)
	assert.Equal(t, productID, ref.ItemID)

	ref, err = ParseItemRef(nil, &materialID)
	require.NoError(t, err)
	assert.Equal(t, ItemKindMaterial, ref.Kind)

	_, err = ParseItemRef(&productID, &materialID)
	assert.True(t, apperror.IsCode(err, apperror.CodeItemBindingConflict))

	_, err = ParseItemRef(nil, nil)
	assert.True(t, apperror.IsCode(err, apperror.CodeItemBindingConflict))
}

func TestBalanceKeyString(t *testing.T) {
	itemID := id.MustParse("018f0000-0000-7000-8000-000000000001")
	areaID := id.MustParse("018f0000-0000-7000-8000-000000000002")
	key := BalanceKey{Item: NewProductRef(itemID), AreaID: areaID}

	assert.Equal(t,
		"product:018f0000-0000-7000-8000-000000000001@018f0000-0000-7000-8000-000000000002",
		key.String())
}
