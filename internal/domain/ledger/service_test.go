package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/storage/memory"
)

func newTestLedger() (*memory.Store, *ledger.Service) {
	store := memory.NewStore()
	return store, ledger.NewService(store.LedgerRepo(), store)
}

func movement(item entity.ItemRef, areaID id.ID, delta types.Quantity, action entity.ActionType) ledger.Movement {
	return ledger.Movement{
		Item:    item,
		AreaID:  areaID,
		Delta:   delta,
		Action:  action,
		RefType: "Receipt",
		RefID:   id.New(),
	}
}

func TestRecordChainsEntries(t *testing.T) {
	_, svc := newTestLedger()
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaID := id.New()

	first, err := svc.Record(ctx, movement(item, areaID, types.NewQuantityFromInt(10), entity.ActionImportNormal))
	require.NoError(t, err)
	second, err := svc.Record(ctx, movement(item, areaID, types.NewQuantityFromInt(-4), entity.ActionExportNormal))
	require.NoError(t, err)

	// Entries chain without gaps: after of one is before of the next.
	assert.Equal(t, types.Quantity(0), first.QuantityBefore)
	assert.Equal(t, first.QuantityAfter, second.QuantityBefore)
	assert.Equal(t, types.NewQuantityFromInt(6), second.QuantityAfter)
	assert.Greater(t, second.Seq, first.Seq)

	balance, err := svc.GetBalance(ctx, item, areaID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(6), balance)
}

func TestRecordInsufficientStock(t *testing.T) {
	_, svc := newTestLedger()
	ctx := context.Background()

	item := entity.NewMaterialRef(id.New())
	areaID := id.New()

	_, err := svc.Record(ctx, movement(item, areaID, types.NewQuantityFromInt(10), entity.ActionImportNormal))
	require.NoError(t, err)

	_, err = svc.Record(ctx, movement(item, areaID, types.NewQuantityFromInt(-15), entity.ActionExportNormal))
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// The failed movement left no trace.
	balance, err := svc.GetBalance(ctx, item, areaID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(10), balance)

	entries, err := svc.GetLedger(ctx, ledger.EntryFilter{Item: &item})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecordValidation(t *testing.T) {
	_, svc := newTestLedger()
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaID := id.New()

	cases := []ledger.Movement{
		{Item: item, AreaID: areaID, Delta: 0, Action: entity.ActionImportNormal, RefType: "Receipt", RefID: id.New()},
		{Item: item, AreaID: id.Nil(), Delta: 1, Action: entity.ActionImportNormal, RefType: "Receipt", RefID: id.New()},
		{Item: item, AreaID: areaID, Delta: 1, Action: "UNKNOWN", RefType: "Receipt", RefID: id.New()},
		{Item: item, AreaID: areaID, Delta: 1, Action: entity.ActionImportNormal},
		{Item: entity.ItemRef{}, AreaID: areaID, Delta: 1, Action: entity.ActionImportNormal, RefType: "Receipt", RefID: id.New()},
	}
	for i, m := range cases {
		_, err := svc.Record(ctx, m)
		assert.Error(t, err, "case %d", i)
	}
}

func TestTotalAvailableAcrossAreas(t *testing.T) {
	_, svc := newTestLedger()
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaA := id.New()
	areaB := id.New()

	_, err := svc.Record(ctx, movement(item, areaA, types.NewQuantityFromInt(7), entity.ActionImportNormal))
	require.NoError(t, err)
	_, err = svc.Record(ctx, movement(item, areaB, types.NewQuantityFromInt(5), entity.ActionImportNormal))
	require.NoError(t, err)
	_, err = svc.Record(ctx, movement(item, areaB, types.NewQuantityFromInt(-2), entity.ActionExportNormal))
	require.NoError(t, err)

	total, err := svc.TotalAvailable(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(10), total)

	stock, err := svc.GetAreaStock(ctx, areaB)
	require.NoError(t, err)
	require.Len(t, stock, 1)
	assert.Equal(t, types.NewQuantityFromInt(3), stock[0].Quantity)
}

func TestRecordCorrection(t *testing.T) {
	_, svc := newTestLedger()
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaID := id.New()
	checkID := id.New()

	_, err := svc.Record(ctx, movement(item, areaID, types.NewQuantityFromInt(10), entity.ActionImportNormal))
	require.NoError(t, err)

	entry, err := svc.RecordCorrection(ctx, item, areaID,
		types.NewQuantityFromInt(10), types.NewQuantityFromInt(8), checkID)
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, entity.ActionCheck, entry.ActionType)
	assert.Equal(t, types.NewQuantityFromInt(-2), entry.QuantityChange)
	assert.Equal(t, "InventoryCheck", entry.RefType)
	assert.Equal(t, checkID, entry.RefID)

	balance, err := svc.GetBalance(ctx, item, areaID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(8), balance)
}

func TestRecordCorrection_ZeroDeviationIsNoOp(t *testing.T) {
	_, svc := newTestLedger()
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaID := id.New()

	_, err := svc.Record(ctx, movement(item, areaID, types.NewQuantityFromInt(5), entity.ActionImportNormal))
	require.NoError(t, err)

	entry, err := svc.RecordCorrection(ctx, item, areaID,
		types.NewQuantityFromInt(5), types.NewQuantityFromInt(5), id.New())
	require.NoError(t, err)
	assert.Nil(t, entry)

	entries, err := svc.GetLedger(ctx, ledger.EntryFilter{Item: &item})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecordCorrection_StaleBaseline(t *testing.T) {
	_, svc := newTestLedger()
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaID := id.New()

	_, err := svc.Record(ctx, movement(item, areaID, types.NewQuantityFromInt(10), entity.ActionImportNormal))
	require.NoError(t, err)

	// Baseline captured earlier no longer matches the live balance.
	_, err = svc.RecordCorrection(ctx, item, areaID,
		types.NewQuantityFromInt(5), types.NewQuantityFromInt(4), id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeStaleInventoryCheck))

	balance, err := svc.GetBalance(ctx, item, areaID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(10), balance)
}

func TestGetLedgerCursor(t *testing.T) {
	_, svc := newTestLedger()
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaID := id.New()

	for i := 0; i < 5; i++ {
		_, err := svc.Record(ctx, movement(item, areaID, types.NewQuantityFromInt(1), entity.ActionImportNormal))
		require.NoError(t, err)
	}

	page, err := svc.GetLedger(ctx, ledger.EntryFilter{Item: &item, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)

	rest, err := svc.GetLedger(ctx, ledger.EntryFilter{Item: &item, SinceSeq: page[1].Seq})
	require.NoError(t, err)
	require.Len(t, rest, 3)
	assert.Greater(t, rest[0].Seq, page[1].Seq)
}

func TestReconcile(t *testing.T) {
	_, svc := newTestLedger()
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaA := id.New()
	areaB := id.New()

	_, err := svc.Record(ctx, movement(item, areaA, types.NewQuantityFromInt(10), entity.ActionImportNormal))
	require.NoError(t, err)
	_, err = svc.Record(ctx, movement(item, areaB, types.NewQuantityFromInt(4), entity.ActionImportNormal))
	require.NoError(t, err)
	_, err = svc.Record(ctx, movement(item, areaA, types.NewQuantityFromInt(-3), entity.ActionExportNormal))
	require.NoError(t, err)

	report, err := svc.Reconcile(ctx, item)
	require.NoError(t, err)
	assert.True(t, report.InSync)
	assert.Equal(t, types.NewQuantityFromInt(11), report.BalanceTotal)
	assert.Equal(t, types.NewQuantityFromInt(11), report.LedgerTotal)
	assert.True(t, report.Drift.IsZero())
	assert.Equal(t, 2, report.AreaBalances)
}

func TestGetTurnover(t *testing.T) {
	_, svc := newTestLedger()
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaID := id.New()
	from := time.Now().UTC().Add(-time.Minute)

	_, err := svc.Record(ctx, movement(item, areaID, types.NewQuantityFromInt(20), entity.ActionImportNormal))
	require.NoError(t, err)
	_, err = svc.Record(ctx, movement(item, areaID, types.NewQuantityFromInt(-8), entity.ActionExportNormal))
	require.NoError(t, err)
	_, err = svc.Record(ctx, movement(item, areaID, types.NewQuantityFromInt(2), entity.ActionExportCancel))
	require.NoError(t, err)
	_, err = svc.RecordCorrection(ctx, item, areaID,
		types.NewQuantityFromInt(14), types.NewQuantityFromInt(13), id.New())
	require.NoError(t, err)

	turnover, err := svc.GetTurnover(ctx, ledger.TurnoverFilter{
		Item:     &item,
		AreaID:   &areaID,
		FromDate: from,
		ToDate:   time.Now().UTC().Add(time.Minute),
	})
	require.NoError(t, err)

	assert.Equal(t, types.NewQuantityFromInt(20), turnover.Imports)
	// Export cancel compensates the export magnitude.
	assert.Equal(t, types.NewQuantityFromInt(6), turnover.Exports)
	assert.Equal(t, types.NewQuantityFromInt(-1), turnover.Corrections)
	assert.Equal(t, types.NewQuantityFromInt(13), turnover.ClosingBalance)
	assert.True(t, turnover.OpeningBalance.IsZero())
}
