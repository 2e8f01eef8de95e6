package checks_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/checks"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/storage/memory"
)

type areaDir struct {
	exists bool
}

func (d areaDir) ActiveExists(ctx context.Context, areaID id.ID) (bool, error) {
	return d.exists, nil
}

type fixture struct {
	store  *memory.Store
	ledger *ledger.Service
	checks *checks.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	ledgerSvc := ledger.NewService(store.LedgerRepo(), store)

	svc := checks.NewService(checks.Config{
		Repo:      store.CheckRepo(),
		Ledger:    ledgerSvc,
		TxManager: store,
		Areas:     areaDir{exists: true},
	})

	return &fixture{store: store, ledger: ledgerSvc, checks: svc}
}

func (f *fixture) seedStock(t *testing.T, item entity.ItemRef, areaID id.ID, qty int64) {
	t.Helper()
	_, err := f.ledger.Record(context.Background(), ledger.Movement{
		Item:    item,
		AreaID:  areaID,
		Delta:   types.NewQuantityFromInt(qty),
		Action:  entity.ActionImportNormal,
		RefType: "Receipt",
		RefID:   id.New(),
	})
	require.NoError(t, err)
}

func counted(item entity.ItemRef, actual int64) checks.CountedLine {
	return checks.CountedLine{
		Item:           item,
		ActualQuantity: types.NewQuantityFromInt(actual),
	}
}

func TestOpenSnapshotsArea(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	itemA := entity.NewProductRef(id.New())
	itemB := entity.NewMaterialRef(id.New())
	areaID := id.New()
	f.seedStock(t, itemA, areaID, 10)
	f.seedStock(t, itemB, areaID, 4)

	doc, err := f.checks.Open(ctx, areaID, nil)
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("CHK-%d-00001", time.Now().Year()), doc.Number)
	assert.Equal(t, checks.StatusOpen, doc.Status)
	require.Len(t, doc.Details, 2)

	baselines := map[entity.ItemRef]types.Quantity{}
	for _, d := range doc.Details {
		baselines[d.ItemRef] = d.ExactQuantity
		assert.Nil(t, d.ActualQuantity)
	}
	assert.Equal(t, types.NewQuantityFromInt(10), baselines[itemA])
	assert.Equal(t, types.NewQuantityFromInt(4), baselines[itemB])
}

func TestOpenWithExplicitItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaID := id.New()

	// Never moved: baseline reads as zero.
	doc, err := f.checks.Open(ctx, areaID, []entity.ItemRef{item})
	require.NoError(t, err)
	require.Len(t, doc.Details, 1)
	assert.True(t, doc.Details[0].ExactQuantity.IsZero())
}

func TestOpenUnknownArea(t *testing.T) {
	store := memory.NewStore()
	ledgerSvc := ledger.NewService(store.LedgerRepo(), store)
	svc := checks.NewService(checks.Config{
		Repo:      store.CheckRepo(),
		Ledger:    ledgerSvc,
		TxManager: store,
		Areas:     areaDir{exists: false},
	})

	_, err := svc.Open(context.Background(), id.New(), nil)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCloseAppliesCorrections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	itemA := entity.NewProductRef(id.New())
	itemB := entity.NewMaterialRef(id.New())
	areaID := id.New()
	f.seedStock(t, itemA, areaID, 10)
	f.seedStock(t, itemB, areaID, 4)

	doc, err := f.checks.Open(ctx, areaID, nil)
	require.NoError(t, err)

	closed, err := f.checks.Close(ctx, doc.ID, []checks.CountedLine{
		counted(itemA, 8), // two units missing
		counted(itemB, 4), // matches
	})
	require.NoError(t, err)

	assert.Equal(t, checks.StatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)

	balance, err := f.ledger.GetBalance(ctx, itemA, areaID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(8), balance)

	// Exactly one correction entry: the matching line is a no-op.
	check := entity.ActionCheck
	entries, err := f.ledger.GetLedger(ctx, ledger.EntryFilter{RefID: &doc.ID, ActionType: &check})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, types.NewQuantityFromInt(-2), entries[0].QuantityChange)

	for _, d := range closed.Details {
		require.NotNil(t, d.ActualQuantity)
	}
}

func TestCloseWithoutDeviationsWritesNoEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaID := id.New()
	f.seedStock(t, item, areaID, 5)

	doc, err := f.checks.Open(ctx, areaID, nil)
	require.NoError(t, err)

	closed, err := f.checks.Close(ctx, doc.ID, []checks.CountedLine{counted(item, 5)})
	require.NoError(t, err)
	assert.Equal(t, checks.StatusClosed, closed.Status)

	entries, err := f.ledger.GetLedger(ctx, ledger.EntryFilter{RefID: &doc.ID})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCloseStaleBaseline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaID := id.New()
	f.seedStock(t, item, areaID, 10)

	doc, err := f.checks.Open(ctx, areaID, nil)
	require.NoError(t, err)

	// Stock moves between open and close.
	f.seedStock(t, item, areaID, 3)

	_, err = f.checks.Close(ctx, doc.ID, []checks.CountedLine{counted(item, 10)})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeStaleInventoryCheck))

	// Nothing applied; the check stays open for a reopen-and-recount.
	reloaded, err := f.checks.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, checks.StatusOpen, reloaded.Status)

	balance, err := f.ledger.GetBalance(ctx, item, areaID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(13), balance)
}

func TestCloseRequiresEveryDetailCounted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	itemA := entity.NewProductRef(id.New())
	itemB := entity.NewProductRef(id.New())
	areaID := id.New()
	f.seedStock(t, itemA, areaID, 1)
	f.seedStock(t, itemB, areaID, 1)

	doc, err := f.checks.Open(ctx, areaID, nil)
	require.NoError(t, err)

	_, err = f.checks.Close(ctx, doc.ID, []checks.CountedLine{counted(itemA, 1)})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCloseRejectsUnknownCountedLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaID := id.New()
	f.seedStock(t, item, areaID, 5)

	doc, err := f.checks.Open(ctx, areaID, nil)
	require.NoError(t, err)

	// A count for an item the check never snapshotted must not vanish
	// silently.
	stranger := entity.NewProductRef(id.New())
	_, err = f.checks.Close(ctx, doc.ID, []checks.CountedLine{
		counted(item, 5),
		counted(stranger, 3),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	reloaded, err := f.checks.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, checks.StatusOpen, reloaded.Status)
}

func TestCloseRejectsExcessDefective(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaID := id.New()
	f.seedStock(t, item, areaID, 5)

	doc, err := f.checks.Open(ctx, areaID, nil)
	require.NoError(t, err)

	_, err = f.checks.Close(ctx, doc.ID, []checks.CountedLine{{
		Item:              item,
		ActualQuantity:    types.NewQuantityFromInt(5),
		DefectiveQuantity: types.NewQuantityFromInt(7),
	}})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaID := id.New()
	f.seedStock(t, item, areaID, 5)

	doc, err := f.checks.Open(ctx, areaID, nil)
	require.NoError(t, err)

	cancelled, err := f.checks.Cancel(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, checks.StatusCancelled, cancelled.Status)

	// A cancelled check cannot be closed.
	_, err = f.checks.Close(ctx, doc.ID, []checks.CountedLine{counted(item, 5)})
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStateTransition))

	// And cannot be cancelled twice.
	_, err = f.checks.Cancel(ctx, doc.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStateTransition))
}
