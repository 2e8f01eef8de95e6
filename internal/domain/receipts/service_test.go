package receipts_test

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
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/receipts"
	"stockledger/internal/infrastructure/storage/memory"
)

type allowAllAreas struct{}

func (allowAllAreas) ActiveExists(ctx context.Context, areaID id.ID) (bool, error) {
	return true, nil
}

type allowAllItems struct{}

func (allowAllItems) ActiveExists(ctx context.Context, ref entity.ItemRef) (bool, error) {
	return true, nil
}

type fixture struct {
	store    *memory.Store
	ledger   *ledger.Service
	receipts *receipts.Service
}

func newFixture(t *testing.T, policyExpr string) *fixture {
	t.Helper()

	store := memory.NewStore()
	ledgerSvc := ledger.NewService(store.LedgerRepo(), store)

	var policy *receipts.ApprovalPolicy
	if policyExpr != "" {
		var err error
		policy, err = receipts.NewApprovalPolicy(policyExpr)
		require.NoError(t, err)
	}

	svc := receipts.NewService(receipts.Config{
		Repo:      store.ReceiptRepo(),
		Ledger:    ledgerSvc,
		TxManager: store,
		Areas:     allowAllAreas{},
		Items:     allowAllItems{},
		Policy:    policy,
	})

	return &fixture{store: store, ledger: ledgerSvc, receipts: svc}
}

// seedStock puts quantity into an area directly through the ledger.
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

func newReceipt(direction receipts.Direction, lines ...receipts.Line) *receipts.Receipt {
	doc := receipts.NewReceipt(direction, receipts.KindNormal, "tester")
	for _, l := range lines {
		doc.AddLine(l)
	}
	return doc
}

func line(item entity.ItemRef, areaID id.ID, qty int64) receipts.Line {
	return receipts.Line{
		ItemRef:  item,
		AreaID:   areaID,
		Quantity: types.NewQuantityFromInt(qty),
	}
}

func TestCreateReceipt(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaID := id.New()

	doc := newReceipt(receipts.DirectionImport, line(item, areaID, 10))
	require.NoError(t, f.receipts.Create(ctx, doc))

	assert.Equal(t, fmt.Sprintf("IMP-%d-00001", time.Now().Year()), doc.Number)
	assert.Equal(t, receipts.StatusPending, doc.Status)

	// Creation never moves stock.
	balance, err := f.ledger.GetBalance(ctx, item, areaID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	loaded, err := f.receipts.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 1)
	assert.Equal(t, 1, loaded.Lines[0].LineNo)
}

func TestCreateReceipt_Validation(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	noLines := receipts.NewReceipt(receipts.DirectionImport, receipts.KindNormal, "tester")
	err := f.receipts.Create(ctx, noLines)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	badQty := newReceipt(receipts.DirectionImport,
		line(entity.NewProductRef(id.New()), id.New(), 0))
	err = f.receipts.Create(ctx, badQty)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestApproveImportMovesStock(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaID := id.New()

	doc := newReceipt(receipts.DirectionImport, line(item, areaID, 10))
	require.NoError(t, f.receipts.Create(ctx, doc))

	approved, err := f.receipts.ApplyTransition(ctx, doc.ID, receipts.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, receipts.StatusApproved, approved.Status)
	assert.NotEmpty(t, approved.ApprovedBy)

	balance, err := f.ledger.GetBalance(ctx, item, areaID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(10), balance)

	entries, err := f.ledger.GetLedger(ctx, ledger.EntryFilter{RefID: &doc.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.ActionImportNormal, entries[0].ActionType)
	assert.Equal(t, "Receipt", entries[0].RefType)
}

func TestApproveExport_AllOrNothing(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	itemA := entity.NewProductRef(id.New())
	itemB := entity.NewProductRef(id.New())
	areaID := id.New()
	f.seedStock(t, itemA, areaID, 10)
	// itemB has no stock at all.

	doc := newReceipt(receipts.DirectionExport,
		line(itemA, areaID, 5),
		line(itemB, areaID, 3),
	)
	require.NoError(t, f.receipts.Create(ctx, doc))

	_, err := f.receipts.ApplyTransition(ctx, doc.ID, receipts.StatusApproved)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 2, appErr.Details["lineNo"])

	// The first line's movement rolled back with the failed one.
	balance, err := f.ledger.GetBalance(ctx, itemA, areaID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(10), balance)

	reloaded, err := f.receipts.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, receipts.StatusPending, reloaded.Status)
}

func TestTransitionMatrix(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaID := id.New()

	doc := newReceipt(receipts.DirectionImport, line(item, areaID, 1))
	require.NoError(t, f.receipts.Create(ctx, doc))

	// pending cannot jump straight to completed.
	_, err := f.receipts.ApplyTransition(ctx, doc.ID, receipts.StatusCompleted)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStateTransition))

	_, err = f.receipts.ApplyTransition(ctx, doc.ID, receipts.StatusRejected)
	require.NoError(t, err)

	// rejected is terminal.
	_, err = f.receipts.ApplyTransition(ctx, doc.ID, receipts.StatusApproved)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStateTransition))
}

func TestCancelExportRestoresStock(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaID := id.New()
	f.seedStock(t, item, areaID, 10)

	doc := newReceipt(receipts.DirectionExport, line(item, areaID, 4))
	require.NoError(t, f.receipts.Create(ctx, doc))

	_, err := f.receipts.ApplyTransition(ctx, doc.ID, receipts.StatusApproved)
	require.NoError(t, err)

	balance, err := f.ledger.GetBalance(ctx, item, areaID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(6), balance)

	cancelled, err := f.receipts.ApplyTransition(ctx, doc.ID, receipts.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, receipts.StatusCancelled, cancelled.Status)

	balance, err = f.ledger.GetBalance(ctx, item, areaID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(10), balance)

	cancel := entity.ActionExportCancel
	entries, err := f.ledger.GetLedger(ctx, ledger.EntryFilter{RefID: &doc.ID, ActionType: &cancel})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCancelApprovedImportRefused(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	doc := newReceipt(receipts.DirectionImport, line(item, id.New(), 3))
	require.NoError(t, f.receipts.Create(ctx, doc))

	_, err := f.receipts.ApplyTransition(ctx, doc.ID, receipts.StatusApproved)
	require.NoError(t, err)

	_, err = f.receipts.ApplyTransition(ctx, doc.ID, receipts.StatusCancelled)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStateTransition))
}

func TestApprovalPolicyRejects(t *testing.T) {
	f := newFixture(t, `direction == "import"`)
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaID := id.New()
	f.seedStock(t, item, areaID, 10)

	doc := newReceipt(receipts.DirectionExport, line(item, areaID, 2))
	require.NoError(t, f.receipts.Create(ctx, doc))

	_, err := f.receipts.ApplyTransition(ctx, doc.ID, receipts.StatusApproved)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeForbidden))

	// No movement happened, status unchanged.
	balance, err := f.ledger.GetBalance(ctx, item, areaID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(10), balance)

	reloaded, err := f.receipts.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, receipts.StatusPending, reloaded.Status)
}

func TestDeleteRules(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	doc := newReceipt(receipts.DirectionImport, line(item, id.New(), 1))
	require.NoError(t, f.receipts.Create(ctx, doc))

	_, err := f.receipts.ApplyTransition(ctx, doc.ID, receipts.StatusApproved)
	require.NoError(t, err)

	// Approved receipts keep their ledger trail.
	err = f.receipts.Delete(ctx, doc.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStateTransition))

	pending := newReceipt(receipts.DirectionImport, line(item, id.New(), 1))
	require.NoError(t, f.receipts.Create(ctx, pending))
	require.NoError(t, f.receipts.Delete(ctx, pending.ID))

	reloaded, err := f.receipts.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.DeletionMark)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	item := entity.NewProductRef(id.New())
	areaID := id.New()

	imp := newReceipt(receipts.DirectionImport, line(item, areaID, 1))
	require.NoError(t, f.receipts.Create(ctx, imp))
	exp := newReceipt(receipts.DirectionExport, line(item, id.New(), 1))
	require.NoError(t, f.receipts.Create(ctx, exp))

	dir := receipts.DirectionImport
	result, err := f.receipts.List(ctx, receipts.ListFilter{Direction: &dir})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, imp.ID, result.Items[0].ID)

	result, err = f.receipts.List(ctx, receipts.ListFilter{AreaID: &areaID})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, imp.ID, result.Items[0].ID)
}
