package storagearea_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/catalogs/storagearea"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/storage/memory"
)

func newService() (*storagearea.Service, *ledger.Service) {
	store := memory.NewStore()
	ledgerSvc := ledger.NewService(store.LedgerRepo(), store)
	return storagearea.NewService(store.AreaRepo(), ledgerSvc), ledgerSvc
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, storagearea.New("WH-MAIN", "Main")))

	err := svc.Create(ctx, storagearea.New("WH-MAIN", "Another main"))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicate))
}

func TestSoftDeleteRefusedWhileStocked(t *testing.T) {
	svc, ledgerSvc := newService()
	ctx := context.Background()

	area := storagearea.New("WH-1", "Warehouse one")
	require.NoError(t, svc.Create(ctx, area))

	_, err := ledgerSvc.Record(ctx, ledger.Movement{
		Item:    entity.NewProductRef(id.New()),
		AreaID:  area.ID,
		Delta:   types.NewQuantityFromInt(5),
		Action:  entity.ActionImportNormal,
		RefType: "Receipt",
		RefID:   id.New(),
	})
	require.NoError(t, err)

	err = svc.SoftDelete(ctx, area.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeBusinessRule))

	ok, err := svc.ActiveExists(ctx, area.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSoftDeleteAndRestore(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	area := storagearea.New("WH-2", "Warehouse two")
	require.NoError(t, svc.Create(ctx, area))

	require.NoError(t, svc.SoftDelete(ctx, area.ID))

	ok, err := svc.ActiveExists(ctx, area.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.Restore(ctx, area.ID))

	ok, err = svc.ActiveExists(ctx, area.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestActiveExistsUnknownArea(t *testing.T) {
	svc, _ := newService()

	ok, err := svc.ActiveExists(context.Background(), id.New())
	require.NoError(t, err)
	assert.False(t, ok)
}
