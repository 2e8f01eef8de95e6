package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain"
	"stockledger/internal/domain/catalogs/storagearea"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/storage/memory"
)

func seed(t *testing.T, svc *ledger.Service, item entity.ItemRef, areaID id.ID, qty int64) {
	t.Helper()
	_, err := svc.Record(context.Background(), ledger.Movement{
		Item:    item,
		AreaID:  areaID,
		Delta:   types.NewQuantityFromInt(qty),
		Action:  entity.ActionImportNormal,
		RefType: "Receipt",
		RefID:   id.New(),
	})
	require.NoError(t, err)
}

// Two concurrent exports compete for the last units; the key lock serializes
// them so exactly one succeeds.
func TestConcurrentExportRace(t *testing.T) {
	store := memory.NewStore()
	svc := ledger.NewService(store.LedgerRepo(), store)

	item := entity.NewProductRef(id.New())
	areaID := id.New()
	seed(t, svc, item, areaID, 10)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Record(context.Background(), ledger.Movement{
				Item:    item,
				AreaID:  areaID,
				Delta:   types.NewQuantityFromInt(-7),
				Action:  entity.ActionExportNormal,
				RefType: "Receipt",
				RefID:   id.New(),
			})
		}(i)
	}
	wg.Wait()

	var failed, succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, apperror.IsInsufficientStock(err))
			failed++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)

	balance, err := svc.GetBalance(context.Background(), item, areaID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(3), balance)
}

func TestLockTimeout(t *testing.T) {
	store := memory.NewStore(memory.WithLockTimeout(50 * time.Millisecond))
	repo := store.LedgerRepo()

	item := entity.NewProductRef(id.New())
	key := entity.BalanceKey{Item: item, AreaID: id.New()}

	holding := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- store.RunInTransaction(context.Background(), func(ctx context.Context) error {
			if _, err := repo.GetBalanceForUpdate(ctx, key); err != nil {
				return err
			}
			close(holding)
			<-release
			return nil
		})
	}()

	<-holding

	err := store.RunInTransaction(context.Background(), func(ctx context.Context) error {
		_, err := repo.GetBalanceForUpdate(ctx, key)
		return err
	})
	require.Error(t, err)
	assert.True(t, apperror.IsLockTimeout(err))

	close(release)
	require.NoError(t, <-done)

	// The key is free again after the holder commits.
	err = store.RunInTransaction(context.Background(), func(ctx context.Context) error {
		_, err := repo.GetBalanceForUpdate(ctx, key)
		return err
	})
	assert.NoError(t, err)
}

// A panic inside the transaction body must still free the key locks, or the
// key stays unusable after a recovery layer swallows the panic.
func TestPanicInTransactionReleasesLocks(t *testing.T) {
	store := memory.NewStore(memory.WithLockTimeout(50 * time.Millisecond))
	repo := store.LedgerRepo()

	item := entity.NewProductRef(id.New())
	key := entity.BalanceKey{Item: item, AreaID: id.New()}

	require.Panics(t, func() {
		_ = store.RunInTransaction(context.Background(), func(ctx context.Context) error {
			if _, err := repo.GetBalanceForUpdate(ctx, key); err != nil {
				return err
			}
			panic("handler blew up")
		})
	})

	err := store.RunInTransaction(context.Background(), func(ctx context.Context) error {
		balance, err := repo.GetBalanceForUpdate(ctx, key)
		if err != nil {
			return err
		}
		balance.Quantity = types.NewQuantityFromInt(5)
		return repo.SaveBalance(ctx, balance)
	})
	require.NoError(t, err)

	balance, err := repo.GetBalance(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(5), balance.Quantity)
}

// A failed transaction must publish nothing, not even writes that happened
// before the failing step.
func TestRollbackDiscardsBufferedWrites(t *testing.T) {
	store := memory.NewStore()
	repo := store.LedgerRepo()

	item := entity.NewProductRef(id.New())
	key := entity.BalanceKey{Item: item, AreaID: id.New()}

	err := store.RunInTransaction(context.Background(), func(ctx context.Context) error {
		balance, err := repo.GetBalanceForUpdate(ctx, key)
		if err != nil {
			return err
		}
		balance.Quantity = types.NewQuantityFromInt(42)
		if err := repo.SaveBalance(ctx, balance); err != nil {
			return err
		}
		return apperror.NewValidation("boom")
	})
	require.Error(t, err)

	balance, err := repo.GetBalance(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, balance.Quantity.IsZero())
}

func TestWritesRequireTransaction(t *testing.T) {
	store := memory.NewStore()
	repo := store.LedgerRepo()

	item := entity.NewProductRef(id.New())
	key := entity.BalanceKey{Item: item, AreaID: id.New()}

	_, err := repo.GetBalanceForUpdate(context.Background(), key)
	assert.True(t, apperror.IsCode(err, apperror.CodeInternal))

	err = repo.SaveBalance(context.Background(), entity.LocationBalance{ItemRef: item, AreaID: key.AreaID})
	assert.True(t, apperror.IsCode(err, apperror.CodeInternal))
}

func TestCatalogOptimisticLocking(t *testing.T) {
	store := memory.NewStore()
	repo := store.AreaRepo()
	ctx := context.Background()

	area := storagearea.New("WH-MAIN", "Main warehouse")
	require.NoError(t, repo.Create(ctx, area))

	// Normal update: Touch then save.
	area.Name = "Main warehouse (renamed)"
	area.Touch()
	require.NoError(t, repo.Update(ctx, area))

	// A stale copy loses the race.
	stale, err := repo.GetByID(ctx, area.ID)
	require.NoError(t, err)
	stale.Version = area.Version - 1
	stale.Touch()
	err = repo.Update(ctx, stale)
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestCatalogListSearchAndPagination(t *testing.T) {
	store := memory.NewStore()
	repo := store.AreaRepo()
	ctx := context.Background()

	for _, code := range []string{"WH-A", "WH-B", "WH-C", "SHOP-1"} {
		require.NoError(t, repo.Create(ctx, storagearea.New(code, "Area "+code)))
	}

	result, err := repo.List(ctx, storagearea.ListFilter{
		ListFilter: domain.ListFilter{Search: "wh-"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.TotalCount)

	page, err := repo.List(ctx, storagearea.ListFilter{
		ListFilter: domain.ListFilter{Limit: 2, Offset: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.TotalCount)
	require.Len(t, page.Items, 2)
	// Ordered by code: SHOP-1, WH-A, WH-B, WH-C.
	assert.Equal(t, "WH-B", page.Items[0].Code)
}

func TestDocumentNumbersPerPrefixAndYear(t *testing.T) {
	store := memory.NewStore()
	repo := store.ReceiptRepo()
	ctx := context.Background()

	n1, err := repo.NextSequence(ctx, "IMP", 2026)
	require.NoError(t, err)
	n2, err := repo.NextSequence(ctx, "IMP", 2026)
	require.NoError(t, err)
	other, err := repo.NextSequence(ctx, "EXP", 2026)
	require.NoError(t, err)
	nextYear, err := repo.NextSequence(ctx, "IMP", 2027)
	require.NoError(t, err)

	assert.Equal(t, int64(1), n1)
	assert.Equal(t, int64(2), n2)
	assert.Equal(t, int64(1), other)
	assert.Equal(t, int64(1), nextYear)
}
