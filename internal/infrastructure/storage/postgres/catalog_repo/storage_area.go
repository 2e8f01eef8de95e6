package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"stockledger/internal/domain"
	"stockledger/internal/domain/catalogs/storagearea"
	"stockledger/internal/infrastructure/storage/postgres"
)

const storageAreasTable = "cat_storage_areas"

// StorageAreaRepo implements storagearea.Repository.
type StorageAreaRepo struct {
	*BaseCatalogRepo[*storagearea.StorageArea]
}

// NewStorageAreaRepo creates a new storage area repository.
func NewStorageAreaRepo(txManager *postgres.TxManager) *StorageAreaRepo {
	cols := postgres.ExtractDBColumns[storagearea.StorageArea]()
	return &StorageAreaRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			storageAreasTable,
			"storage area",
			cols,
			func() *storagearea.StorageArea { return &storagearea.StorageArea{} },
		),
	}
}

var _ storagearea.Repository = (*StorageAreaRepo)(nil)

// List retrieves storage areas with filtering.
func (r *StorageAreaRepo) List(ctx context.Context, filter storagearea.ListFilter) (domain.ListResult[*storagearea.StorageArea], error) {
	q := r.baseSelect()

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	return r.listQuery(ctx, q, filter.ListFilter)
}
