package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/checks"
	"stockledger/internal/infrastructure/storage/postgres"
)

const (
	checksTable       = "doc_inventory_checks"
	checkDetailsTable = "doc_inventory_check_details"
)

// CheckRepo implements checks.Repository.
type CheckRepo struct {
	*BaseDocumentRepo[*checks.InventoryCheck]
}

// NewCheckRepo creates a new inventory check repository.
func NewCheckRepo(txManager *postgres.TxManager) *CheckRepo {
	cols := postgres.ExtractDBColumns[checks.InventoryCheck]()
	return &CheckRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			checksTable,
			cols,
			func() *checks.InventoryCheck { return &checks.InventoryCheck{} },
		),
	}
}

var _ checks.Repository = (*CheckRepo)(nil)

// GetDetails retrieves details ordered by line number.
func (r *CheckRepo) GetDetails(ctx context.Context, docID id.ID) ([]checks.Detail, error) {
	q := r.Builder().
		Select(
			"detail_id", "line_no", "item_kind", "item_id",
			"exact_quantity", "actual_quantity", "defective_quantity", "note",
		).
		From(checkDetailsTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var details []checks.Detail
	if err := pgxscan.Select(ctx, r.querier(ctx), &details, sql, args...); err != nil {
		return nil, fmt.Errorf("get details: %w", err)
	}
	return details, nil
}

// SaveDetails replaces the detail set (delete existing + insert new).
func (r *CheckRepo) SaveDetails(ctx context.Context, docID id.ID, details []checks.Detail) error {
	querier := r.querier(ctx)

	deleteSQL := "DELETE FROM " + checkDetailsTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing details: %w", err)
	}

	if len(details) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(checkDetailsTable).
		Columns(
			"detail_id", "document_id", "line_no", "item_kind", "item_id",
			"exact_quantity", "actual_quantity", "defective_quantity", "note",
		)

	for _, d := range details {
		q = q.Values(
			d.DetailID, docID, d.LineNo, d.Kind, d.ItemID,
			d.ExactQuantity, d.ActualQuantity, d.DefectiveQuantity, d.Note,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert details: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert details: %w", err)
	}
	return nil
}

// List retrieves checks with filtering.
func (r *CheckRepo) List(ctx context.Context, filter checks.ListFilter) (domain.ListResult[*checks.InventoryCheck], error) {
	q := r.baseSelect()

	if filter.AreaID != nil {
		q = q.Where(squirrel.Eq{"area_id": *filter.AreaID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	return r.listQuery(ctx, q, filter.ListFilter, "check_date DESC")
}
