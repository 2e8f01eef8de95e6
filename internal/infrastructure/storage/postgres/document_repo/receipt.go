package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/receipts"
	"stockledger/internal/infrastructure/storage/postgres"
)

const (
	receiptsTable     = "doc_receipts"
	receiptLinesTable = "doc_receipt_lines"
)

// ReceiptRepo implements receipts.Repository.
type ReceiptRepo struct {
	*BaseDocumentRepo[*receipts.Receipt]

	inserter *postgres.BatchInserter
}

// NewReceiptRepo creates a new receipt repository.
func NewReceiptRepo(txManager *postgres.TxManager) *ReceiptRepo {
	cols := postgres.ExtractDBColumns[receipts.Receipt]()
	return &ReceiptRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			receiptsTable,
			cols,
			func() *receipts.Receipt { return &receipts.Receipt{} },
		),
		inserter: postgres.NewBatchInserter(txManager),
	}
}

var _ receipts.Repository = (*ReceiptRepo)(nil)

// GetLines retrieves lines ordered by line number.
func (r *ReceiptRepo) GetLines(ctx context.Context, docID id.ID) ([]receipts.Line, error) {
	q := r.Builder().
		Select(
			"line_id", "line_no", "item_kind", "item_id",
			"area_id", "quantity", "expires_at", "unit_price",
		).
		From(receiptLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []receipts.Line
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// SaveLines replaces the line set (delete existing + insert new).
func (r *ReceiptRepo) SaveLines(ctx context.Context, docID id.ID, lines []receipts.Line) error {
	querier := r.querier(ctx)

	deleteSQL := "DELETE FROM " + receiptLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	// Fast path: COPY when inside a transaction.
	if r.txManager.GetTx(ctx) != nil {
		columns := []string{
			"line_id", "document_id", "line_no", "item_kind", "item_id",
			"area_id", "quantity", "expires_at", "unit_price",
		}
		rows := make([][]any, 0, len(lines))
		for _, line := range lines {
			rows = append(rows, []any{
				line.LineID, docID, line.LineNo, line.Kind, line.ItemID,
				line.AreaID, line.Quantity, line.ExpiresAt, line.UnitPrice,
			})
		}
		if _, err := r.inserter.CopyFromSlice(ctx, receiptLinesTable, columns, rows); err != nil {
			return fmt.Errorf("copy lines: %w", err)
		}
		return nil
	}

	q := r.Builder().
		Insert(receiptLinesTable).
		Columns(
			"line_id", "document_id", "line_no", "item_kind", "item_id",
			"area_id", "quantity", "expires_at", "unit_price",
		)

	for _, line := range lines {
		q = q.Values(
			line.LineID, docID, line.LineNo, line.Kind, line.ItemID,
			line.AreaID, line.Quantity, line.ExpiresAt, line.UnitPrice,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}
	return nil
}

// List retrieves receipts with filtering.
func (r *ReceiptRepo) List(ctx context.Context, filter receipts.ListFilter) (domain.ListResult[*receipts.Receipt], error) {
	q := r.baseSelect()

	if filter.Direction != nil {
		q = q.Where(squirrel.Eq{"direction": *filter.Direction})
	}
	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.AreaID != nil {
		q = q.Where(squirrel.Expr(
			"id IN (SELECT document_id FROM "+receiptLinesTable+" WHERE area_id = ?)",
			*filter.AreaID,
		))
	}

	return r.listQuery(ctx, q, filter.ListFilter, "receipt_date DESC")
}
