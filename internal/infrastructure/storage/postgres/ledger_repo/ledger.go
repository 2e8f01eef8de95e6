// Package ledger_repo provides the PostgreSQL implementation of the stock
// ledger repository.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/storage/postgres"
)

const (
	entriesTable  = "ledger_entries"
	balancesTable = "location_balances"
)

// LedgerRepo implements ledger.Repository.
//
// The entry Seq is a BIGSERIAL assigned by the insert; because AppendEntry
// always runs while the balance row is locked FOR UPDATE, entries of one
// balance key are strictly seq-ordered.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ ledger.Repository = (*LedgerRepo)(nil)

const balanceColumns = "item_kind, item_id, area_id, quantity, last_movement_at, updated_at"

// GetBalance returns the current balance, zero-valued if absent.
func (r *LedgerRepo) GetBalance(ctx context.Context, key entity.BalanceKey) (entity.LocationBalance, error) {
	var balance entity.LocationBalance

	q := r.builder.Select(
		"item_kind", "item_id", "area_id",
		"quantity", "last_movement_at", "updated_at",
	).From(balancesTable).
		Where(squirrel.Eq{
			"item_kind": key.Item.Kind,
			"item_id":   key.Item.ItemID,
			"area_id":   key.AreaID,
		}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return balance, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity.LocationBalance{ItemRef: key.Item, AreaID: key.AreaID}, nil
		}
		return balance, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

// GetBalanceForUpdate locks the balance row for the rest of the transaction.
// A missing row is created first so there is always something to lock;
// otherwise two first movements of a new key could interleave.
func (r *LedgerRepo) GetBalanceForUpdate(ctx context.Context, key entity.BalanceKey) (entity.LocationBalance, error) {
	var balance entity.LocationBalance

	querier := r.txManager.GetQuerier(ctx)

	insertSQL := `
		INSERT INTO location_balances (item_kind, item_id, area_id, quantity, last_movement_at, updated_at)
		VALUES ($1, $2, $3, 0, NOW(), NOW())
		ON CONFLICT (item_kind, item_id, area_id) DO NOTHING
	`
	if _, err := querier.Exec(ctx, insertSQL, key.Item.Kind, key.Item.ItemID, key.AreaID); err != nil {
		return balance, fmt.Errorf("ensure balance row: %w", err)
	}

	selectSQL := `
		SELECT ` + balanceColumns + `
		FROM location_balances
		WHERE item_kind = $1 AND item_id = $2 AND area_id = $3
		FOR UPDATE
	`
	if err := pgxscan.Get(ctx, querier, &balance, selectSQL, key.Item.Kind, key.Item.ItemID, key.AreaID); err != nil {
		return balance, postgres.MapLockError(
			fmt.Errorf("get balance for update: %w", err), key.String())
	}

	return balance, nil
}

// SaveBalance upserts the balance row.
func (r *LedgerRepo) SaveBalance(ctx context.Context, balance entity.LocationBalance) error {
	sql := `
		INSERT INTO location_balances (item_kind, item_id, area_id, quantity, last_movement_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (item_kind, item_id, area_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			last_movement_at = EXCLUDED.last_movement_at,
			updated_at = EXCLUDED.updated_at
	`

	querier := r.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		balance.Kind, balance.ItemID, balance.AreaID,
		balance.Quantity, balance.LastMovementAt, balance.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save balance: %w", err)
	}
	return nil
}

// GetBalancesByItem returns balances for an item across all storage areas.
func (r *LedgerRepo) GetBalancesByItem(ctx context.Context, item entity.ItemRef) ([]entity.LocationBalance, error) {
	q := r.builder.Select(
		"item_kind", "item_id", "area_id",
		"quantity", "last_movement_at", "updated_at",
	).From(balancesTable).
		Where(squirrel.Eq{
			"item_kind": item.Kind,
			"item_id":   item.ItemID,
		}).OrderBy("area_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []entity.LocationBalance
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}
	return balances, nil
}

// GetBalancesByArea returns balances in one storage area.
func (r *LedgerRepo) GetBalancesByArea(ctx context.Context, areaID id.ID, filter ledger.BalanceFilter) ([]entity.LocationBalance, error) {
	q := r.builder.Select(
		"item_kind", "item_id", "area_id",
		"quantity", "last_movement_at", "updated_at",
	).From(balancesTable).
		Where(squirrel.Eq{"area_id": areaID})

	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"quantity": int64(0)})
	}
	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"item_kind": *filter.Kind})
	}

	q = q.OrderBy("item_kind", "item_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []entity.LocationBalance
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}
	return balances, nil
}

// AppendEntry inserts the immutable entry and assigns its commit Seq.
func (r *LedgerRepo) AppendEntry(ctx context.Context, entry *entity.LedgerEntry) error {
	sql := `
		INSERT INTO ledger_entries (
			entry_id, item_kind, item_id, area_id,
			quantity_before, quantity_change, quantity_after, remaining_quantity,
			action_type, ref_type, ref_id, created_at, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING seq
	`

	querier := r.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql,
		entry.EntryID, entry.Kind, entry.ItemID, entry.AreaID,
		entry.QuantityBefore, entry.QuantityChange, entry.QuantityAfter, entry.RemainingQuantity,
		entry.ActionType, entry.RefType, entry.RefID, entry.CreatedAt, entry.CreatedBy,
	).Scan(&entry.Seq)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

// ListEntries returns entries ordered by Seq, restartable from any cursor.
func (r *LedgerRepo) ListEntries(ctx context.Context, filter ledger.EntryFilter) ([]entity.LedgerEntry, error) {
	q := r.builder.Select(
		"seq", "entry_id", "item_kind", "item_id", "area_id",
		"quantity_before", "quantity_change", "quantity_after", "remaining_quantity",
		"action_type", "ref_type", "ref_id", "created_at", "created_by",
	).From(entriesTable)

	if filter.SinceSeq > 0 {
		q = q.Where(squirrel.Gt{"seq": filter.SinceSeq})
	}
	if filter.Item != nil {
		q = q.Where(squirrel.Eq{
			"item_kind": filter.Item.Kind,
			"item_id":   filter.Item.ItemID,
		})
	}
	if filter.AreaID != nil {
		q = q.Where(squirrel.Eq{"area_id": *filter.AreaID})
	}
	if filter.ActionType != nil {
		q = q.Where(squirrel.Eq{"action_type": *filter.ActionType})
	}
	if filter.RefID != nil {
		q = q.Where(squirrel.Eq{"ref_id": *filter.RefID})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}

	q = q.OrderBy("seq")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []entity.LedgerEntry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	return entries, nil
}

// SumChanges returns the sum of all signed deltas for an item.
func (r *LedgerRepo) SumChanges(ctx context.Context, item entity.ItemRef) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(SUM(quantity_change), 0)
		FROM ledger_entries
		WHERE item_kind = $1 AND item_id = $2
	`

	var totalScaled int64
	querier := r.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, item.Kind, item.ItemID).Scan(&totalScaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("sum changes: %w", err)
	}

	return types.NewQuantityFromInt64Scaled(totalScaled), nil
}

// GetTurnover aggregates imports/exports/corrections for a period. Exports
// come back as a positive magnitude with EXPORT_CANCEL compensations
// subtracted.
func (r *LedgerRepo) GetTurnover(ctx context.Context, filter ledger.TurnoverFilter) (ledger.Turnover, error) {
	result := ledger.Turnover{Item: filter.Item, AreaID: filter.AreaID}

	conditions := "created_at >= $1 AND created_at <= $2"
	args := []any{filter.FromDate, filter.ToDate}
	argIndex := 3

	openingConditions := "created_at < $1"
	openingArgs := []any{filter.FromDate}
	openingIndex := 2

	if filter.Item != nil {
		conditions += fmt.Sprintf(" AND item_kind = $%d AND item_id = $%d", argIndex, argIndex+1)
		args = append(args, filter.Item.Kind, filter.Item.ItemID)
		argIndex += 2

		openingConditions += fmt.Sprintf(" AND item_kind = $%d AND item_id = $%d", openingIndex, openingIndex+1)
		openingArgs = append(openingArgs, filter.Item.Kind, filter.Item.ItemID)
		openingIndex += 2
	}
	if filter.AreaID != nil {
		conditions += fmt.Sprintf(" AND area_id = $%d", argIndex)
		args = append(args, *filter.AreaID)

		openingConditions += fmt.Sprintf(" AND area_id = $%d", openingIndex)
		openingArgs = append(openingArgs, *filter.AreaID)
	}

	sql := fmt.Sprintf(`
		SELECT
			COALESCE(SUM(CASE WHEN action_type IN ('IMPORT_NORMAL', 'IMPORT_RETURN') THEN quantity_change ELSE 0 END), 0) AS imports,
			COALESCE(SUM(CASE WHEN action_type IN ('EXPORT_NORMAL', 'EXPORT_RETURN', 'EXPORT_CANCEL') THEN -quantity_change ELSE 0 END), 0) AS exports,
			COALESCE(SUM(CASE WHEN action_type = 'CHECK' THEN quantity_change ELSE 0 END), 0) AS corrections
		FROM ledger_entries
		WHERE %s
	`, conditions)

	querier := r.txManager.GetQuerier(ctx)
	var importsScaled, exportsScaled, correctionsScaled int64
	err := querier.QueryRow(ctx, sql, args...).Scan(&importsScaled, &exportsScaled, &correctionsScaled)
	if err != nil && err != pgx.ErrNoRows {
		return result, fmt.Errorf("calculate turnover: %w", err)
	}
	result.Imports = types.NewQuantityFromInt64Scaled(importsScaled)
	result.Exports = types.NewQuantityFromInt64Scaled(exportsScaled)
	result.Corrections = types.NewQuantityFromInt64Scaled(correctionsScaled)

	openingSQL := fmt.Sprintf(`
		SELECT COALESCE(SUM(quantity_change), 0)
		FROM ledger_entries
		WHERE %s
	`, openingConditions)

	var openingScaled int64
	err = querier.QueryRow(ctx, openingSQL, openingArgs...).Scan(&openingScaled)
	if err != nil && err != pgx.ErrNoRows {
		return result, fmt.Errorf("calculate opening balance: %w", err)
	}
	result.OpeningBalance = types.NewQuantityFromInt64Scaled(openingScaled)

	result.ClosingBalance = result.OpeningBalance +
		result.Imports - result.Exports + result.Corrections
	return result, nil
}
