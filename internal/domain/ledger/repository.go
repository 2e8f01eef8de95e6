// Package ledger provides the stock ledger: the append-only movement log and
// the location balances maintained in lockstep with it.
package ledger

import (
	"context"
	"time"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Repository defines storage operations for the ledger and the balance cache.
//
// GetBalanceForUpdate is the single serialization point for a balance key:
// implementations must hold the key lock until the enclosing transaction
// ends (row lock in Postgres, per-key mutex in the memory store).
type Repository interface {
	// Balance store

	// GetBalance returns the current balance, zero-valued if absent.
	GetBalance(ctx context.Context, key entity.BalanceKey) (entity.LocationBalance, error)

	// GetBalanceForUpdate returns the balance with the key locked for the
	// duration of the transaction. Fails with LockTimeout on bounded-wait
	// expiry; no partial writes occur in that case.
	GetBalanceForUpdate(ctx context.Context, key entity.BalanceKey) (entity.LocationBalance, error)

	// SaveBalance upserts a balance row. Called only by the ledger writer
	// while holding the key lock.
	SaveBalance(ctx context.Context, balance entity.LocationBalance) error

	// GetBalancesByItem returns balances across all storage areas.
	GetBalancesByItem(ctx context.Context, item entity.ItemRef) ([]entity.LocationBalance, error)

	// GetBalancesByArea returns balances in one storage area.
	GetBalancesByArea(ctx context.Context, areaID id.ID, filter BalanceFilter) ([]entity.LocationBalance, error)

	// Ledger

	// AppendEntry persists an immutable entry and assigns its commit Seq.
	AppendEntry(ctx context.Context, entry *entity.LedgerEntry) error

	// ListEntries returns entries ordered by Seq, restartable from any cursor.
	ListEntries(ctx context.Context, filter EntryFilter) ([]entity.LedgerEntry, error)

	// SumChanges returns the sum of all signed deltas for an item across all
	// areas. Used by reconciliation to tie the cache back to the ledger.
	SumChanges(ctx context.Context, item entity.ItemRef) (types.Quantity, error)

	// GetTurnover aggregates imports/exports/corrections for a period.
	GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error)
}

// BalanceFilter narrows balance queries.
type BalanceFilter struct {
	ExcludeZero bool
	Kind        *entity.ItemKind
}

// EntryFilter narrows ledger reads. SinceSeq is an exclusive cursor.
type EntryFilter struct {
	Item       *entity.ItemRef
	AreaID     *id.ID
	ActionType *entity.ActionType
	RefID      *id.ID
	SinceSeq   int64
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
}

// TurnoverFilter scopes a turnover report.
type TurnoverFilter struct {
	Item     *entity.ItemRef
	AreaID   *id.ID
	FromDate time.Time
	ToDate   time.Time
}

// Turnover aggregates signed movement totals for a period.
type Turnover struct {
	Item           *entity.ItemRef `json:"item,omitempty"`
	AreaID         *id.ID          `json:"areaId,omitempty"`
	OpeningBalance types.Quantity  `json:"openingBalance"`
	Imports        types.Quantity  `json:"imports"`
	Exports        types.Quantity  `json:"exports"`
	Corrections    types.Quantity  `json:"corrections"`
	ClosingBalance types.Quantity  `json:"closingBalance"`
}
