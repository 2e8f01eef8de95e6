package memory

import (
	"context"
	"sort"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/ledger"
)

// LedgerRepo implements ledger.Repository on the memory store.
type LedgerRepo struct {
	s *Store
}

// LedgerRepo returns the ledger repository view of the store.
func (s *Store) LedgerRepo() *LedgerRepo {
	return &LedgerRepo{s: s}
}

var _ ledger.Repository = (*LedgerRepo)(nil)

// GetBalance returns the current balance, zero-valued if absent. Inside a
// transaction the read sees the transaction's own buffered writes.
func (r *LedgerRepo) GetBalance(ctx context.Context, key entity.BalanceKey) (entity.LocationBalance, error) {
	if t := txFrom(ctx); t != nil {
		if b, ok := t.balances[key]; ok {
			return b, nil
		}
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if b, ok := r.s.balances[key]; ok {
		return b, nil
	}
	return entity.LocationBalance{ItemRef: key.Item, AreaID: key.AreaID}, nil
}

// GetBalanceForUpdate takes the per-key semaphore before reading. The key
// stays locked until the enclosing transaction ends.
func (r *LedgerRepo) GetBalanceForUpdate(ctx context.Context, key entity.BalanceKey) (entity.LocationBalance, error) {
	t, err := requireTx(ctx, "GetBalanceForUpdate")
	if err != nil {
		return entity.LocationBalance{}, err
	}

	if err := r.s.acquireKey(ctx, t, key.String()); err != nil {
		return entity.LocationBalance{}, err
	}

	return r.GetBalance(ctx, key)
}

// SaveBalance buffers the balance write in the transaction.
func (r *LedgerRepo) SaveBalance(ctx context.Context, balance entity.LocationBalance) error {
	t, err := requireTx(ctx, "SaveBalance")
	if err != nil {
		return err
	}
	t.balances[balance.Key()] = balance
	return nil
}

// GetBalancesByItem returns balances across all storage areas.
func (r *LedgerRepo) GetBalancesByItem(ctx context.Context, it entity.ItemRef) ([]entity.LocationBalance, error) {
	return r.collectBalances(ctx, func(b entity.LocationBalance) bool {
		return b.ItemRef == it
	}), nil
}

// GetBalancesByArea returns balances in one storage area.
func (r *LedgerRepo) GetBalancesByArea(ctx context.Context, areaID id.ID, filter ledger.BalanceFilter) ([]entity.LocationBalance, error) {
	return r.collectBalances(ctx, func(b entity.LocationBalance) bool {
		if b.AreaID != areaID {
			return false
		}
		if filter.ExcludeZero && b.Quantity.IsZero() {
			return false
		}
		if filter.Kind != nil && b.Kind != *filter.Kind {
			return false
		}
		return true
	}), nil
}

func (r *LedgerRepo) collectBalances(ctx context.Context, match func(entity.LocationBalance) bool) []entity.LocationBalance {
	merged := make(map[entity.BalanceKey]entity.LocationBalance)

	r.s.mu.RLock()
	for k, b := range r.s.balances {
		merged[k] = b
	}
	r.s.mu.RUnlock()

	if t := txFrom(ctx); t != nil {
		for k, b := range t.balances {
			merged[k] = b
		}
	}

	out := make([]entity.LocationBalance, 0)
	for _, b := range merged {
		if match(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().String() < out[j].Key().String()
	})
	return out
}

// AppendEntry assigns the commit Seq and buffers the entry. The caller holds
// the balance key lock, so per-key entries are strictly ordered.
func (r *LedgerRepo) AppendEntry(ctx context.Context, entry *entity.LedgerEntry) error {
	t, err := requireTx(ctx, "AppendEntry")
	if err != nil {
		return err
	}
	entry.Seq = r.s.seq.Add(1)
	t.entries = append(t.entries, entry)
	return nil
}

func (r *LedgerRepo) snapshotEntries(ctx context.Context) []entity.LedgerEntry {
	r.s.mu.RLock()
	out := make([]entity.LedgerEntry, len(r.s.entries))
	copy(out, r.s.entries)
	r.s.mu.RUnlock()

	if t := txFrom(ctx); t != nil {
		for _, e := range t.entries {
			out = append(out, *e)
		}
	}
	return out
}

// ListEntries returns entries ordered by Seq, restartable from any cursor.
func (r *LedgerRepo) ListEntries(ctx context.Context, filter ledger.EntryFilter) ([]entity.LedgerEntry, error) {
	all := r.snapshotEntries(ctx)
	sort.Slice(all, func(i, j int) bool { return all[i].Seq < all[j].Seq })

	out := make([]entity.LedgerEntry, 0)
	for _, e := range all {
		if e.Seq <= filter.SinceSeq {
			continue
		}
		if filter.Item != nil && e.ItemRef != *filter.Item {
			continue
		}
		if filter.AreaID != nil && e.AreaID != *filter.AreaID {
			continue
		}
		if filter.ActionType != nil && e.ActionType != *filter.ActionType {
			continue
		}
		if filter.RefID != nil && e.RefID != *filter.RefID {
			continue
		}
		if filter.FromDate != nil && e.CreatedAt.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && e.CreatedAt.After(*filter.ToDate) {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// SumChanges returns the sum of all signed deltas for an item.
func (r *LedgerRepo) SumChanges(ctx context.Context, it entity.ItemRef) (types.Quantity, error) {
	var total types.Quantity
	for _, e := range r.snapshotEntries(ctx) {
		if e.ItemRef == it {
			total += e.QuantityChange
		}
	}
	return total, nil
}

// GetTurnover aggregates imports/exports/corrections for a period.
// Exports are reported as a positive magnitude; EXPORT_CANCEL compensations
// subtract from it.
func (r *LedgerRepo) GetTurnover(ctx context.Context, filter ledger.TurnoverFilter) (ledger.Turnover, error) {
	result := ledger.Turnover{Item: filter.Item, AreaID: filter.AreaID}

	for _, e := range r.snapshotEntries(ctx) {
		if filter.Item != nil && e.ItemRef != *filter.Item {
			continue
		}
		if filter.AreaID != nil && e.AreaID != *filter.AreaID {
			continue
		}

		if e.CreatedAt.Before(filter.FromDate) {
			result.OpeningBalance += e.QuantityChange
			continue
		}
		if e.CreatedAt.After(filter.ToDate) {
			continue
		}

		switch e.ActionType {
		case entity.ActionImportNormal, entity.ActionImportReturn:
			result.Imports += e.QuantityChange
		case entity.ActionExportNormal, entity.ActionExportReturn, entity.ActionExportCancel:
			result.Exports -= e.QuantityChange
		case entity.ActionCheck:
			result.Corrections += e.QuantityChange
		}
	}

	result.ClosingBalance = result.OpeningBalance +
		result.Imports - result.Exports + result.Corrections
	return result, nil
}
