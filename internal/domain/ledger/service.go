package ledger

import (
	"context"
	"fmt"

	"stockledger/internal/core/actor"
	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/core/types"
	"stockledger/pkg/logger"
)

// Movement is one requested quantity change. The sign of Delta is decided by
// the caller: receipts derive it from their direction, checks from the
// counted deviation.
type Movement struct {
	Item    entity.ItemRef
	AreaID  id.ID
	Delta   types.Quantity
	Action  entity.ActionType
	RefType string
	RefID   id.ID
}

// Service is the ledger writer. Record is the only code path that mutates a
// location balance, and it always appends exactly one entry per change.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates the ledger writer.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Record applies one movement and appends the matching ledger entry as a
// single atomic unit. Nested transaction calls reuse the caller's
// transaction, so a multi-line receipt holds all its key locks until the
// outer commit.
//
// Fails with InsufficientStock when the delta would drive the balance
// negative; that failure is fatal to the enclosing movement and is never
// retried internally with a different quantity.
func (s *Service) Record(ctx context.Context, m Movement) (entity.LedgerEntry, error) {
	if err := s.validateMovement(m); err != nil {
		return entity.LedgerEntry{}, err
	}

	var entry entity.LedgerEntry
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		key := entity.BalanceKey{Item: m.Item, AreaID: m.AreaID}

		balance, err := s.repo.GetBalanceForUpdate(ctx, key)
		if err != nil {
			return fmt.Errorf("get balance for %s: %w", key, err)
		}

		before := balance.Quantity
		after := before + m.Delta
		if after.IsNegative() {
			return apperror.NewInsufficientStock(
				m.Item.String(), m.Delta.Abs().Float64(), before.Float64())
		}

		entry, err = entity.NewLedgerEntry(
			m.Item, m.AreaID,
			before, m.Delta,
			m.Action, m.RefType, m.RefID,
			actor.Name(ctx),
		)
		if err != nil {
			return err
		}

		balance.ItemRef = m.Item
		balance.AreaID = m.AreaID
		balance.Quantity = after
		balance.LastMovementAt = entry.CreatedAt
		balance.UpdatedAt = entry.CreatedAt
		if err := s.repo.SaveBalance(ctx, balance); err != nil {
			return fmt.Errorf("save balance: %w", err)
		}

		if err := s.repo.AppendEntry(ctx, &entry); err != nil {
			return fmt.Errorf("append entry: %w", err)
		}

		return nil
	})
	if err != nil {
		return entity.LedgerEntry{}, err
	}

	logger.Debug(ctx, "movement recorded",
		"item", m.Item.String(),
		"area_id", m.AreaID,
		"delta", m.Delta.String(),
		"action", m.Action,
		"seq", entry.Seq,
	)

	return entry, nil
}

func (s *Service) validateMovement(m Movement) error {
	if err := m.Item.Validate(); err != nil {
		return err
	}
	if id.IsNil(m.AreaID) {
		return apperror.NewValidation("storage area is required").
			WithDetail("field", "areaId")
	}
	if m.Delta.IsZero() {
		return apperror.NewValidation("movement delta must be non-zero")
	}
	if !m.Action.Valid() {
		return apperror.NewValidation("invalid action type").
			WithDetail("value", string(m.Action))
	}
	if id.IsNil(m.RefID) || m.RefType == "" {
		return apperror.NewValidation("movement reference is required")
	}
	return nil
}

// RecordCorrection applies an inventory-check correction. The live balance
// is read under the key lock and verified against the expected baseline
// captured at check-open time; divergence fails with StaleInventoryCheck and
// the caller must reopen the check. A zero deviation is a valid no-op and
// returns a nil entry.
func (s *Service) RecordCorrection(
	ctx context.Context,
	item entity.ItemRef,
	areaID id.ID,
	expected, counted types.Quantity,
	refID id.ID,
) (*entity.LedgerEntry, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if counted.IsNegative() {
		return nil, apperror.NewValidation("counted quantity cannot be negative").
			WithDetail("item", item.String())
	}

	var entry *entity.LedgerEntry
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		key := entity.BalanceKey{Item: item, AreaID: areaID}

		balance, err := s.repo.GetBalanceForUpdate(ctx, key)
		if err != nil {
			return fmt.Errorf("get balance for %s: %w", key, err)
		}

		if balance.Quantity != expected {
			return apperror.NewStaleInventoryCheck(
				item.String(), expected.Float64(), balance.Quantity.Float64())
		}

		delta := counted - expected
		if delta.IsZero() {
			return nil
		}

		e, err := entity.NewLedgerEntry(
			item, areaID,
			balance.Quantity, delta,
			entity.ActionCheck, "InventoryCheck", refID,
			actor.Name(ctx),
		)
		if err != nil {
			return err
		}

		balance.ItemRef = item
		balance.AreaID = areaID
		balance.Quantity = counted
		balance.LastMovementAt = e.CreatedAt
		balance.UpdatedAt = e.CreatedAt
		if err := s.repo.SaveBalance(ctx, balance); err != nil {
			return fmt.Errorf("save balance: %w", err)
		}
		if err := s.repo.AppendEntry(ctx, &e); err != nil {
			return fmt.Errorf("append entry: %w", err)
		}

		entry = &e
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// GetBalance returns the current quantity for one (item, area) pair.
// Absent balances read as zero.
func (s *Service) GetBalance(ctx context.Context, item entity.ItemRef, areaID id.ID) (types.Quantity, error) {
	balance, err := s.repo.GetBalance(ctx, entity.BalanceKey{Item: item, AreaID: areaID})
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance.Quantity, nil
}

// TotalAvailable sums an item's balances across all storage areas.
func (s *Service) TotalAvailable(ctx context.Context, item entity.ItemRef) (types.Quantity, error) {
	balances, err := s.repo.GetBalancesByItem(ctx, item)
	if err != nil {
		return 0, fmt.Errorf("get balances: %w", err)
	}

	var total types.Quantity
	for _, b := range balances {
		total += b.Quantity
	}

	return total, nil
}

// GetAreaStock returns all non-zero balances in a storage area.
func (s *Service) GetAreaStock(ctx context.Context, areaID id.ID) ([]entity.LocationBalance, error) {
	return s.repo.GetBalancesByArea(ctx, areaID, BalanceFilter{ExcludeZero: true})
}

// GetLedger returns entries ordered by commit sequence, restartable from any
// cursor.
func (s *Service) GetLedger(ctx context.Context, filter EntryFilter) ([]entity.LedgerEntry, error) {
	return s.repo.ListEntries(ctx, filter)
}

// GetTurnover aggregates period totals.
func (s *Service) GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error) {
	return s.repo.GetTurnover(ctx, filter)
}

// ReconcileReport compares the balance cache against the ledger for one item.
type ReconcileReport struct {
	Item          entity.ItemRef `json:"item"`
	BalanceTotal  types.Quantity `json:"balanceTotal"`
	LedgerTotal   types.Quantity `json:"ledgerTotal"`
	Drift         types.Quantity `json:"drift"`
	AreaBalances  int            `json:"areaBalances"`
	InSync        bool           `json:"inSync"`
}

// Reconcile verifies the derivable invariant tying the cache to the ledger:
// the sum of an item's location balances must equal the sum of all signed
// deltas ever recorded for it.
func (s *Service) Reconcile(ctx context.Context, item entity.ItemRef) (ReconcileReport, error) {
	report := ReconcileReport{Item: item}

	balances, err := s.repo.GetBalancesByItem(ctx, item)
	if err != nil {
		return report, fmt.Errorf("get balances: %w", err)
	}
	for _, b := range balances {
		report.BalanceTotal += b.Quantity
	}
	report.AreaBalances = len(balances)

	report.LedgerTotal, err = s.repo.SumChanges(ctx, item)
	if err != nil {
		return report, fmt.Errorf("sum ledger: %w", err)
	}

	report.Drift = report.BalanceTotal - report.LedgerTotal
	report.InSync = report.Drift.IsZero()

	if !report.InSync {
		logger.Warn(ctx, "ledger drift detected",
			"item", item.String(),
			"balance_total", report.BalanceTotal.String(),
			"ledger_total", report.LedgerTotal.String(),
		)
	}

	return report, nil
}
