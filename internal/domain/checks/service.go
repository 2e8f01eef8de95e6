package checks

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/actor"
	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/core/types"
	"stockledger/internal/domain"
	"stockledger/internal/domain/ledger"
	"stockledger/pkg/logger"
)

const refType = "InventoryCheck"

// CountedLine is one physically counted item handed in at close time.
type CountedLine struct {
	Item              entity.ItemRef
	ActualQuantity    types.Quantity
	DefectiveQuantity types.Quantity
	Note              string
}

// Service provides the inventory check engine.
type Service struct {
	repo      Repository
	ledger    *ledger.Service
	txManager tx.Manager
	areas     AreaDirectory
	auditor   domain.Auditor
}

// Config wires the check service.
type Config struct {
	Repo      Repository
	Ledger    *ledger.Service
	TxManager tx.Manager
	Areas     AreaDirectory
	// Auditor is optional; nil disables transition auditing.
	Auditor domain.Auditor
}

// NewService creates a new inventory check service.
func NewService(cfg Config) *Service {
	auditor := cfg.Auditor
	if auditor == nil {
		auditor = domain.NopAuditor{}
	}
	return &Service{
		repo:      cfg.Repo,
		ledger:    cfg.Ledger,
		txManager: cfg.TxManager,
		areas:     cfg.Areas,
		auditor:   auditor,
	}
}

// Open creates a check for a storage area, capturing the live balance of
// each item as the ExactQuantity baseline. With no items given, the check
// snapshots every non-zero balance in the area.
func (s *Service) Open(ctx context.Context, areaID id.ID, items []entity.ItemRef) (*InventoryCheck, error) {
	ok, err := s.areas.ActiveExists(ctx, areaID)
	if err != nil {
		return nil, fmt.Errorf("check area: %w", err)
	}
	if !ok {
		return nil, apperror.NewNotFound("storage area", areaID.String())
	}

	doc := NewInventoryCheck(areaID, actor.Name(ctx))

	if len(items) == 0 {
		balances, err := s.ledger.GetAreaStock(ctx, areaID)
		if err != nil {
			return nil, fmt.Errorf("snapshot area stock: %w", err)
		}
		for _, b := range balances {
			doc.AddDetail(b.ItemRef, b.Quantity)
		}
	} else {
		for _, item := range items {
			if err := item.Validate(); err != nil {
				return nil, err
			}
			qty, err := s.ledger.GetBalance(ctx, item, areaID)
			if err != nil {
				return nil, fmt.Errorf("read baseline for %s: %w", item, err)
			}
			doc.AddDetail(item, qty)
		}
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if doc.Number == "" {
			seq, err := s.repo.NextSequence(ctx, "CHK", doc.CheckDate.Year())
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			doc.Number = fmt.Sprintf("CHK-%d-%05d", doc.CheckDate.Year(), seq)
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create check: %w", err)
		}
		if err := s.repo.SaveDetails(ctx, doc.ID, doc.Details); err != nil {
			return fmt.Errorf("save details: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "inventory check opened",
		"id", doc.ID,
		"number", doc.Number,
		"area_id", areaID,
		"details", len(doc.Details),
	)

	return doc, nil
}

// Close records the physical count and emits one CHECK correction per
// deviating detail, all-or-nothing. Every detail must be counted. A check
// whose baselines no longer match the live balances fails with
// StaleInventoryCheck and no corrections are applied. A check with all-zero
// deviations closes successfully without ledger entries.
func (s *Service) Close(ctx context.Context, checkID id.ID, counted []CountedLine) (*InventoryCheck, error) {
	doc, err := s.GetByID(ctx, checkID)
	if err != nil {
		return nil, err
	}

	if err := doc.CanClose(); err != nil {
		return nil, err
	}

	detailItems := make(map[entity.ItemRef]bool, len(doc.Details))
	for _, d := range doc.Details {
		detailItems[d.ItemRef] = true
	}

	countedByItem := make(map[entity.ItemRef]CountedLine, len(counted))
	for _, c := range counted {
		if _, dup := countedByItem[c.Item]; dup {
			return nil, apperror.NewValidation("duplicate counted line").
				WithDetail("item", c.Item.String())
		}
		if !detailItems[c.Item] {
			return nil, apperror.NewValidation("counted line matches no check detail").
				WithDetail("item", c.Item.String())
		}
		countedByItem[c.Item] = c
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()

		for i := range doc.Details {
			d := &doc.Details[i]

			c, ok := countedByItem[d.ItemRef]
			if !ok {
				return apperror.NewValidation("detail line is not counted").
					WithDetail("lineNo", d.LineNo).
					WithDetail("item", d.ItemRef.String())
			}
			if c.DefectiveQuantity.IsNegative() || c.DefectiveQuantity > c.ActualQuantity {
				return apperror.NewValidation("defective quantity exceeds counted quantity").
					WithDetail("lineNo", d.LineNo)
			}

			_, err := s.ledger.RecordCorrection(
				ctx, d.ItemRef, doc.AreaID,
				d.ExactQuantity, c.ActualQuantity,
				doc.ID,
			)
			if err != nil {
				if appErr, ok := apperror.AsAppError(err); ok {
					return appErr.WithDetail("lineNo", d.LineNo)
				}
				return fmt.Errorf("correct line %d: %w", d.LineNo, err)
			}

			actual := c.ActualQuantity
			d.ActualQuantity = &actual
			d.DefectiveQuantity = c.DefectiveQuantity
			d.Note = c.Note
		}

		doc.Status = StatusClosed
		doc.ClosedAt = &now
		doc.UpdatedBy = actor.Name(ctx)
		doc.Touch()

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update check: %w", err)
		}
		if err := s.repo.SaveDetails(ctx, doc.ID, doc.Details); err != nil {
			return fmt.Errorf("save details: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.auditor.Log(ctx, "close", refType, doc.ID, map[string]any{
		"number": doc.Number,
		"status": doc.Status,
	}); err != nil {
		logger.Warn(ctx, "audit log failed", "error", err)
	}

	logger.Info(ctx, "inventory check closed",
		"id", doc.ID,
		"number", doc.Number,
		"area_id", doc.AreaID,
	)

	return doc, nil
}

// Cancel abandons an open check without touching balances.
func (s *Service) Cancel(ctx context.Context, checkID id.ID) (*InventoryCheck, error) {
	doc, err := s.GetByID(ctx, checkID)
	if err != nil {
		return nil, err
	}

	if doc.Status != StatusOpen {
		return nil, apperror.NewInvalidStateTransition("inventory check", string(doc.Status), string(StatusCancelled)).
			WithDetail("check_id", checkID.String())
	}

	doc.Status = StatusCancelled
	doc.UpdatedBy = actor.Name(ctx)
	doc.Touch()

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "inventory check cancelled", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// GetByID retrieves a check with details.
func (s *Service) GetByID(ctx context.Context, checkID id.ID) (*InventoryCheck, error) {
	doc, err := s.repo.GetByID(ctx, checkID)
	if err != nil {
		return nil, err
	}

	details, err := s.repo.GetDetails(ctx, checkID)
	if err != nil {
		return nil, fmt.Errorf("get details: %w", err)
	}
	doc.Details = details

	return doc, nil
}

// List retrieves checks with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*InventoryCheck], error) {
	return s.repo.List(ctx, filter)
}
