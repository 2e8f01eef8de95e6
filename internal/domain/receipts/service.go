package receipts

import (
	"context"
	"fmt"

	"stockledger/internal/core/actor"
	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain"
	"stockledger/internal/domain/ledger"
	"stockledger/pkg/logger"
)

// refType identifies receipts in ledger entry references.
const refType = "Receipt"

// Service provides business operations for receipt documents.
type Service struct {
	repo      Repository
	ledger    *ledger.Service
	txManager tx.Manager
	areas     AreaDirectory
	items     ItemDirectory
	policy    *ApprovalPolicy
	auditor   domain.Auditor
}

// Config wires the receipt service.
type Config struct {
	Repo      Repository
	Ledger    *ledger.Service
	TxManager tx.Manager
	Areas     AreaDirectory
	Items     ItemDirectory
	// Policy is optional; nil allows every approval.
	Policy *ApprovalPolicy
	// Auditor is optional; nil disables transition auditing.
	Auditor domain.Auditor
}

// NewService creates a new receipt service.
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
		items:     cfg.Items,
		policy:    cfg.Policy,
		auditor:   auditor,
	}
}

// Create persists a new pending receipt. No stock moves here; movements
// happen only on the approving transition.
func (s *Service) Create(ctx context.Context, doc *Receipt) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if err := s.checkReferences(ctx, doc); err != nil {
		return err
	}

	if doc.CreatedBy == "" {
		doc.CreatedBy = actor.Name(ctx)
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if doc.Number == "" {
			number, err := s.nextNumber(ctx, doc)
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			doc.Number = number
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create receipt: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "receipt created",
		"id", doc.ID,
		"number", doc.Number,
		"direction", doc.Direction,
		"lines", len(doc.Lines),
	)

	return nil
}

// checkReferences verifies that every referenced area and item exists and is
// active. Catalog metadata itself is a collaborator concern.
func (s *Service) checkReferences(ctx context.Context, doc *Receipt) error {
	for i, line := range doc.Lines {
		ok, err := s.areas.ActiveExists(ctx, line.AreaID)
		if err != nil {
			return fmt.Errorf("check area: %w", err)
		}
		if !ok {
			return apperror.NewNotFound("storage area", line.AreaID.String()).
				WithDetail("lineNo", i+1)
		}

		ok, err = s.items.ActiveExists(ctx, line.ItemRef)
		if err != nil {
			return fmt.Errorf("check item: %w", err)
		}
		if !ok {
			return apperror.NewNotFound("item", line.ItemRef.String()).
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}

func (s *Service) nextNumber(ctx context.Context, doc *Receipt) (string, error) {
	prefix := "IMP"
	if doc.Direction == DirectionExport {
		prefix = "EXP"
	}
	year := doc.ReceiptDate.Year()
	seq, err := s.repo.NextSequence(ctx, prefix, year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%05d", prefix, year, seq), nil
}

// GetByID retrieves a receipt with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Receipt, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// ApplyTransition moves a receipt through its lifecycle. The approving
// transition converts lines into ledger movements, one per line, applied
// all-or-nothing: if any line fails (e.g. InsufficientStock), the whole
// transaction rolls back and the receipt status is unchanged.
func (s *Service) ApplyTransition(ctx context.Context, docID id.ID, target Status) (*Receipt, error) {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	if err := doc.CanTransition(target); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		switch target {
		case StatusApproved:
			if err := s.policy.Allow(ctx, doc); err != nil {
				return err
			}
			if err := s.applyMovements(ctx, doc); err != nil {
				return err
			}
			doc.ApprovedBy = actor.Name(ctx)
		case StatusCancelled:
			if err := s.applyCancellation(ctx, doc); err != nil {
				return err
			}
		case StatusRejected, StatusCompleted:
			// Status-only transitions; balances are never touched.
		}

		doc.Status = target
		doc.UpdatedBy = actor.Name(ctx)
		doc.Touch()

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update receipt: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.auditor.Log(ctx, "transition", refType, doc.ID, map[string]any{
		"number": doc.Number,
		"status": doc.Status,
	}); err != nil {
		logger.Warn(ctx, "audit log failed", "error", err)
	}

	logger.Info(ctx, "receipt transitioned",
		"id", doc.ID,
		"number", doc.Number,
		"status", doc.Status,
	)

	return doc, nil
}

// applyMovements records one ledger movement per line. Runs inside the
// transition transaction, so all balance key locks are held to commit.
func (s *Service) applyMovements(ctx context.Context, doc *Receipt) error {
	action := doc.ActionType()

	for i, line := range doc.Lines {
		_, err := s.ledger.Record(ctx, ledger.Movement{
			Item:    line.ItemRef,
			AreaID:  line.AreaID,
			Delta:   doc.LineDelta(line),
			Action:  action,
			RefType: refType,
			RefID:   doc.ID,
		})
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return appErr.WithDetail("lineNo", i+1)
			}
			return fmt.Errorf("record line %d: %w", i+1, err)
		}
	}

	return nil
}

// applyCancellation reverses an approved export with compensating
// EXPORT_CANCEL entries. Approved imports cannot be cancelled.
func (s *Service) applyCancellation(ctx context.Context, doc *Receipt) error {
	if doc.Direction != DirectionExport {
		return apperror.NewInvalidStateTransition("receipt", string(doc.Status), string(StatusCancelled)).
			WithDetail("reason", "only export receipts can be cancelled after approval")
	}

	for i, line := range doc.Lines {
		_, err := s.ledger.Record(ctx, ledger.Movement{
			Item:    line.ItemRef,
			AreaID:  line.AreaID,
			Delta:   line.Quantity, // stock returns to the area
			Action:  entity.ActionExportCancel,
			RefType: refType,
			RefID:   doc.ID,
		})
		if err != nil {
			return fmt.Errorf("cancel line %d: %w", i+1, err)
		}
	}

	return nil
}

// Delete soft-deletes a receipt. Approved and completed receipts keep their
// ledger trail and cannot be deleted.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if doc.Status == StatusApproved || doc.Status == StatusCompleted {
		return apperror.NewBusinessRule(
			apperror.CodeInvalidStateTransition,
			"Cannot delete a receipt whose movements are recorded",
		).WithDetail("receipt_id", docID.String())
	}

	return s.repo.Delete(ctx, docID)
}

// List retrieves receipts with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Receipt], error) {
	return s.repo.List(ctx, filter)
}
