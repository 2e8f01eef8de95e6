package item

import (
	"context"
	"fmt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/ledger"
	"stockledger/pkg/logger"
)

// Service provides business operations for the item catalog.
type Service struct {
	repo   Repository
	ledger *ledger.Service
}

// NewService creates a new item service.
func NewService(repo Repository, ledger *ledger.Service) *Service {
	return &Service{repo: repo, ledger: ledger}
}

// Create persists a new item after checking code uniqueness.
func (s *Service) Create(ctx context.Context, it *Item) error {
	if err := it.Validate(ctx); err != nil {
		return err
	}

	existing, err := s.repo.GetByCode(ctx, it.Code)
	if err != nil && !apperror.IsNotFound(err) {
		return fmt.Errorf("check code: %w", err)
	}
	if existing != nil {
		return apperror.NewDuplicate("item", "code", it.Code)
	}

	if err := s.repo.Create(ctx, it); err != nil {
		return fmt.Errorf("create item: %w", err)
	}

	logger.Info(ctx, "item created", "id", it.ID, "code", it.Code, "kind", it.Kind)
	return nil
}

// Update modifies an existing item. Kind is immutable: ledger rows already
// reference it.
func (s *Service) Update(ctx context.Context, it *Item) error {
	if err := it.Validate(ctx); err != nil {
		return err
	}

	current, err := s.repo.GetByID(ctx, it.ID)
	if err != nil {
		return err
	}
	if current.Kind != it.Kind {
		return apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			"Item kind cannot be changed",
		).WithDetail("item_id", it.ID.String())
	}

	it.Touch()
	if err := s.repo.Update(ctx, it); err != nil {
		return err
	}

	logger.Info(ctx, "item updated", "id", it.ID, "code", it.Code)
	return nil
}

// GetByID retrieves an item.
func (s *Service) GetByID(ctx context.Context, itemID id.ID) (*Item, error) {
	return s.repo.GetByID(ctx, itemID)
}

// List retrieves items with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Item], error) {
	return s.repo.List(ctx, filter)
}

// SoftDelete marks an item deleted. Refused while any stock of it remains.
func (s *Service) SoftDelete(ctx context.Context, itemID id.ID) error {
	it, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return err
	}

	total, err := s.ledger.TotalAvailable(ctx, it.Ref())
	if err != nil {
		return fmt.Errorf("check item stock: %w", err)
	}
	if !total.IsZero() {
		return apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			"Cannot delete an item that still has stock",
		).WithDetail("item_id", itemID.String()).
			WithDetail("available", total.Float64())
	}

	it.Status = StatusDeleted
	it.MarkDeleted()
	it.Touch()

	if err := s.repo.Update(ctx, it); err != nil {
		return err
	}

	logger.Info(ctx, "item deleted", "id", it.ID, "code", it.Code)
	return nil
}

// Restore clears the deletion mark and reactivates the item.
func (s *Service) Restore(ctx context.Context, itemID id.ID) error {
	it, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return err
	}

	it.Status = StatusActive
	it.Undelete()
	it.Touch()

	if err := s.repo.Update(ctx, it); err != nil {
		return err
	}

	logger.Info(ctx, "item restored", "id", it.ID, "code", it.Code)
	return nil
}

// ActiveExists reports whether an active item matching the reference exists.
// The reference kind must agree with the catalog record; a product ref to a
// material ID does not resolve.
func (s *Service) ActiveExists(ctx context.Context, ref entity.ItemRef) (bool, error) {
	it, err := s.repo.GetByID(ctx, ref.ItemID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if it.Kind != ref.Kind {
		return false, nil
	}
	return it.IsActive(), nil
}
