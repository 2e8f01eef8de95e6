package storagearea

import (
	"context"
	"fmt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/ledger"
	"stockledger/pkg/logger"
)

// Service provides business operations for the storage area catalog.
type Service struct {
	repo   Repository
	ledger *ledger.Service
}

// NewService creates a new storage area service.
func NewService(repo Repository, ledger *ledger.Service) *Service {
	return &Service{repo: repo, ledger: ledger}
}

// Create persists a new area after checking code uniqueness.
func (s *Service) Create(ctx context.Context, area *StorageArea) error {
	if err := area.Validate(ctx); err != nil {
		return err
	}

	existing, err := s.repo.GetByCode(ctx, area.Code)
	if err != nil && !apperror.IsNotFound(err) {
		return fmt.Errorf("check code: %w", err)
	}
	if existing != nil {
		return apperror.NewDuplicate("storage area", "code", area.Code)
	}

	if err := s.repo.Create(ctx, area); err != nil {
		return fmt.Errorf("create area: %w", err)
	}

	logger.Info(ctx, "storage area created", "id", area.ID, "code", area.Code)
	return nil
}

// Update modifies an existing area.
func (s *Service) Update(ctx context.Context, area *StorageArea) error {
	if err := area.Validate(ctx); err != nil {
		return err
	}

	area.Touch()
	if err := s.repo.Update(ctx, area); err != nil {
		return err
	}

	logger.Info(ctx, "storage area updated", "id", area.ID, "code", area.Code)
	return nil
}

// GetByID retrieves an area.
func (s *Service) GetByID(ctx context.Context, areaID id.ID) (*StorageArea, error) {
	return s.repo.GetByID(ctx, areaID)
}

// List retrieves areas with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*StorageArea], error) {
	return s.repo.List(ctx, filter)
}

// SoftDelete marks an area deleted. Refused while any non-zero balance
// remains in the area; stock must be exported or corrected out first.
func (s *Service) SoftDelete(ctx context.Context, areaID id.ID) error {
	area, err := s.repo.GetByID(ctx, areaID)
	if err != nil {
		return err
	}

	balances, err := s.ledger.GetAreaStock(ctx, areaID)
	if err != nil {
		return fmt.Errorf("check area stock: %w", err)
	}
	if len(balances) > 0 {
		return apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			"Cannot delete a storage area that still holds stock",
		).WithDetail("area_id", areaID.String()).
			WithDetail("balances", len(balances))
	}

	area.Status = StatusDeleted
	area.MarkDeleted()
	area.Touch()

	if err := s.repo.Update(ctx, area); err != nil {
		return err
	}

	logger.Info(ctx, "storage area deleted", "id", area.ID, "code", area.Code)
	return nil
}

// Restore clears the deletion mark and reactivates the area.
func (s *Service) Restore(ctx context.Context, areaID id.ID) error {
	area, err := s.repo.GetByID(ctx, areaID)
	if err != nil {
		return err
	}

	area.Status = StatusActive
	area.Undelete()
	area.Touch()

	if err := s.repo.Update(ctx, area); err != nil {
		return err
	}

	logger.Info(ctx, "storage area restored", "id", area.ID, "code", area.Code)
	return nil
}

// ActiveExists reports whether an active area with the given ID exists.
// Satisfies the directory interfaces of the document services.
func (s *Service) ActiveExists(ctx context.Context, areaID id.ID) (bool, error) {
	area, err := s.repo.GetByID(ctx, areaID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return area.IsActive(), nil
}
