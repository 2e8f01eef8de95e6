package memory

import (
	"context"
	"sort"
	"strings"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/checks"
)

// CheckRepo implements checks.Repository on the memory store.
type CheckRepo struct {
	s *Store
}

// CheckRepo returns the inventory check repository view of the store.
func (s *Store) CheckRepo() *CheckRepo {
	return &CheckRepo{s: s}
}

var _ checks.Repository = (*CheckRepo)(nil)

// Create inserts the header. Details are stored separately via SaveDetails.
func (r *CheckRepo) Create(ctx context.Context, doc *checks.InventoryCheck) error {
	header := *doc
	header.Details = nil

	if t := txFrom(ctx); t != nil {
		t.checks[doc.ID] = header
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.checks[doc.ID] = header
	return nil
}

// GetByID retrieves the header without details.
func (r *CheckRepo) GetByID(ctx context.Context, docID id.ID) (*checks.InventoryCheck, error) {
	if t := txFrom(ctx); t != nil {
		if doc, ok := t.checks[docID]; ok {
			return &doc, nil
		}
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if doc, ok := r.s.checks[docID]; ok {
		return &doc, nil
	}
	return nil, apperror.NewNotFound("inventory check", docID.String())
}

// Update modifies the header with optimistic locking on Version.
func (r *CheckRepo) Update(ctx context.Context, doc *checks.InventoryCheck) error {
	current, err := r.GetByID(ctx, doc.ID)
	if err != nil {
		return err
	}
	if current.Version != doc.Version-1 {
		return apperror.NewConcurrentModification("inventory check", doc.ID.String())
	}

	header := *doc
	header.Details = nil

	if t := txFrom(ctx); t != nil {
		t.checks[doc.ID] = header
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.checks[doc.ID] = header
	return nil
}

// SaveDetails replaces the detail set.
func (r *CheckRepo) SaveDetails(ctx context.Context, docID id.ID, details []checks.Detail) error {
	stored := make([]checks.Detail, len(details))
	copy(stored, details)

	if t := txFrom(ctx); t != nil {
		t.checkDetails[docID] = stored
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.checkDetails[docID] = stored
	return nil
}

// GetDetails retrieves details ordered by line number.
func (r *CheckRepo) GetDetails(ctx context.Context, docID id.ID) ([]checks.Detail, error) {
	var stored []checks.Detail

	if t := txFrom(ctx); t != nil {
		stored = t.checkDetails[docID]
	}
	if stored == nil {
		r.s.mu.RLock()
		stored = r.s.checkDetails[docID]
		r.s.mu.RUnlock()
	}

	out := make([]checks.Detail, len(stored))
	copy(out, stored)
	sort.Slice(out, func(i, j int) bool { return out[i].LineNo < out[j].LineNo })
	return out, nil
}

// List retrieves checks with filtering.
func (r *CheckRepo) List(ctx context.Context, filter checks.ListFilter) (domain.ListResult[*checks.InventoryCheck], error) {
	r.s.mu.RLock()
	all := make([]checks.InventoryCheck, 0, len(r.s.checks))
	for _, doc := range r.s.checks {
		all = append(all, doc)
	}
	r.s.mu.RUnlock()

	matched := make([]*checks.InventoryCheck, 0)
	for i := range all {
		doc := all[i]
		if doc.DeletionMark && !filter.IncludeDeleted {
			continue
		}
		if filter.AreaID != nil && doc.AreaID != *filter.AreaID {
			continue
		}
		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(
			strings.ToLower(doc.Number), strings.ToLower(filter.Search)) {
			continue
		}
		if len(filter.IDs) > 0 && !containsID(filter.IDs, doc.ID) {
			continue
		}
		matched = append(matched, &doc)
	}

	sort.Slice(matched, func(i, j int) bool {
		if filter.OrderBy == "number" {
			return matched[i].Number < matched[j].Number
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return paginate(matched, filter.ListFilter), nil
}

// NextSequence returns the next document number for a prefix+year pair.
func (r *CheckRepo) NextSequence(ctx context.Context, prefix string, year int) (int64, error) {
	return r.s.nextSequence(prefix, year), nil
}
