package memory

import (
	"context"
	"sort"
	"strings"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/receipts"
)

// ReceiptRepo implements receipts.Repository on the memory store.
type ReceiptRepo struct {
	s *Store
}

// ReceiptRepo returns the receipt repository view of the store.
func (s *Store) ReceiptRepo() *ReceiptRepo {
	return &ReceiptRepo{s: s}
}

var _ receipts.Repository = (*ReceiptRepo)(nil)

// Create inserts the header. Lines are stored separately via SaveLines.
func (r *ReceiptRepo) Create(ctx context.Context, doc *receipts.Receipt) error {
	header := *doc
	header.Lines = nil

	if t := txFrom(ctx); t != nil {
		t.receipts[doc.ID] = header
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.receipts[doc.ID] = header
	return nil
}

// GetByID retrieves the header without lines.
func (r *ReceiptRepo) GetByID(ctx context.Context, docID id.ID) (*receipts.Receipt, error) {
	if t := txFrom(ctx); t != nil {
		if doc, ok := t.receipts[docID]; ok {
			return &doc, nil
		}
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if doc, ok := r.s.receipts[docID]; ok {
		return &doc, nil
	}
	return nil, apperror.NewNotFound("receipt", docID.String())
}

// Update modifies the header with optimistic locking on Version.
func (r *ReceiptRepo) Update(ctx context.Context, doc *receipts.Receipt) error {
	current, err := r.GetByID(ctx, doc.ID)
	if err != nil {
		return err
	}
	if current.Version != doc.Version-1 {
		return apperror.NewConcurrentModification("receipt", doc.ID.String())
	}

	header := *doc
	header.Lines = nil

	if t := txFrom(ctx); t != nil {
		t.receipts[doc.ID] = header
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.receipts[doc.ID] = header
	return nil
}

// SaveLines replaces the line set.
func (r *ReceiptRepo) SaveLines(ctx context.Context, docID id.ID, lines []receipts.Line) error {
	stored := make([]receipts.Line, len(lines))
	copy(stored, lines)

	if t := txFrom(ctx); t != nil {
		t.receiptLines[docID] = stored
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.receiptLines[docID] = stored
	return nil
}

// GetLines retrieves lines ordered by line number.
func (r *ReceiptRepo) GetLines(ctx context.Context, docID id.ID) ([]receipts.Line, error) {
	var stored []receipts.Line

	if t := txFrom(ctx); t != nil {
		stored = t.receiptLines[docID]
	}
	if stored == nil {
		r.s.mu.RLock()
		stored = r.s.receiptLines[docID]
		r.s.mu.RUnlock()
	}

	out := make([]receipts.Line, len(stored))
	copy(out, stored)
	sort.Slice(out, func(i, j int) bool { return out[i].LineNo < out[j].LineNo })
	return out, nil
}

// Delete sets the deletion mark.
func (r *ReceiptRepo) Delete(ctx context.Context, docID id.ID) error {
	doc, err := r.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	doc.MarkDeleted()
	doc.Touch()
	return r.Update(ctx, doc)
}

// List retrieves receipts with filtering.
func (r *ReceiptRepo) List(ctx context.Context, filter receipts.ListFilter) (domain.ListResult[*receipts.Receipt], error) {
	r.s.mu.RLock()
	all := make([]receipts.Receipt, 0, len(r.s.receipts))
	for _, doc := range r.s.receipts {
		all = append(all, doc)
	}
	lines := make(map[id.ID][]receipts.Line, len(r.s.receiptLines))
	for docID, ls := range r.s.receiptLines {
		lines[docID] = ls
	}
	r.s.mu.RUnlock()

	matched := make([]*receipts.Receipt, 0)
	for i := range all {
		doc := all[i]
		if doc.DeletionMark && !filter.IncludeDeleted {
			continue
		}
		if filter.Direction != nil && doc.Direction != *filter.Direction {
			continue
		}
		if filter.Kind != nil && doc.Kind != *filter.Kind {
			continue
		}
		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}
		if filter.AreaID != nil && !anyLineInArea(lines[doc.ID], *filter.AreaID) {
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
func (r *ReceiptRepo) NextSequence(ctx context.Context, prefix string, year int) (int64, error) {
	return r.s.nextSequence(prefix, year), nil
}

func anyLineInArea(lines []receipts.Line, areaID id.ID) bool {
	for _, l := range lines {
		if l.AreaID == areaID {
			return true
		}
	}
	return false
}

func containsID(ids []id.ID, target id.ID) bool {
	for _, v := range ids {
		if v == target {
			return true
		}
	}
	return false
}

// paginate applies limit/offset and fills the result envelope.
func paginate[T any](items []T, filter domain.ListFilter) domain.ListResult[T] {
	total := int64(len(items))

	offset := filter.Offset
	if offset > len(items) {
		offset = len(items)
	}
	items = items[offset:]

	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}

	return domain.ListResult[T]{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     offset,
	}
}
