package memory

import (
	"context"
	"sort"
	"strings"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/domain/catalogs/item"
	"stockledger/internal/domain/catalogs/storagearea"
)

// AreaRepo implements storagearea.Repository on the memory store.
type AreaRepo struct {
	s *Store
}

// AreaRepo returns the storage area repository view of the store.
func (s *Store) AreaRepo() *AreaRepo {
	return &AreaRepo{s: s}
}

var _ storagearea.Repository = (*AreaRepo)(nil)

func (r *AreaRepo) Create(ctx context.Context, area *storagearea.StorageArea) error {
	stored := *area

	if t := txFrom(ctx); t != nil {
		t.areas[area.ID] = stored
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.areas[area.ID] = stored
	return nil
}

func (r *AreaRepo) GetByID(ctx context.Context, areaID id.ID) (*storagearea.StorageArea, error) {
	if t := txFrom(ctx); t != nil {
		if area, ok := t.areas[areaID]; ok {
			return &area, nil
		}
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if area, ok := r.s.areas[areaID]; ok {
		return &area, nil
	}
	return nil, apperror.NewNotFound("storage area", areaID.String())
}

func (r *AreaRepo) GetByCode(ctx context.Context, code string) (*storagearea.StorageArea, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, area := range r.s.areas {
		if area.Code == code {
			a := area
			return &a, nil
		}
	}
	return nil, apperror.NewNotFound("storage area", code)
}

func (r *AreaRepo) Update(ctx context.Context, area *storagearea.StorageArea) error {
	current, err := r.GetByID(ctx, area.ID)
	if err != nil {
		return err
	}
	if current.Version != area.Version-1 {
		return apperror.NewConcurrentModification("storage area", area.ID.String())
	}

	stored := *area

	if t := txFrom(ctx); t != nil {
		t.areas[area.ID] = stored
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.areas[area.ID] = stored
	return nil
}

func (r *AreaRepo) List(ctx context.Context, filter storagearea.ListFilter) (domain.ListResult[*storagearea.StorageArea], error) {
	r.s.mu.RLock()
	all := make([]storagearea.StorageArea, 0, len(r.s.areas))
	for _, area := range r.s.areas {
		all = append(all, area)
	}
	r.s.mu.RUnlock()

	matched := make([]*storagearea.StorageArea, 0)
	for i := range all {
		area := all[i]
		if area.DeletionMark && !filter.IncludeDeleted {
			continue
		}
		if filter.Status != nil && area.Status != *filter.Status {
			continue
		}
		if filter.Search != "" && !matchesCatalogSearch(area.Code, area.Name, filter.Search) {
			continue
		}
		if len(filter.IDs) > 0 && !containsID(filter.IDs, area.ID) {
			continue
		}
		matched = append(matched, &area)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].Code < matched[j].Code })
	return paginate(matched, filter.ListFilter), nil
}

// ItemRepo implements item.Repository on the memory store.
type ItemRepo struct {
	s *Store
}

// ItemRepo returns the item repository view of the store.
func (s *Store) ItemRepo() *ItemRepo {
	return &ItemRepo{s: s}
}

var _ item.Repository = (*ItemRepo)(nil)

func (r *ItemRepo) Create(ctx context.Context, it *item.Item) error {
	stored := *it

	if t := txFrom(ctx); t != nil {
		t.items[it.ID] = stored
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.items[it.ID] = stored
	return nil
}

func (r *ItemRepo) GetByID(ctx context.Context, itemID id.ID) (*item.Item, error) {
	if t := txFrom(ctx); t != nil {
		if it, ok := t.items[itemID]; ok {
			return &it, nil
		}
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if it, ok := r.s.items[itemID]; ok {
		return &it, nil
	}
	return nil, apperror.NewNotFound("item", itemID.String())
}

func (r *ItemRepo) GetByCode(ctx context.Context, code string) (*item.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, it := range r.s.items {
		if it.Code == code {
			found := it
			return &found, nil
		}
	}
	return nil, apperror.NewNotFound("item", code)
}

func (r *ItemRepo) Update(ctx context.Context, it *item.Item) error {
	current, err := r.GetByID(ctx, it.ID)
	if err != nil {
		return err
	}
	if current.Version != it.Version-1 {
		return apperror.NewConcurrentModification("item", it.ID.String())
	}

	stored := *it

	if t := txFrom(ctx); t != nil {
		t.items[it.ID] = stored
		return nil
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.items[it.ID] = stored
	return nil
}

func (r *ItemRepo) List(ctx context.Context, filter item.ListFilter) (domain.ListResult[*item.Item], error) {
	r.s.mu.RLock()
	all := make([]item.Item, 0, len(r.s.items))
	for _, it := range r.s.items {
		all = append(all, it)
	}
	r.s.mu.RUnlock()

	matched := make([]*item.Item, 0)
	for i := range all {
		it := all[i]
		if it.DeletionMark && !filter.IncludeDeleted {
			continue
		}
		if filter.Kind != nil && it.Kind != *filter.Kind {
			continue
		}
		if filter.Status != nil && it.Status != *filter.Status {
			continue
		}
		if filter.Search != "" && !matchesCatalogSearch(it.Code, it.Name, filter.Search) {
			continue
		}
		if len(filter.IDs) > 0 && !containsID(filter.IDs, it.ID) {
			continue
		}
		matched = append(matched, &it)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].Code < matched[j].Code })
	return paginate(matched, filter.ListFilter), nil
}

func matchesCatalogSearch(code, name, search string) bool {
	search = strings.ToLower(search)
	return strings.Contains(strings.ToLower(code), search) ||
		strings.Contains(strings.ToLower(name), search)
}
