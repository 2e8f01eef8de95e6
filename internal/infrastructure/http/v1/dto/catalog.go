package dto

import (
	"stockledger/internal/core/entity"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/catalogs/item"
	"stockledger/internal/domain/catalogs/storagearea"
)

// CreateStorageAreaRequest creates a storage area.
type CreateStorageAreaRequest struct {
	Code              string `json:"code" binding:"required"`
	Name              string `json:"name" binding:"required"`
	Address           string `json:"address"`
	ResponsiblePerson string `json:"responsiblePerson"`
	Comment           string `json:"comment"`
}

// ToStorageArea converts the request into a domain area.
func (r CreateStorageAreaRequest) ToStorageArea() *storagearea.StorageArea {
	area := storagearea.New(r.Code, r.Name)
	area.Address = r.Address
	area.ResponsiblePerson = r.ResponsiblePerson
	area.Comment = r.Comment
	return area
}

// UpdateStorageAreaRequest updates a storage area. Version must match the
// version the client last read; stale versions fail with
// CONCURRENT_MODIFICATION.
type UpdateStorageAreaRequest struct {
	Name              string `json:"name" binding:"required"`
	Address           string `json:"address"`
	ResponsiblePerson string `json:"responsiblePerson"`
	Comment           string `json:"comment"`
	Version           int    `json:"version" binding:"required"`
}

// Apply copies the editable fields onto a fetched area.
func (r UpdateStorageAreaRequest) Apply(area *storagearea.StorageArea) {
	area.Name = r.Name
	area.Address = r.Address
	area.ResponsiblePerson = r.ResponsiblePerson
	area.Comment = r.Comment
	area.Version = r.Version
}

// CreateItemRequest creates a catalog item.
type CreateItemRequest struct {
	Kind         entity.ItemKind `json:"kind" binding:"required"`
	Code         string          `json:"code" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	Unit         string          `json:"unit" binding:"required"`
	DefaultPrice *types.Money    `json:"defaultPrice"`
	Comment      string          `json:"comment"`
}

// ToItem converts the request into a domain item.
func (r CreateItemRequest) ToItem() *item.Item {
	it := item.New(r.Kind, r.Code, r.Name, r.Unit)
	it.DefaultPrice = r.DefaultPrice
	it.Comment = r.Comment
	return it
}

// UpdateItemRequest updates a catalog item. Kind is immutable and therefore
// absent here.
type UpdateItemRequest struct {
	Name         string       `json:"name" binding:"required"`
	Unit         string       `json:"unit" binding:"required"`
	DefaultPrice *types.Money `json:"defaultPrice"`
	Comment      string       `json:"comment"`
	Version      int          `json:"version" binding:"required"`
}

// Apply copies the editable fields onto a fetched item.
func (r UpdateItemRequest) Apply(it *item.Item) {
	it.Name = r.Name
	it.Unit = r.Unit
	it.DefaultPrice = r.DefaultPrice
	it.Comment = r.Comment
	it.Version = r.Version
}
