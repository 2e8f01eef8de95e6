package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/catalogs/storagearea"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// StorageAreaHandler serves the storage area catalog.
type StorageAreaHandler struct {
	BaseHandler

	service *storagearea.Service
}

// NewStorageAreaHandler creates a storage area handler.
func NewStorageAreaHandler(service *storagearea.Service) *StorageAreaHandler {
	return &StorageAreaHandler{service: service}
}

// RegisterRoutes mounts storage area endpoints on the group.
func (h *StorageAreaHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/storage-areas")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/restore", h.Restore)
}

// Create handles POST /storage-areas.
func (h *StorageAreaHandler) Create(c *gin.Context) {
	var req dto.CreateStorageAreaRequest
	if !h.BindJSON(c, &req) {
		return
	}

	area := req.ToStorageArea()
	if err := h.service.Create(c.Request.Context(), area); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, area)
}

// GetByID handles GET /storage-areas/:id.
func (h *StorageAreaHandler) GetByID(c *gin.Context) {
	areaID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	area, err := h.service.GetByID(c.Request.Context(), areaID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, area)
}

// List handles GET /storage-areas.
func (h *StorageAreaHandler) List(c *gin.Context) {
	base, ok := h.ParseListFilter(c)
	if !ok {
		return
	}
	filter := storagearea.ListFilter{ListFilter: base}

	if v := c.Query("status"); v != "" {
		s := storagearea.Status(v)
		filter.Status = &s
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// Update handles PUT /storage-areas/:id.
func (h *StorageAreaHandler) Update(c *gin.Context) {
	areaID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateStorageAreaRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	area, err := h.service.GetByID(ctx, areaID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.Apply(area)
	if err := h.service.Update(ctx, area); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, area)
}

// Delete handles DELETE /storage-areas/:id.
func (h *StorageAreaHandler) Delete(c *gin.Context) {
	areaID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.SoftDelete(c.Request.Context(), areaID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Restore handles POST /storage-areas/:id/restore.
func (h *StorageAreaHandler) Restore(c *gin.Context) {
	areaID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.service.Restore(ctx, areaID); err != nil {
		h.Error(c, err)
		return
	}

	area, err := h.service.GetByID(ctx, areaID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, area)
}
