package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/checks"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// CheckHandler serves inventory check documents.
type CheckHandler struct {
	BaseHandler

	service *checks.Service
}

// NewCheckHandler creates an inventory check handler.
func NewCheckHandler(service *checks.Service) *CheckHandler {
	return &CheckHandler{service: service}
}

// RegisterRoutes mounts inventory check endpoints on the group.
func (h *CheckHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/inventory-checks")
	g.POST("", h.Open)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.POST("/:id/close", h.Close)
	g.POST("/:id/cancel", h.Cancel)
}

// Open handles POST /inventory-checks.
func (h *CheckHandler) Open(c *gin.Context) {
	var req dto.OpenCheckRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Open(c.Request.Context(), req.AreaID, req.ItemRefs())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, doc)
}

// GetByID handles GET /inventory-checks/:id.
func (h *CheckHandler) GetByID(c *gin.Context) {
	checkID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), checkID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// List handles GET /inventory-checks.
func (h *CheckHandler) List(c *gin.Context) {
	base, ok := h.ParseListFilter(c)
	if !ok {
		return
	}
	filter := checks.ListFilter{ListFilter: base}

	areaID, ok := h.ParseIDQuery(c, "areaId")
	if !ok {
		return
	}
	filter.AreaID = areaID

	if v := c.Query("status"); v != "" {
		s := checks.Status(v)
		filter.Status = &s
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// Close handles POST /inventory-checks/:id/close.
func (h *CheckHandler) Close(c *gin.Context) {
	checkID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CloseCheckRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Close(c.Request.Context(), checkID, req.CountedLines())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Cancel handles POST /inventory-checks/:id/cancel.
func (h *CheckHandler) Cancel(c *gin.Context) {
	checkID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Cancel(c.Request.Context(), checkID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}
