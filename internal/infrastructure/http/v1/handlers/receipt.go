package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/core/actor"
	"stockledger/internal/domain/receipts"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// ReceiptHandler serves receipt documents and their lifecycle transitions.
type ReceiptHandler struct {
	BaseHandler

	service *receipts.Service
}

// NewReceiptHandler creates a receipt handler.
func NewReceiptHandler(service *receipts.Service) *ReceiptHandler {
	return &ReceiptHandler{service: service}
}

// RegisterRoutes mounts receipt endpoints on the group.
func (h *ReceiptHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/receipts")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/approve", h.transitionTo(receipts.StatusApproved))
	g.POST("/:id/reject", h.transitionTo(receipts.StatusRejected))
	g.POST("/:id/complete", h.transitionTo(receipts.StatusCompleted))
	g.POST("/:id/cancel", h.transitionTo(receipts.StatusCancelled))
}

// Create handles POST /receipts.
func (h *ReceiptHandler) Create(c *gin.Context) {
	var req dto.CreateReceiptRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	doc := req.ToReceipt(actor.Name(ctx))

	if err := h.service.Create(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, doc)
}

// GetByID handles GET /receipts/:id.
func (h *ReceiptHandler) GetByID(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// List handles GET /receipts.
func (h *ReceiptHandler) List(c *gin.Context) {
	base, ok := h.ParseListFilter(c)
	if !ok {
		return
	}
	filter := receipts.ListFilter{ListFilter: base}

	if v := c.Query("direction"); v != "" {
		d := receipts.Direction(v)
		filter.Direction = &d
	}
	if v := c.Query("kind"); v != "" {
		k := receipts.Kind(v)
		filter.Kind = &k
	}
	if v := c.Query("status"); v != "" {
		s := receipts.Status(v)
		filter.Status = &s
	}
	areaID, ok := h.ParseIDQuery(c, "areaId")
	if !ok {
		return
	}
	filter.AreaID = areaID

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// Delete handles DELETE /receipts/:id.
func (h *ReceiptHandler) Delete(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// transitionTo builds the handler for one lifecycle transition endpoint.
func (h *ReceiptHandler) transitionTo(target receipts.Status) gin.HandlerFunc {
	return func(c *gin.Context) {
		docID, ok := h.ParseID(c, "id")
		if !ok {
			return
		}

		doc, err := h.service.ApplyTransition(c.Request.Context(), docID, target)
		if err != nil {
			h.Error(c, err)
			return
		}

		h.OK(c, doc)
	}
}
