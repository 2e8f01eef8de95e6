// Package handlers provides HTTP handlers for the v1 API.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/domain"
)

// BaseHandler provides request parsing and response helpers shared by all
// handlers. Errors go through c.Error so the error middleware renders them.
type BaseHandler struct{}

// Error attaches the error and aborts the chain.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// BindJSON binds the request body, reporting a validation error on failure.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithCause(err))
		return false
	}
	return true
}

// ParseID parses a UUID path parameter.
func (h *BaseHandler) ParseID(c *gin.Context, param string) (id.ID, bool) {
	v, err := id.Parse(c.Param(param))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id").
			WithDetail("param", param).
			WithDetail("value", c.Param(param)))
		return id.Nil(), false
	}
	return v, true
}

// ParseIDQuery parses an optional UUID query parameter. Absent yields nil.
func (h *BaseHandler) ParseIDQuery(c *gin.Context, name string) (*id.ID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := id.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id").
			WithDetail("param", name).
			WithDetail("value", raw))
		return nil, false
	}
	return &v, true
}

// ParseTimeQuery parses an optional RFC3339 query parameter.
func (h *BaseHandler) ParseTimeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid timestamp, expected RFC3339").
			WithDetail("param", name).
			WithDetail("value", raw))
		return nil, false
	}
	return &t, true
}

// ParseIntQuery parses an optional integer query parameter with a default.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid integer").
			WithDetail("param", name).
			WithDetail("value", raw))
		return 0, false
	}
	return v, true
}

// ParseItemRefQuery parses the itemKind/itemId query pair. Both must be
// present together or absent together.
func (h *BaseHandler) ParseItemRefQuery(c *gin.Context) (*entity.ItemRef, bool) {
	kind := c.Query("itemKind")
	rawID := c.Query("itemId")
	if kind == "" && rawID == "" {
		return nil, true
	}
	if kind == "" || rawID == "" {
		h.Error(c, apperror.NewValidation("itemKind and itemId must be given together"))
		return nil, false
	}

	itemID, err := id.Parse(rawID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id").
			WithDetail("param", "itemId").
			WithDetail("value", rawID))
		return nil, false
	}

	ref := entity.ItemRef{Kind: entity.ItemKind(kind), ItemID: itemID}
	if err := ref.Validate(); err != nil {
		h.Error(c, err)
		return nil, false
	}
	return &ref, true
}

// RequireItemRefQuery is ParseItemRefQuery with the pair mandatory.
func (h *BaseHandler) RequireItemRefQuery(c *gin.Context) (entity.ItemRef, bool) {
	ref, ok := h.ParseItemRefQuery(c)
	if !ok {
		return entity.ItemRef{}, false
	}
	if ref == nil {
		h.Error(c, apperror.NewValidation("itemKind and itemId are required"))
		return entity.ItemRef{}, false
	}
	return *ref, true
}

// ParseListFilter reads the common listing parameters.
func (h *BaseHandler) ParseListFilter(c *gin.Context) (domain.ListFilter, bool) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")

	limit, ok := h.ParseIntQuery(c, "limit", filter.Limit)
	if !ok {
		return filter, false
	}
	offset, ok := h.ParseIntQuery(c, "offset", 0)
	if !ok {
		return filter, false
	}
	filter.Limit = limit
	filter.Offset = offset

	if orderBy := c.Query("orderBy"); orderBy != "" {
		filter.OrderBy = orderBy
	}
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	return filter, true
}

// OK renders 200 with a JSON body.
func (h *BaseHandler) OK(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

// Created renders 201 with a JSON body.
func (h *BaseHandler) Created(c *gin.Context, body any) {
	c.JSON(http.StatusCreated, body)
}

// NoContent renders 204.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
