package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/domain/ledger"
)

// StockHandler serves balance, ledger and reconciliation queries.
type StockHandler struct {
	BaseHandler

	ledger *ledger.Service
}

// NewStockHandler creates a stock query handler.
func NewStockHandler(svc *ledger.Service) *StockHandler {
	return &StockHandler{ledger: svc}
}

// RegisterRoutes mounts stock and ledger endpoints on the group.
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stock := rg.Group("/stock")
	stock.GET("/balance", h.GetBalance)
	stock.GET("/available", h.GetAvailable)
	stock.GET("/areas/:areaId", h.GetAreaStock)
	stock.GET("/reconcile", h.Reconcile)

	lg := rg.Group("/ledger")
	lg.GET("/entries", h.ListEntries)
	lg.GET("/turnover", h.GetTurnover)
}

// GetBalance handles GET /stock/balance?itemKind=&itemId=&areaId=.
func (h *StockHandler) GetBalance(c *gin.Context) {
	item, ok := h.RequireItemRefQuery(c)
	if !ok {
		return
	}
	areaID, ok := h.ParseIDQuery(c, "areaId")
	if !ok {
		return
	}
	if areaID == nil {
		h.Error(c, apperror.NewValidation("areaId is required"))
		return
	}

	qty, err := h.ledger.GetBalance(c.Request.Context(), item, *areaID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"item":     item,
		"areaId":   areaID,
		"quantity": qty,
	})
}

// GetAvailable handles GET /stock/available?itemKind=&itemId=.
// Returns the item total across all storage areas.
func (h *StockHandler) GetAvailable(c *gin.Context) {
	item, ok := h.RequireItemRefQuery(c)
	if !ok {
		return
	}

	total, err := h.ledger.TotalAvailable(c.Request.Context(), item)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"item":      item,
		"available": total,
	})
}

// GetAreaStock handles GET /stock/areas/:areaId.
func (h *StockHandler) GetAreaStock(c *gin.Context) {
	areaID, ok := h.ParseID(c, "areaId")
	if !ok {
		return
	}

	balances, err := h.ledger.GetAreaStock(c.Request.Context(), areaID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"areaId":   areaID,
		"balances": balances,
	})
}

// Reconcile handles GET /stock/reconcile?itemKind=&itemId=.
func (h *StockHandler) Reconcile(c *gin.Context) {
	item, ok := h.RequireItemRefQuery(c)
	if !ok {
		return
	}

	report, err := h.ledger.Reconcile(c.Request.Context(), item)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}

// ListEntries handles GET /ledger/entries. SinceSeq is an exclusive cursor:
// pass the last seen seq to resume.
func (h *StockHandler) ListEntries(c *gin.Context) {
	var filter ledger.EntryFilter
	var ok bool

	if filter.Item, ok = h.ParseItemRefQuery(c); !ok {
		return
	}
	if filter.AreaID, ok = h.ParseIDQuery(c, "areaId"); !ok {
		return
	}
	if v := c.Query("actionType"); v != "" {
		action := entity.ActionType(v)
		if !action.Valid() {
			h.Error(c, apperror.NewValidation("invalid action type").
				WithDetail("value", v))
			return
		}
		filter.ActionType = &action
	}
	if filter.RefID, ok = h.ParseIDQuery(c, "refId"); !ok {
		return
	}

	sinceSeq, ok := h.ParseIntQuery(c, "sinceSeq", 0)
	if !ok {
		return
	}
	filter.SinceSeq = int64(sinceSeq)

	if filter.FromDate, ok = h.ParseTimeQuery(c, "from"); !ok {
		return
	}
	if filter.ToDate, ok = h.ParseTimeQuery(c, "to"); !ok {
		return
	}
	if filter.Limit, ok = h.ParseIntQuery(c, "limit", 100); !ok {
		return
	}

	entries, err := h.ledger.GetLedger(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	var nextSeq int64
	if len(entries) > 0 {
		nextSeq = entries[len(entries)-1].Seq
	}

	h.OK(c, gin.H{
		"entries": entries,
		"nextSeq": nextSeq,
	})
}

// GetTurnover handles GET /ledger/turnover?from=&to=.
func (h *StockHandler) GetTurnover(c *gin.Context) {
	var filter ledger.TurnoverFilter
	var ok bool

	if filter.Item, ok = h.ParseItemRefQuery(c); !ok {
		return
	}
	if filter.AreaID, ok = h.ParseIDQuery(c, "areaId"); !ok {
		return
	}

	from, ok := h.ParseTimeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := h.ParseTimeQuery(c, "to")
	if !ok {
		return
	}
	if from == nil || to == nil {
		h.Error(c, apperror.NewValidation("from and to are required"))
		return
	}
	if !to.After(*from) {
		h.Error(c, apperror.NewValidation("to must be after from"))
		return
	}
	filter.FromDate = *from
	filter.ToDate = *to

	turnover, err := h.ledger.GetTurnover(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, turnover)
}
