// Package v1 assembles the HTTP API server.
package v1

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/catalogs/item"
	"stockledger/internal/domain/catalogs/storagearea"
	"stockledger/internal/domain/checks"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/receipts"
	"stockledger/internal/infrastructure/http/v1/handlers"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/pkg/logger"
)

// RouterConfig wires services into the HTTP router.
type RouterConfig struct {
	Logger *logger.Logger

	// TokenValidator guards /api/v1. Nil disables authentication; intended
	// for tests and local development only.
	TokenValidator middleware.TokenValidator

	Ledger   *ledger.Service
	Receipts *receipts.Service
	Checks   *checks.Service
	Areas    *storagearea.Service
	Items    *item.Service

	// ReadyCheck backs the readiness probe (database ping). Nil means
	// always ready.
	ReadyCheck func(ctx context.Context) error
}

// NewRouter builds the gin engine with middleware and all v1 routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(middleware.Recovery())
	if cfg.Logger != nil {
		r.Use(middleware.InjectLogger(cfg.Logger))
	}
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.ErrorHandler())

	handlers.NewHealthHandler(cfg.ReadyCheck).RegisterRoutes(r.Group("/health"))

	api := r.Group("/api/v1")
	if cfg.TokenValidator != nil {
		api.Use(middleware.Auth(cfg.TokenValidator))
	}

	handlers.NewStockHandler(cfg.Ledger).RegisterRoutes(api)
	handlers.NewReceiptHandler(cfg.Receipts).RegisterRoutes(api)
	handlers.NewCheckHandler(cfg.Checks).RegisterRoutes(api)
	handlers.NewStorageAreaHandler(cfg.Areas).RegisterRoutes(api)
	handlers.NewItemHandler(cfg.Items).RegisterRoutes(api)

	return r
}
