// Package main is the entry point for the stockledger API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"stockledger/internal/config"
	"stockledger/internal/domain/catalogs/item"
	"stockledger/internal/domain/catalogs/storagearea"
	"stockledger/internal/domain/checks"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/receipts"
	"stockledger/internal/infrastructure/auth"
	v1 "stockledger/internal/infrastructure/http/v1"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/catalog_repo"
	"stockledger/internal/infrastructure/storage/postgres/document_repo"
	"stockledger/internal/infrastructure/storage/postgres/ledger_repo"
	"stockledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Development: cfg.Logger.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting stockledger server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN)
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	ledgerRepo := ledger_repo.NewLedgerRepo(txManager)
	receiptRepo := document_repo.NewReceiptRepo(txManager)
	checkRepo := document_repo.NewCheckRepo(txManager)
	areaRepo := catalog_repo.NewStorageAreaRepo(txManager)
	itemRepo := catalog_repo.NewItemRepo(txManager)

	auditor, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to create audit service", "error", err)
	}

	// --- Domain services ---
	ledgerService := ledger.NewService(ledgerRepo, txManager)
	areaService := storagearea.NewService(areaRepo, ledgerService)
	itemService := item.NewService(itemRepo, ledgerService)

	var policy *receipts.ApprovalPolicy
	if expr := cfg.Approval.PolicyExpr; expr != "" {
		policy, err = receipts.NewApprovalPolicy(expr)
		if err != nil {
			log.Fatalw("failed to compile approval policy", "error", err)
		}
		log.Infow("approval policy active", "expr", expr)
	}

	receiptService := receipts.NewService(receipts.Config{
		Repo:      receiptRepo,
		Ledger:    ledgerService,
		TxManager: txManager,
		Areas:     areaService,
		Items:     itemService,
		Policy:    policy,
		Auditor:   auditor,
	})

	checkService := checks.NewService(checks.Config{
		Repo:      checkRepo,
		Ledger:    ledgerService,
		TxManager: txManager,
		Areas:     areaService,
		Auditor:   auditor,
	})

	// --- Authentication ---
	var validator middleware.TokenValidator
	if cfg.Auth.JWTSecret != "" {
		validator = auth.NewJWTValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	} else {
		log.Warn("JWT secret not configured, API authentication is DISABLED")
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:         log,
		TokenValidator: validator,
		Ledger:         ledgerService,
		Receipts:       receiptService,
		Checks:         checkService,
		Areas:          areaService,
		Items:          itemService,
		ReadyCheck:     pool.Ping,
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
