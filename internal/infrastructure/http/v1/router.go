// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockshift/internal/domain/catalogs/variant"
	"stockshift/internal/domain/catalogs/warehouse"
	"stockshift/internal/domain/stock"
	"stockshift/internal/infrastructure/http/v1/handlers"
	"stockshift/internal/infrastructure/http/v1/middleware"
	"stockshift/internal/infrastructure/storage/postgres"
	"stockshift/internal/infrastructure/storage/postgres/catalog_repo"
	"stockshift/internal/infrastructure/storage/postgres/stock_repo"
	"stockshift/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (health checks, repositories).
	Pool *postgres.Pool

	// TxManager coordinates transactions across repositories.
	TxManager *postgres.TxManager

	// Audit records the mutation trail. Optional.
	Audit *postgres.AuditService

	// Logger for request logging.
	Logger *logger.Logger

	// JWTValidator for token validation.
	JWTValidator middleware.JWTValidator

	// StockMaxRetries bounds optimistic-concurrency retries per line.
	StockMaxRetries int
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Repositories
	eventRepo := stock_repo.NewEventRepo(cfg.TxManager)
	itemRepo := stock_repo.NewItemRepo(cfg.TxManager)
	transferRepo := stock_repo.NewTransferRepo(cfg.TxManager)
	warehouseRepo := catalog_repo.NewWarehouseRepo(cfg.TxManager)
	variantRepo := catalog_repo.NewVariantRepo(cfg.TxManager)

	// Domain services
	warehouseService := warehouse.NewService(warehouseRepo, cfg.TxManager)
	variantService := variant.NewService(variantRepo, cfg.TxManager)
	directory := warehouse.NewDirectory(warehouseRepo)
	catalog := variant.NewCatalog(variantRepo)

	ledger := stock.NewLedger(eventRepo, itemRepo, directory, catalog, cfg.TxManager, cfg.StockMaxRetries)
	transferService := stock.NewTransferService(transferRepo, directory, catalog, ledger, cfg.TxManager)

	// Handlers
	base := handlers.NewBaseHandler()
	stockHandler := handlers.NewStockHandler(base, ledger, cfg.Audit)
	transferHandler := handlers.NewTransferHandler(base, transferService, cfg.Audit)
	warehouseHandler := handlers.NewWarehouseHandler(base, warehouseService, cfg.Audit)
	variantHandler := handlers.NewVariantHandler(base, variantService, cfg.Audit)

	// API v1 (JWT protected)
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTValidator))
	{
		warehouses := v1.Group("/warehouses")
		{
			warehouses.POST("", warehouseHandler.Create)
			warehouses.GET("", warehouseHandler.List)
			warehouses.GET("/:warehouseId", warehouseHandler.Get)
			warehouses.PATCH("/:warehouseId", warehouseHandler.Update)
		}

		variants := v1.Group("/variants")
		{
			variants.POST("", variantHandler.Create)
			variants.GET("", variantHandler.List)
			variants.GET("/:variantId", variantHandler.Get)
			variants.PATCH("/:variantId", variantHandler.Update)
		}

		st := v1.Group("/stock")
		{
			st.POST("/warehouses/:warehouseId/events", stockHandler.ApplyEvent)
			st.GET("/warehouses/:warehouseId/balances/:variantId", stockHandler.GetBalance)
			st.GET("/events", stockHandler.ListEvents)
			st.GET("/events/:eventId", stockHandler.GetEvent)
			st.GET("/balances", stockHandler.ListBalances)
		}

		transfers := v1.Group("/transfers")
		{
			transfers.POST("", transferHandler.Create)
			transfers.GET("", transferHandler.List)
			transfers.GET("/:transferId", transferHandler.Get)
			transfers.POST("/:transferId/confirm", transferHandler.Confirm)
			transfers.POST("/:transferId/cancel", transferHandler.Cancel)
		}

		if cfg.Audit != nil {
			auditHandler := handlers.NewAuditHandler(base, cfg.Audit)
			v1.GET("/audit/:entityType/:entityId", auditHandler.History)
		}
	}

	return router
}
