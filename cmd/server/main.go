package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/erp/bridge/internal/application/sync"
	"github.com/erp/bridge/internal/infrastructure/commerce"
	"github.com/erp/bridge/internal/infrastructure/config"
	"github.com/erp/bridge/internal/infrastructure/erp"
	"github.com/erp/bridge/internal/infrastructure/logger"
	"github.com/erp/bridge/internal/infrastructure/persistence"
	"github.com/erp/bridge/internal/infrastructure/scheduler"
	"github.com/erp/bridge/internal/interfaces/http/handler"
	"github.com/erp/bridge/internal/interfaces/http/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ERP bridge",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with zap-backed GORM logging
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	// Order mapping store, loaded into memory before any webhook is served
	mappingStore := persistence.NewGormMappingStore(db.DB, log)
	if err := mappingStore.Init(startCtx); err != nil {
		log.Fatal("Failed to load order mappings", zap.Error(err))
	}
	log.Info("Order mappings loaded", zap.Int("count", mappingStore.Count()))

	cursorStore := persistence.NewGormSyncCursorRepository(db.DB)

	// ERP client and credential cache
	erpConfig := erp.NewConfig(cfg.ERP.BaseURL, cfg.ERP.CompanyCode, cfg.ERP.User, cfg.ERP.Secret)
	erpConfig.TimeoutSeconds = cfg.ERP.TimeoutSeconds
	erpClient, err := erp.NewClient(erpConfig, log)
	if err != nil {
		log.Fatal("Invalid ERP configuration", zap.Error(err))
	}
	credentials := erp.NewTokenCache(erpClient.Authenticate, log,
		erp.WithSafetyMargin(cfg.ERP.Token.SafetyMargin),
		erp.WithMinValidity(cfg.ERP.Token.MinValidity),
		erp.WithDefaultValidity(cfg.ERP.Token.DefaultValidity),
	)

	// Commerce platform client
	commerceClient, err := commerce.NewClient(&commerce.Config{
		APIBaseURL:     cfg.Commerce.APIBaseURL,
		AccessToken:    cfg.Commerce.AccessToken,
		WebhookSecret:  cfg.Commerce.WebhookSecret,
		LocationID:     cfg.Commerce.LocationID,
		TimeoutSeconds: cfg.Commerce.TimeoutSeconds,
	}, log)
	if err != nil {
		log.Fatal("Invalid commerce configuration", zap.Error(err))
	}

	// Application services
	documentService := appsync.NewDocumentService(credentials, erpClient, mappingStore, appsync.DocumentConfig{
		CompanyCode:       cfg.ERP.CompanyCode,
		VoucherType:       cfg.ERP.VoucherType,
		RevenueAccount:    cfg.ERP.RevenueAccount,
		ReceivableAccount: cfg.ERP.ReceivableAccount,
	}, log)
	productPushService := appsync.NewProductPushService(credentials, erpClient, log)
	webhookService := appsync.NewWebhookService(documentService, productPushService, log)
	pullService := appsync.NewProductPullService(credentials, erpClient, commerceClient, cursorStore, cfg.Pull.Lookback, log)

	// Background ERP→commerce polling sync
	var puller *scheduler.ProductPullScheduler
	if cfg.Pull.Enabled {
		puller, err = scheduler.NewProductPullScheduler(scheduler.ProductPullSchedulerConfig{
			Enabled:    true,
			Interval:   cfg.Pull.Interval,
			RunTimeout: cfg.Pull.RunTimeout,
		}, pullService, log)
		if err != nil {
			log.Fatal("Invalid pull scheduler configuration", zap.Error(err))
		}
		if err := puller.Start(context.Background()); err != nil {
			log.Fatal("Failed to start pull scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelStop()
			if err := puller.Stop(stopCtx); err != nil {
				log.Error("Error stopping pull scheduler", zap.Error(err))
			}
		}()
	} else {
		log.Info("Product pull disabled")
	}

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxy configuration", zap.Error(err))
	}
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	webhookHandler := handler.NewWebhookHandler(webhookService, cfg.Commerce.WebhookSecret, log)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, cfg.App.Env, db, mappingStore, puller, log)

	engine.GET("/health", systemHandler.Health)
	webhookHandler.RegisterRoutes(engine.Group(""))
	systemHandler.RegisterRoutes(engine.Group("/api/v1"))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
