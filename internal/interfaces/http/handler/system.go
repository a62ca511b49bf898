package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	syncdomain "github.com/erp/bridge/internal/domain/sync"
	"github.com/erp/bridge/internal/infrastructure/persistence"
	"github.com/erp/bridge/internal/infrastructure/scheduler"
	"github.com/erp/bridge/internal/interfaces/http/dto"
)

// SystemHandler serves health, readiness and runtime info endpoints
type SystemHandler struct {
	BaseHandler
	appName     string
	environment string
	db          *persistence.Database
	store       syncdomain.MappingStore
	puller      *scheduler.ProductPullScheduler
	logger      *zap.Logger
}

// NewSystemHandler creates a new SystemHandler. puller may be nil when the
// pull scheduler is disabled.
func NewSystemHandler(appName, environment string, db *persistence.Database, store syncdomain.MappingStore, puller *scheduler.ProductPullScheduler, logger *zap.Logger) *SystemHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SystemHandler{
		appName:     appName,
		environment: environment,
		db:          db,
		store:       store,
		puller:      puller,
		logger:      logger.Named("system-handler"),
	}
}

// RegisterRoutes registers system endpoints
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/system/ping", h.Ping)
	rg.GET("/system/info", h.Info)
	rg.POST("/system/sync/products", h.TriggerProductPull)
}

// TriggerProductPull kicks off an out-of-band pull run, for operators who
// do not want to wait for the next tick
func (h *SystemHandler) TriggerProductPull(c *gin.Context) {
	if h.puller == nil {
		h.Error(c, http.StatusConflict, dto.ErrCodeBadRequest, "Product pull is disabled")
		return
	}
	if err := h.puller.TriggerNow(c.Request.Context()); err != nil {
		if errors.Is(err, scheduler.ErrPullSchedulerNotRunning) {
			h.Error(c, http.StatusConflict, dto.ErrCodeBadRequest, "Product pull scheduler is not running")
			return
		}
		h.logger.Error("manual product pull failed", zap.Error(err))
		h.InternalError(c, "Product pull failed")
		return
	}
	h.Success(c, gin.H{"message": "product pull completed"})
}

// Ping is a trivial liveness check
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, gin.H{"message": "pong"})
}

// Health reports readiness; the database is the only hard dependency,
// remote endpoints are checked lazily on first use
func (h *SystemHandler) Health(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "unreachable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "ok",
	})
}

// Info exposes runtime counters for operators
func (h *SystemHandler) Info(c *gin.Context) {
	stats, err := h.db.Stats()
	if err != nil {
		h.logger.Error("failed to read connection stats", zap.Error(err))
		h.InternalError(c, "Failed to read runtime info")
		return
	}
	info := gin.H{
		"app":         h.appName,
		"environment": h.environment,
		"database": gin.H{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
		},
		"order_mappings": h.store.Count(),
	}
	if h.puller != nil {
		info["product_pull_running"] = h.puller.IsRunning()
	}
	h.Success(c, info)
}
