package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"order-lookup/internal/handoff"
	"order-lookup/internal/models"
	"order-lookup/internal/service"
	"order-lookup/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	headerVisitorID     = "X-Visitor-ID"
	headerAdminPassword = "X-Admin-Password"

	readinessTimeout = 2 * time.Second
)

// Services are the collaborators the HTTP layer drives
type Services struct {
	Lookup        *service.LookupService
	Sessions      *service.SessionManager
	Checkout      *service.CheckoutService
	Announcements *service.AnnouncementService
	Admin         *service.AdminService
}

type readinessCheck struct {
	name  string
	check func(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	services   Services
	links      handoff.Links
	production bool
	checks     []readinessCheck
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services, links handoff.Links, production bool) *Handler {
	return &Handler{
		services:   services,
		links:      links,
		production: production,
		logger:     util.GetLogger(),
	}
}

// AddReadinessCheck registers a dependency probed by /ready
func (h *Handler) AddReadinessCheck(name string, check func(ctx context.Context) error) {
	h.checks = append(h.checks, readinessCheck{name: name, check: check})
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/orders", h.lookupOrders)

		v1.POST("/sessions", h.createSession)
		sessions := v1.Group("/sessions/:id")
		{
			sessions.GET("", h.getSession)
			sessions.POST("/search", h.searchSession)
			sessions.PUT("/tab", h.setTab)
			sessions.POST("/filters/cargo", h.toggleCargoFilter)
			sessions.POST("/filters/delivery", h.toggleDeliveryFilter)
			sessions.POST("/selection", h.toggleSelectAll)
			sessions.POST("/selection/:orderId", h.toggleSelection)
			sessions.GET("/orders/:orderId", h.getOrderDetail)
			sessions.POST("/checkout", h.checkout)
		}

		v1.GET("/announcements", h.listAnnouncements)
		v1.POST("/announcements/:id/like", h.likeAnnouncement)

		admin := v1.Group("/admin", h.adminAuth())
		{
			admin.GET("/draft", h.adminDraft)
			admin.POST("/entries", h.submitEntry)
			admin.GET("/entries", h.listEntries)
			admin.DELETE("/entries/:id", h.deleteEntry)
			admin.GET("/entries/export", h.exportEntries)
			admin.PUT("/locks/:field", h.setLock)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck probes the configured dependencies
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	failures := gin.H{}
	for _, rc := range h.checks {
		if err := rc.check(ctx); err != nil {
			failures[rc.name] = err.Error()
		}
	}

	if len(failures) > 0 {
		h.logger.Warn("Readiness check failed", zap.Any("failures", failures))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"details": failures,
			"time":    time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// parseTab reads a tab name. Empty means auto. Unknown names fail outside production.
func (h *Handler) parseTab(raw string) (models.ViewTab, bool, error) {
	if raw == "" {
		return "", false, nil
	}
	tab, err := models.ParseViewTab(raw)
	if err != nil {
		if h.production {
			h.logger.Debug("Unknown tab, using all", zap.String("tab", raw))
			return models.TabAll, true, nil
		}
		return "", false, err
	}
	return tab, true, nil
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
