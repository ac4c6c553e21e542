package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hookbucket/service-analytics/internal/analytics"
	"github.com/hookbucket/service-analytics/internal/services"
)

// defaultTimeRange is the trailing window in days when the caller does
// not pass one.
const defaultTimeRange = "7"

// AnalyticsHandler serves the classified snapshot and the metric shapes
// derived from it.
type AnalyticsHandler struct {
	snapshots *services.SnapshotService
	logger    *zap.Logger

	// now is injected for tests.
	now func() time.Time
}

// NewAnalyticsHandler creates an analytics handler.
func NewAnalyticsHandler(snapshots *services.SnapshotService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{snapshots: snapshots, logger: logger, now: time.Now}
}

// timeRangeDays parses the timeRange query parameter.
func (h *AnalyticsHandler) timeRangeDays(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("timeRange", defaultTimeRange)
	days, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid timeRange parameter"})
		return 0, false
	}
	return days, true
}

func (h *AnalyticsHandler) snapshot(c *gin.Context) (*analytics.Snapshot, bool) {
	forceRefresh := c.Query("refresh") == "true"
	snap, err := h.snapshots.Snapshot(c.Request.Context(), forceRefresh)
	if err != nil {
		h.logger.Error("failed to build snapshot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing data"})
		return nil, false
	}
	return snap, true
}

// GetWebhookData returns the full classified snapshot document.
// @Summary Get classified webhook data
// @Tags Analytics
// @Param refresh query bool false "Bypass the snapshot cache"
// @Success 200 {object} analytics.Snapshot
// @Router /api/webhook [get]
func (h *AnalyticsHandler) GetWebhookData(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetOrderMetrics returns paid-order metrics over the trailing window.
// @Summary Get order metrics
// @Tags Analytics
// @Param timeRange query string false "Trailing window in days" default(7)
// @Success 200 {object} analytics.OrderMetrics
// @Router /api/metrics/orders [get]
func (h *AnalyticsHandler) GetOrderMetrics(c *gin.Context) {
	days, ok := h.timeRangeDays(c)
	if !ok {
		return
	}
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, analytics.OrderMetricsFrom(snap, days, h.now()))
}

// GetCartMetrics returns active-cart counts over the trailing window.
// @Summary Get cart metrics
// @Tags Analytics
// @Param timeRange query string false "Trailing window in days" default(7)
// @Success 200 {object} analytics.CartMetrics
// @Router /api/metrics/carts [get]
func (h *AnalyticsHandler) GetCartMetrics(c *gin.Context) {
	days, ok := h.timeRangeDays(c)
	if !ok {
		return
	}
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, analytics.CartMetricsFrom(snap, days, h.now()))
}

// GetCartValueMetrics returns current cart value over the trailing
// window.
// @Summary Get cart value metrics
// @Tags Analytics
// @Param timeRange query string false "Trailing window in days" default(7)
// @Success 200 {object} analytics.CartValueMetrics
// @Router /api/metrics/cart-value [get]
func (h *AnalyticsHandler) GetCartValueMetrics(c *gin.Context) {
	days, ok := h.timeRangeDays(c)
	if !ok {
		return
	}
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, analytics.CartValueMetricsFrom(snap, days, h.now()))
}
