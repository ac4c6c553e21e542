// Package handlers holds the gin HTTP handlers for the analytics
// service.
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hookbucket/service-analytics/internal/domain/shopify"
	"github.com/hookbucket/service-analytics/internal/services"
)

// WebhookConfig holds webhook verification settings.
type WebhookConfig struct {
	// ShopifySecret enables HMAC verification when non-empty.
	ShopifySecret string
}

// WebhookHandler handles inbound Shopify webhook deliveries.
type WebhookHandler struct {
	ingest    *services.IngestService
	signature *shopify.Signature
	logger    *zap.Logger
}

// NewWebhookHandler creates a webhook handler. Signature verification is
// skipped when cfg.ShopifySecret is empty.
func NewWebhookHandler(ingest *services.IngestService, cfg *WebhookConfig, logger *zap.Logger) *WebhookHandler {
	h := &WebhookHandler{ingest: ingest, logger: logger}
	if cfg.ShopifySecret != "" {
		h.signature = shopify.NewSignature(cfg.ShopifySecret)
	}
	return h
}

// HandleShopifyWebhook ingests one event delivery.
// @Summary Receive a Shopify webhook event
// @Tags Webhooks
// @Success 200 {object} map[string]string
// @Router /webhook/shopify [post]
func (h *WebhookHandler) HandleShopifyWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	if h.signature != nil {
		provided := c.GetHeader("X-Shopify-Hmac-Sha256")
		if !h.signature.VerifyWebhook(body, provided) {
			h.logger.Warn("webhook signature verification failed")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook signature"})
			return
		}
	}

	outcome, err := h.ingest.Ingest(c.Request.Context(), body)
	if err != nil {
		if errors.Is(err, shopify.ErrMalformedPayload) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed webhook payload"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing webhook"})
		return
	}

	if outcome.Duplicate {
		c.JSON(http.StatusOK, gin.H{"status": "duplicate", "dedup_key": outcome.DedupKey})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "processed", "dedup_key": outcome.DedupKey})
}
