// Package routes wires handlers into the gin router.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hookbucket/service-analytics/internal/auth"
	"github.com/hookbucket/service-analytics/internal/handlers"
)

// RouteConfig holds configuration for routes.
type RouteConfig struct {
	WebhookHandler   *handlers.WebhookHandler
	AnalyticsHandler *handlers.AnalyticsHandler
	ProductHandler   *handlers.ProductHandler
	JWTManager       *auth.JWTManager
}

// SetupRoutes configures all API routes.
func SetupRoutes(router *gin.Engine, cfg *RouteConfig) {
	// Prometheus exposition (no auth, scraped internally)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Webhook ingestion. Shopify cannot attach a bearer token, so this
	// route is guarded by HMAC signature verification instead of JWT.
	router.POST("/webhook/shopify", cfg.WebhookHandler.HandleShopifyWebhook)

	authorized := auth.Middleware(cfg.JWTManager)

	api := router.Group("/api")
	api.Use(authorized)
	{
		// Classified snapshot and derived metrics
		api.GET("/webhook", cfg.AnalyticsHandler.GetWebhookData)
		api.GET("/metrics/orders", cfg.AnalyticsHandler.GetOrderMetrics)
		api.GET("/metrics/carts", cfg.AnalyticsHandler.GetCartMetrics)
		api.GET("/metrics/cart-value", cfg.AnalyticsHandler.GetCartValueMetrics)

		// Shopify Admin API passthrough
		products := api.Group("/shopify/products")
		{
			products.POST("", cfg.ProductHandler.QueryProducts)
			products.POST("/create", cfg.ProductHandler.CreateProduct)
			products.POST("/update", cfg.ProductHandler.UpdateProduct)
			products.POST("/delete", cfg.ProductHandler.DeleteProduct)
		}
	}
}
