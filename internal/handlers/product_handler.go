package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hookbucket/service-analytics/internal/clients"
)

// ProductHandler forwards product management calls to the Shopify Admin
// GraphQL API. All endpoints are pure passthrough: the front-end owns the
// query text, this service owns the credentials.
type ProductHandler struct {
	shopify *clients.ShopifyClient
	logger  *zap.Logger
}

// NewProductHandler creates a product handler.
func NewProductHandler(shopify *clients.ShopifyClient, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{shopify: shopify, logger: logger}
}

// graphqlBody is the request envelope shared by all product endpoints.
type graphqlBody struct {
	Query     string          `json:"query" binding:"required"`
	Variables json.RawMessage `json:"variables"`
}

func (h *ProductHandler) forward(c *gin.Context, action string) {
	var body graphqlBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	data, err := h.shopify.Request(c.Request.Context(), body.Query, body.Variables)
	if err != nil {
		h.logger.Error("shopify request failed", zap.Error(err), zap.String("action", action))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Error " + action,
			"message": err.Error(),
		})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// QueryProducts fetches products.
// @Summary Query products via the Admin API
// @Tags Products
// @Router /api/shopify/products [post]
func (h *ProductHandler) QueryProducts(c *gin.Context) {
	h.forward(c, "fetching products")
}

// CreateProduct creates a product.
// @Summary Create a product via the Admin API
// @Tags Products
// @Router /api/shopify/products/create [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	h.forward(c, "creating product")
}

// UpdateProduct updates a product.
// @Summary Update a product via the Admin API
// @Tags Products
// @Router /api/shopify/products/update [post]
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	h.forward(c, "updating product")
}

// DeleteProduct deletes a product.
// @Summary Delete a product via the Admin API
// @Tags Products
// @Router /api/shopify/products/delete [post]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	h.forward(c, "deleting product")
}
