// Package clients holds HTTP clients for external collaborators.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ShopifyClient forwards GraphQL requests to the Shopify Admin API.
type ShopifyClient struct {
	endpoint    string
	accessToken string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewShopifyClient creates a client for the given shop and API version.
func NewShopifyClient(shopName, apiVersion, accessToken string, logger *zap.Logger) *ShopifyClient {
	return &ShopifyClient{
		endpoint:    fmt.Sprintf("https://%s.myshopify.com/admin/api/%s/graphql.json", shopName, apiVersion),
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// graphqlRequest is the wire shape of an Admin API call.
type graphqlRequest struct {
	Query     string          `json:"query"`
	Variables json.RawMessage `json:"variables,omitempty"`
}

// Request forwards query and variables to the Admin API and returns the
// response document verbatim. The caller owns the query text; this client
// only carries it.
func (c *ShopifyClient) Request(ctx context.Context, query string, variables json.RawMessage) (json.RawMessage, error) {
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("shopify request completed", zap.Int("response_bytes", len(body)))
	return body, nil
}
