package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hookbucket/service-analytics/internal/services"
	"github.com/hookbucket/service-analytics/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newWebhookRouter(store storage.ObjectStore, secret string) *gin.Engine {
	ingest := services.NewIngestService(store, nil, zap.NewNop())
	h := NewWebhookHandler(ingest, &WebhookConfig{ShopifySecret: secret}, zap.NewNop())

	router := gin.New()
	router.POST("/webhook/shopify", h.HandleShopifyWebhook)
	return router
}

func postWebhook(router *gin.Engine, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/shopify", bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleShopifyWebhook(t *testing.T) {
	store := storage.NewMemoryStore()
	router := newWebhookRouter(store, "")
	body := []byte(`{"id":42,"created_at":"2024-05-15T10:00:00Z","updated_at":"2024-05-15T10:00:00Z"}`)

	w := postWebhook(router, body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "processed" {
		t.Errorf("status = %q, want processed", resp["status"])
	}
	if store.Len() != 1 {
		t.Errorf("stored %d blobs, want 1", store.Len())
	}

	// Redelivery reports duplicate but still answers 200.
	w = postWebhook(router, body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("duplicate status = %d, want 200", w.Code)
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != "duplicate" {
		t.Errorf("status = %q, want duplicate", resp["status"])
	}
}

func TestHandleShopifyWebhookMalformed(t *testing.T) {
	router := newWebhookRouter(storage.NewMemoryStore(), "")
	w := postWebhook(router, []byte(`{broken`), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHandleShopifyWebhookStorageFailure(t *testing.T) {
	router := newWebhookRouter(brokenStore{}, "")
	w := postWebhook(router, []byte(`{"id":1}`), nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestHandleShopifyWebhookSignature(t *testing.T) {
	store := storage.NewMemoryStore()
	router := newWebhookRouter(store, "secret")
	body := []byte(`{"id":42}`)

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write(body)
	valid := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	w := postWebhook(router, body, map[string]string{"X-Shopify-Hmac-Sha256": valid})
	if w.Code != http.StatusOK {
		t.Fatalf("valid signature status = %d, want 200", w.Code)
	}

	w = postWebhook(router, body, map[string]string{"X-Shopify-Hmac-Sha256": "bogus"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad signature status = %d, want 401", w.Code)
	}
	if store.Len() != 1 {
		t.Errorf("stored %d blobs, unsigned delivery must not persist", store.Len())
	}
}

var errBroken = errors.New("bucket unavailable")

// brokenStore fails every operation.
type brokenStore struct{}

func (brokenStore) Put(context.Context, string, []byte) error { return errBroken }
func (brokenStore) List(context.Context, int) ([]storage.ObjectInfo, error) {
	return nil, errBroken
}
func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errBroken }
