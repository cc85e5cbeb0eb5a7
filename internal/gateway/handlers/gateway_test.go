package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vandana-1812/tracechain-backend/internal/ledger"
)

type stubCodes struct{}

func (stubCodes) Encode(string) (string, error) {
	return "data:image/png;base64,c3R1Yg==", nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *ledger.MemStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := ledger.NewMemStore()
	l := ledger.New(store, stubCodes{}, ledger.Options{BaseURL: "http://localhost:3000"})

	productHandler := NewProductHTTPHandler(l)
	analyticsHandler := NewAnalyticsHTTPHandler(l)
	healthHandler := NewHealthHTTPHandler(l)

	r := gin.New()
	r.GET("/", healthHandler.Root)

	api := r.Group("/api")
	{
		api.GET("/message", healthHandler.Message)
		api.GET("/health", healthHandler.Health)
		api.GET("/health/database", healthHandler.DatabaseHealth)

		products := api.Group("/products")
		{
			products.POST("/register", productHandler.RegisterProduct)
			products.GET("", productHandler.ListProducts)
			products.GET("/:productId", productHandler.GetProduct)
			products.PUT("/:productId/update", productHandler.UpdateProduct)
			products.PATCH("/:productId", productHandler.UpdateProduct)
		}

		analytics := api.Group("/analytics")
		{
			analytics.GET("/dashboard", analyticsHandler.Dashboard)
			analytics.GET("/supply-chain", analyticsHandler.SupplyChain)
		}
	}

	return r, store
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func registerOne(t *testing.T, r *gin.Engine, name, manufacturer, category string) string {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/products/register", gin.H{
		"productName":  name,
		"manufacturer": manufacturer,
		"category":     category,
		"origin":       "Factory A",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := decode(t, w)["data"].(map[string]interface{})
	return data["productId"].(string)
}

func TestRegisterProductEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/products/register", gin.H{
		"productName":  "Widget",
		"manufacturer": "Acme",
		"category":     "Electronics",
		"origin":       "Factory A",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]interface{})
	assert.NotEmpty(t, data["productId"])
	assert.Equal(t, "Widget", data["productName"])
	assert.Equal(t, "registered", data["status"])
	assert.Equal(t, "data:image/png;base64,c3R1Yg==", data["qrCode"])
	assert.Equal(t, fmt.Sprintf("http://localhost:3000/api/products/%s", data["productId"]), data["scanUrl"])
}

func TestRegisterProductEndpointValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/products/register", gin.H{
		"manufacturer": "Acme",
		"category":     "Electronics",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "productName")
}

func TestGetProductEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	id := registerOne(t, r, "Widget", "Acme", "Electronics")

	w := doJSON(t, r, http.MethodGet, "/api/products/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, id, data["productId"])
	assert.Equal(t, "Factory A", data["currentLocation"])

	history := data["supplyChainHistory"].([]interface{})
	require.Len(t, history, 1)
	assert.Equal(t, "Product Registered", history[0].(map[string]interface{})["event"])
}

func TestGetProductEndpointNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/products/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestGetProductEndpointSoftDeleted(t *testing.T) {
	r, store := newTestRouter(t)

	id := registerOne(t, r, "Widget", "Acme", "Electronics")
	store.Deactivate(id)

	w := doJSON(t, r, http.MethodGet, "/api/products/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateProductEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	id := registerOne(t, r, "Widget", "Acme", "Electronics")

	w := doJSON(t, r, http.MethodPut, "/api/products/"+id+"/update", gin.H{
		"event":    "Shipped",
		"location": "Port B",
		"details":  "Container 42",
	})
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Port B", data["currentLocation"])
	assert.Equal(t, "registered", data["status"])

	newEvent := data["newEvent"].(map[string]interface{})
	assert.Equal(t, "Shipped", newEvent["event"])
	assert.Equal(t, "Container 42", newEvent["details"])
}

func TestUpdateProductEndpointViaPatch(t *testing.T) {
	r, _ := newTestRouter(t)

	id := registerOne(t, r, "Widget", "Acme", "Electronics")

	w := doJSON(t, r, http.MethodPatch, "/api/products/"+id, gin.H{
		"event":    "Delivered",
		"location": "Customer",
		"status":   "delivered",
	})
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "delivered", data["status"])
	assert.Equal(t, "Customer", data["currentLocation"])
}

func TestUpdateProductEndpointValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	id := registerOne(t, r, "Widget", "Acme", "Electronics")

	w := doJSON(t, r, http.MethodPut, "/api/products/"+id+"/update", gin.H{
		"event": "Shipped",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListProductsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	registerOne(t, r, "Phone", "TechCorp", "Electronics")
	registerOne(t, r, "Laptop", "TechCorp", "Electronics")
	registerOne(t, r, "Shirt", "FashionBrand", "Clothing")

	w := doJSON(t, r, http.MethodGet, "/api/products?manufacturer=TechCorp&limit=1&page=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, float64(2), body["totalCount"])
	assert.Equal(t, float64(1), body["page"])
	assert.Equal(t, float64(2), body["totalPages"])

	items := body["data"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "TechCorp", item["manufacturer"])
	assert.Empty(t, item["qrCode"], "list views omit the QR payload")
}

func TestAnalyticsDashboardEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	registerOne(t, r, "Phone", "TechCorp", "Electronics")
	registerOne(t, r, "Shirt", "FashionBrand", "Clothing")

	w := doJSON(t, r, http.MethodGet, "/api/analytics/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["totalProducts"])

	byCategory := data["byCategory"].(map[string]interface{})
	assert.Equal(t, float64(1), byCategory["Electronics"])
	assert.Equal(t, float64(1), byCategory["Clothing"])
}

func TestAnalyticsSupplyChainEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	registerOne(t, r, "Phone", "TechCorp", "Electronics")

	w := doJSON(t, r, http.MethodGet, "/api/analytics/supply-chain", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]interface{})
	events := data["supplyChainEvents"].([]interface{})
	require.Len(t, events, 1)

	group := events[0].(map[string]interface{})
	assert.Equal(t, "Product Registered", group["event"])
	assert.Equal(t, "Factory A", group["location"])
	assert.Equal(t, float64(1), group["count"])
}

func TestHealthEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{"/", "/api/message", "/api/health", "/api/health/database"} {
		w := doJSON(t, r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
