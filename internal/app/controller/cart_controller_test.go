package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/indiancoinstore/coinstore-backend/internal/app/model"
	"github.com/indiancoinstore/coinstore-backend/internal/app/service"
	"github.com/indiancoinstore/coinstore-backend/internal/catalog"
	"github.com/indiancoinstore/coinstore-backend/internal/middleware"
	"github.com/indiancoinstore/coinstore-backend/internal/session"
	"github.com/indiancoinstore/coinstore-backend/internal/storage"
	"github.com/indiancoinstore/coinstore-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router   *gin.Engine
	tokens   *session.TokenIssuer
	registry *session.Registry
	storage  *storage.MemoryStorage
	catalog  *catalog.Catalog
	products service.ProductService
}

func setupControllerTest(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	c, err := catalog.New([]model.Product{
		{ID: "1", Name: "Gupta Dinar", Price: 185000, Period: "Gupta Empire", Metal: "Gold", Category: model.CategoryAncient},
		{ID: "2", Name: "Akbar Rupee", Price: 15500, Period: "Mughal Empire", Metal: "Silver", Category: model.CategoryMughal},
		{ID: "8", Name: "Jahangir Zodiac Mohur", Price: 450000, Period: "Mughal Empire", Metal: "Gold", Category: model.CategoryMughal},
	})
	require.NoError(t, err)

	st := storage.NewMemoryStorage()
	quiet := logger.New(logger.Config{Level: "disabled", Output: io.Discard})
	registry := session.NewRegistry(st, "indianCoinCart", session.WithLogger(quiet))
	t.Cleanup(registry.Close)
	tokens := session.NewTokenIssuer("test-secret-key-for-controllers", time.Hour)

	env := &testEnv{
		router:   gin.New(),
		tokens:   tokens,
		registry: registry,
		storage:  st,
		catalog:  c,
		products: service.NewProductService(c, rand.New(rand.NewSource(7))),
	}
	env.router.Use(middleware.LoggingMiddleware())
	return env
}

// shopper returns a route group that attaches sessions
func (e *testEnv) shopper() *gin.RouterGroup {
	mw := middleware.NewSessionMiddleware(e.tokens, e.registry, "coin_session", time.Hour)
	return e.router.Group("/api/v1", mw.Attach())
}

func (e *testEnv) newToken(t *testing.T) (string, string) {
	t.Helper()
	token, id, err := e.tokens.Issue()
	require.NoError(t, err)
	return token, id
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.SessionHeader, token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func setupCartControllerTest(t *testing.T) *testEnv {
	env := setupControllerTest(t)
	ctrl := NewCartController(env.products)
	g := env.shopper()
	g.GET("/cart", ctrl.GetCart)
	g.DELETE("/cart", ctrl.ClearCart)
	g.GET("/cart/summary", ctrl.GetSummary)
	g.GET("/cart/export", ctrl.ExportCart)
	g.POST("/cart/items", ctrl.AddToCart)
	g.GET("/cart/items/:id", ctrl.GetItem)
	g.PUT("/cart/items/:id", ctrl.UpdateCartItem)
	g.DELETE("/cart/items/:id", ctrl.RemoveFromCart)
	g.POST("/cart/items/:id/increment", ctrl.IncrementCartItem)
	g.POST("/cart/items/:id/decrement", ctrl.DecrementCartItem)
	return env
}

func decodeCart(t *testing.T, w *httptest.ResponseRecorder) CartResponse {
	t.Helper()
	var resp CartResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCartController_GetCart_NewSession(t *testing.T) {
	env := setupCartControllerTest(t)

	w := env.do(t, http.MethodGet, "/api/v1/cart", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.SessionHeader))
	resp := decodeCart(t, w)
	assert.Empty(t, resp.Items)
	assert.True(t, resp.Summary.IsEmpty)
	assert.Equal(t, "ready", resp.Phase)
	assert.JSONEq(t, `[]`, string(mustField(t, w.Body.Bytes(), "items")))
}

func TestCartController_AddToCart(t *testing.T) {
	env := setupCartControllerTest(t)
	token, _ := env.newToken(t)

	w := env.do(t, http.MethodPost, "/api/v1/cart/items", token, AddToCartRequest{ProductID: "8"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/cart/items", token, AddToCartRequest{ProductID: "8", Quantity: 12})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeCart(t, w)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 10, resp.Items[0].Quantity)
	assert.Equal(t, "Jahangir Zodiac Mohur", resp.Items[0].Name)
	assert.Equal(t, 4500000.0, resp.Summary.TotalPrice)
	assert.Equal(t, "₹45,00,000", resp.Summary.FormattedTotal)
}

func TestCartController_AddToCart_Errors(t *testing.T) {
	env := setupCartControllerTest(t)
	token, _ := env.newToken(t)

	w := env.do(t, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/cart/items", token, AddToCartRequest{ProductID: "999"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "CATALOG_PRODUCT_NOT_FOUND")
}

func TestCartController_QuantityOperations(t *testing.T) {
	env := setupCartControllerTest(t)
	token, _ := env.newToken(t)

	env.do(t, http.MethodPost, "/api/v1/cart/items", token, AddToCartRequest{ProductID: "2", Quantity: 2})
	env.do(t, http.MethodPost, "/api/v1/cart/items", token, AddToCartRequest{ProductID: "1"})

	w := env.do(t, http.MethodPost, "/api/v1/cart/items/2/increment", token, nil)
	assert.Equal(t, 3, decodeCart(t, w).Items[0].Quantity)

	w = env.do(t, http.MethodPut, "/api/v1/cart/items/2", token, map[string]int{"quantity": 7})
	assert.Equal(t, 7, decodeCart(t, w).Items[0].Quantity)

	w = env.do(t, http.MethodPost, "/api/v1/cart/items/1/decrement", token, nil)
	resp := decodeCart(t, w)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "2", resp.Items[0].ID)

	w = env.do(t, http.MethodGet, "/api/v1/cart/items/2", token, nil)
	assert.JSONEq(t, `{"id":"2","quantity":7,"in_cart":true}`, w.Body.String())

	w = env.do(t, http.MethodPut, "/api/v1/cart/items/2", token, map[string]int{"quantity": 0})
	assert.Empty(t, decodeCart(t, w).Items)
}

func TestCartController_UpdateRequiresQuantity(t *testing.T) {
	env := setupCartControllerTest(t)
	token, _ := env.newToken(t)

	w := env.do(t, http.MethodPut, "/api/v1/cart/items/2", token, map[string]int{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartController_RemoveAndClear(t *testing.T) {
	env := setupCartControllerTest(t)
	token, _ := env.newToken(t)

	env.do(t, http.MethodPost, "/api/v1/cart/items", token, AddToCartRequest{ProductID: "2"})
	env.do(t, http.MethodPost, "/api/v1/cart/items", token, AddToCartRequest{ProductID: "1"})

	w := env.do(t, http.MethodDelete, "/api/v1/cart/items/2", token, nil)
	assert.Len(t, decodeCart(t, w).Items, 1)

	w = env.do(t, http.MethodDelete, "/api/v1/cart", token, nil)
	assert.True(t, decodeCart(t, w).Summary.IsEmpty)
}

func TestCartController_SummaryAndExport(t *testing.T) {
	env := setupCartControllerTest(t)
	token, _ := env.newToken(t)
	env.do(t, http.MethodPost, "/api/v1/cart/items", token, AddToCartRequest{ProductID: "2", Quantity: 3})

	w := env.do(t, http.MethodGet, "/api/v1/cart/summary", token, nil)
	assert.JSONEq(t, `{"total_items":3,"total_price":46500,"item_count":1,"is_empty":false,"formatted_total":"₹46,500"}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/cart/export", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"timestamp"`)
}

func TestCartController_CartPersistsAcrossEviction(t *testing.T) {
	env := setupCartControllerTest(t)
	token, id := env.newToken(t)
	env.do(t, http.MethodPost, "/api/v1/cart/items", token, AddToCartRequest{ProductID: "8", Quantity: 2})

	require.True(t, env.registry.Evict(id))

	w := env.do(t, http.MethodGet, "/api/v1/cart", token, nil)
	resp := decodeCart(t, w)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 2, resp.Items[0].Quantity)
}

func TestCartController_SessionsAreSeparate(t *testing.T) {
	env := setupCartControllerTest(t)
	alice, _ := env.newToken(t)
	bob, _ := env.newToken(t)

	env.do(t, http.MethodPost, "/api/v1/cart/items", alice, AddToCartRequest{ProductID: "8"})

	w := env.do(t, http.MethodGet, "/api/v1/cart", bob, nil)
	assert.Empty(t, decodeCart(t, w).Items)
}

func mustField(t *testing.T, body []byte, field string) json.RawMessage {
	t.Helper()
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &raw))
	return raw[field]
}
