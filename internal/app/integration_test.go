package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/indiancoinstore/coinstore-backend/config"
	"github.com/indiancoinstore/coinstore-backend/internal/app/controller"
	"github.com/indiancoinstore/coinstore-backend/internal/app/repository"
	"github.com/indiancoinstore/coinstore-backend/internal/app/service"
	"github.com/indiancoinstore/coinstore-backend/internal/catalog"
	"github.com/indiancoinstore/coinstore-backend/internal/checkout"
	"github.com/indiancoinstore/coinstore-backend/internal/db"
	"github.com/indiancoinstore/coinstore-backend/internal/invoice"
	"github.com/indiancoinstore/coinstore-backend/internal/metrics"
	"github.com/indiancoinstore/coinstore-backend/internal/middleware"
	"github.com/indiancoinstore/coinstore-backend/internal/router"
	"github.com/indiancoinstore/coinstore-backend/internal/session"
	"github.com/indiancoinstore/coinstore-backend/internal/websocket"
	"github.com/indiancoinstore/coinstore-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordingSender keeps every message instead of mailing it
type recordingSender struct {
	mu   sync.Mutex
	sent []checkout.Message
}

func (s *recordingSender) Send(_ context.Context, msg checkout.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

type TestServer struct {
	Router   *gin.Engine
	DB       *gorm.DB
	Registry *session.Registry
	Carts    *repository.CartSnapshotRepository
	Tokens   *session.TokenIssuer
	Sender   *recordingSender
}

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)

	// Setup database
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	carts := repository.NewCartSnapshotRepository(testDB)
	products, err := catalog.Default()
	require.NoError(t, err)

	// Setup sessions
	quiet := logger.New(logger.Config{Level: "disabled", Output: io.Discard})
	m := metrics.New(nil)
	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	registry := session.NewRegistry(carts, "indianCoinCart",
		session.WithPublisher(hub),
		session.WithObserver(m),
		session.WithLogger(quiet),
	)
	t.Cleanup(registry.Close)
	hub.SetHandler(registry.HandleClientMessage)
	tokens := session.NewTokenIssuer("integration-secret", time.Hour)

	// Setup services
	productService := service.NewProductService(products, rand.New(rand.NewSource(3)))
	invoices := invoice.NewGenerator("Indian Coin Store", "Preserving History")
	sender := &recordingSender{}
	checkoutService := checkout.NewService(checkout.Config{
		ShopName:    "Indian Coin Store",
		OrderPrefix: "ICS",
		OwnerEmail:  "owner@indiancoinstore.in",
	}, sender, invoices, checkout.WithRecorder(m))

	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
		Shop:   config.ShopConfig{Name: "Indian Coin Store"},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
	r := router.NewRouter(
		controller.NewProductController(productService, products),
		controller.NewCartController(productService),
		controller.NewCheckoutController(checkoutService),
		controller.NewInvoiceController(invoices),
		controller.NewNotificationController(hub),
		middleware.NewSessionMiddleware(tokens, registry, "coin_session", time.Hour),
		m.Handler(),
		cfg,
	)

	return &TestServer{
		Router:   r.Setup(),
		DB:       testDB,
		Registry: registry,
		Carts:    carts,
		Tokens:   tokens,
		Sender:   sender,
	}
}

func (ts *TestServer) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
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
	ts.Router.ServeHTTP(w, req)
	return w
}

func TestCompleteShopperJourney(t *testing.T) {
	ts := setupIntegrationTest(t)

	// 1. Browse products
	t.Log("Step 1: Browse products")
	w := ts.request(t, http.MethodGet, "/api/v1/products?category=Ancient&sort=price-low", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var productsResp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &productsResp))
	assert.NotEmpty(t, productsResp["products"])

	// 2. Add to cart without a session, one is issued
	t.Log("Step 2: Add to cart")
	w = ts.request(t, http.MethodPost, "/api/v1/cart/items", "", map[string]interface{}{
		"product_id": "1",
		"quantity":   2,
	})
	require.Equal(t, http.StatusOK, w.Code)
	token := w.Header().Get(middleware.SessionHeader)
	require.NotEmpty(t, token)

	w = ts.request(t, http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{
		"product_id": "2",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// 3. Cart survives the session leaving memory
	t.Log("Step 3: Restore cart from storage")
	sessionID := sessionIDFor(t, ts, token)
	require.True(t, ts.Registry.Evict(sessionID))
	count, err := ts.Carts.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	w = ts.request(t, http.MethodGet, "/api/v1/cart/summary", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, float64(3), summary["total_items"])
	assert.Equal(t, float64(374500), summary["total_price"])
	assert.Equal(t, "₹3,74,500", summary["formatted_total"])

	// 4. Check out
	t.Log("Step 4: Checkout")
	w = ts.request(t, http.MethodPost, "/api/v1/checkout", token, map[string]string{
		"name":    "Asha Rao",
		"email":   "asha@example.com",
		"phone":   "9876543210",
		"address": "12 MG Road, Indiranagar",
		"city":    "Bengaluru",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var checkoutResp struct {
		Order json.RawMessage `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &checkoutResp))

	require.Len(t, ts.Sender.sent, 2)
	customerMail := ts.Sender.sent[0]
	assert.Equal(t, "asha@example.com", customerMail.To)
	require.Len(t, customerMail.Attachments, 1)
	assert.Equal(t, invoice.ContentType, customerMail.Attachments[0].ContentType)
	assert.Equal(t, "owner@indiancoinstore.in", ts.Sender.sent[1].To)

	// 5. Cart is empty and the banner shows
	t.Log("Step 5: Confirmation")
	w = ts.request(t, http.MethodGet, "/api/v1/cart", token, nil)
	assert.Contains(t, w.Body.String(), `"items":[]`)

	w = ts.request(t, http.MethodGet, "/api/v1/notifications/current", token, nil)
	assert.Contains(t, w.Body.String(), `"type":"orderSuccess"`)

	// 6. Download the invoice again
	t.Log("Step 6: Download invoice")
	w = ts.request(t, http.MethodPost, "/api/v1/invoices", "", map[string]interface{}{
		"order": checkoutResp.Order,
		"customer": map[string]string{
			"name":    "Asha Rao",
			"email":   "asha@example.com",
			"phone":   "9876543210",
			"address": "12 MG Road, Indiranagar",
			"city":    "Bengaluru",
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, invoice.ContentType, w.Header().Get("Content-Type"))

	// 7. Checking out again is sent back to the cart
	w = ts.request(t, http.MethodPost, "/api/v1/checkout", token, map[string]string{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func sessionIDFor(t *testing.T, ts *TestServer, token string) string {
	t.Helper()
	id, err := ts.Tokens.Parse(token)
	require.NoError(t, err)
	return id
}
