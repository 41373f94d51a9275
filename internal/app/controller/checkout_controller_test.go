package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/indiancoinstore/coinstore-backend/internal/app/model"
	"github.com/indiancoinstore/coinstore-backend/internal/checkout"
	"github.com/indiancoinstore/coinstore-backend/internal/invoice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg checkout.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func setupCheckoutControllerTest(t *testing.T) (*testEnv, *MockSender) {
	env := setupCartControllerTest(t)
	sender := new(MockSender)
	svc := checkout.NewService(
		checkout.Config{ShopName: "Indian Coin Store", OrderPrefix: "ICS"},
		sender,
		invoice.NewGenerator("Indian Coin Store", "Preserving History"),
		checkout.WithClock(func() time.Time { return time.UnixMilli(1700000000000) }),
	)
	ctrl := NewCheckoutController(svc)
	env.shopper().POST("/checkout", ctrl.Checkout)
	return env, sender
}

func validCustomer() model.Customer {
	return model.Customer{
		Name:    "Asha Rao",
		Email:   "asha@example.com",
		Phone:   "9876543210",
		Address: "12 MG Road, Indiranagar",
		City:    "Bengaluru",
	}
}

func TestCheckoutController_Success(t *testing.T) {
	env, sender := setupCheckoutControllerTest(t)
	token, _ := env.newToken(t)
	env.do(t, http.MethodPost, "/api/v1/cart/items", token, AddToCartRequest{ProductID: "2", Quantity: 2})
	sender.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	w := env.do(t, http.MethodPost, "/api/v1/checkout", token, validCustomer())
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Order        model.Order `json:"order"`
		Notification struct {
			Type string            `json:"type"`
			Data map[string]string `json:"data"`
		} `json:"notification"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ICS1700000000000", resp.Order.OrderNumber)
	assert.Equal(t, 31000.0, resp.Order.TotalAmount)
	assert.Equal(t, "orderSuccess", resp.Notification.Type)
	assert.Equal(t, "ICS1700000000000", resp.Notification.Data["orderNumber"])

	w = env.do(t, http.MethodGet, "/api/v1/cart", token, nil)
	assert.Empty(t, decodeCart(t, w).Items)
	sender.AssertExpectations(t)
}

func TestCheckoutController_EmptyCartRedirects(t *testing.T) {
	env, sender := setupCheckoutControllerTest(t)
	token, _ := env.newToken(t)

	w := env.do(t, http.MethodPost, "/api/v1/checkout", token, validCustomer())

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, CartPath, w.Header().Get("Location"))
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestCheckoutController_ValidationErrors(t *testing.T) {
	env, sender := setupCheckoutControllerTest(t)
	token, _ := env.newToken(t)
	env.do(t, http.MethodPost, "/api/v1/cart/items", token, AddToCartRequest{ProductID: "2"})

	customer := validCustomer()
	customer.Phone = "12345"
	customer.Email = "nope"
	w := env.do(t, http.MethodPost, "/api/v1/checkout", token, customer)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_INVALID_INPUT", resp.Error)
	assert.Equal(t, "Phone number must be 10 digits", resp.Fields["phone"])
	assert.Equal(t, "Invalid email address", resp.Fields["email"])
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestCheckoutController_DeliveryFailureKeepsCart(t *testing.T) {
	env, sender := setupCheckoutControllerTest(t)
	token, _ := env.newToken(t)
	env.do(t, http.MethodPost, "/api/v1/cart/items", token, AddToCartRequest{ProductID: "2"})
	sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("status=401")).Once()

	w := env.do(t, http.MethodPost, "/api/v1/checkout", token, validCustomer())

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "CHECKOUT_DELIVERY_FAILED")
	w = env.do(t, http.MethodGet, "/api/v1/cart", token, nil)
	assert.Len(t, decodeCart(t, w).Items, 1)
}

func TestCheckoutController_TrimsBeforeValidating(t *testing.T) {
	env, sender := setupCheckoutControllerTest(t)
	token, _ := env.newToken(t)
	env.do(t, http.MethodPost, "/api/v1/cart/items", token, AddToCartRequest{ProductID: "2", Quantity: 1})
	sender.On("Send", mock.Anything, mock.MatchedBy(func(msg checkout.Message) bool {
		return msg.To == "asha@example.com"
	})).Return(nil).Once()

	customer := validCustomer()
	customer.Phone = "9876543210 "
	customer.Email = "  asha@example.com"
	w := env.do(t, http.MethodPost, "/api/v1/checkout", token, customer)

	require.Equal(t, http.StatusCreated, w.Code)
	sender.AssertExpectations(t)
}

func TestCheckoutController_RejectsMalformedBody(t *testing.T) {
	env, _ := setupCheckoutControllerTest(t)
	token, _ := env.newToken(t)
	env.do(t, http.MethodPost, "/api/v1/cart/items", token, AddToCartRequest{ProductID: "2", Quantity: 1})

	w := env.do(t, http.MethodPost, "/api/v1/checkout", token, []string{"not", "an", "object"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_INVALID_FORMAT")
}
