package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/indiancoinstore/coinstore-backend/internal/app/service"
	"github.com/indiancoinstore/coinstore-backend/internal/cart"
	"github.com/indiancoinstore/coinstore-backend/internal/checkout"
	"github.com/indiancoinstore/coinstore-backend/internal/storage"
	"github.com/stretchr/testify/assert"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"nil", nil, http.StatusInternalServerError, InternalServerError},
		{"product", service.ErrProductNotFound, http.StatusNotFound, CatalogProductNotFound},
		{"sort", service.ErrInvalidSort, http.StatusBadRequest, CatalogInvalidSort},
		{"cart product", fmt.Errorf("add: %w", cart.ErrInvalidProduct), http.StatusBadRequest, CartInvalidProduct},
		{"empty cart", checkout.ErrEmptyCart, http.StatusConflict, CheckoutEmptyCart},
		{"delivery", fmt.Errorf("%w: 401", checkout.ErrDeliveryFailed), http.StatusBadGateway, CheckoutDeliveryFailed},
		{"storage", storage.ErrNotFound, http.StatusNotFound, ResourceNotFound},
		{"network", errors.New("dial tcp: connection refused"), http.StatusBadGateway, InternalExternalAPI},
		{"other", errors.New("boom"), http.StatusInternalServerError, InternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, "product")
			assert.Equal(t, tt.status, info.Status)
			assert.Equal(t, tt.code, info.Code)
			assert.NotEmpty(t, info.Message)
		})
	}
}

func TestGetNotFoundMessage(t *testing.T) {
	assert.Equal(t, "Invoice not found", getNotFoundMessage("invoice"))
	assert.Equal(t, "Not found", getNotFoundMessage(""))
}
