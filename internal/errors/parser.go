package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/indiancoinstore/coinstore-backend/internal/app/service"
	"github.com/indiancoinstore/coinstore-backend/internal/cart"
	"github.com/indiancoinstore/coinstore-backend/internal/checkout"
	"github.com/indiancoinstore/coinstore-backend/internal/session"
	"github.com/indiancoinstore/coinstore-backend/internal/storage"
	"gorm.io/gorm"
)

// ErrorInfo is what the API reports for an error
type ErrorInfo struct {
	Status  int
	Code    string
	Message string
}

// ParseError turns an error into a safe client response. context names the
// resource being handled, e.g. "product".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalServerError,
			Message: "Something went wrong",
		}
	}

	switch {
	case errors.Is(err, service.ErrProductNotFound):
		return ErrorInfo{http.StatusNotFound, CatalogProductNotFound, "Product not found"}
	case errors.Is(err, service.ErrInvalidSort):
		return ErrorInfo{http.StatusBadRequest, CatalogInvalidSort, "Sort must be one of name, price-low, price-high or newest"}
	case errors.Is(err, cart.ErrInvalidProduct):
		return ErrorInfo{http.StatusBadRequest, CartInvalidProduct, "Product has no id"}
	case errors.Is(err, checkout.ErrEmptyCart):
		return ErrorInfo{http.StatusConflict, CheckoutEmptyCart, "Your cart is empty"}
	case errors.Is(err, checkout.ErrDeliveryFailed):
		return ErrorInfo{http.StatusBadGateway, CheckoutDeliveryFailed, "We could not send your order confirmation. Your cart has been kept, please try again"}
	case errors.Is(err, session.ErrInvalidToken):
		return ErrorInfo{http.StatusUnauthorized, SessionInvalid, "Session is invalid or expired"}
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return ErrorInfo{http.StatusNotFound, ResourceNotFound, getNotFoundMessage(context)}
	}

	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "timeout") {
		return ErrorInfo{
			Status:  http.StatusBadGateway,
			Code:    InternalExternalAPI,
			Message: "An upstream service is unavailable. Please try again shortly",
		}
	}

	return ErrorInfo{
		Status:  http.StatusInternalServerError,
		Code:    InternalServerError,
		Message: "Something went wrong. Please try again shortly",
	}
}

func getNotFoundMessage(context string) string {
	if context == "" {
		return "Not found"
	}
	return strings.ToUpper(context[:1]) + context[1:] + " not found"
}
