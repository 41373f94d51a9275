package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/indiancoinstore/coinstore-backend/internal/app/model"
	"github.com/indiancoinstore/coinstore-backend/internal/checkout"
	apperrors "github.com/indiancoinstore/coinstore-backend/internal/errors"
	"github.com/indiancoinstore/coinstore-backend/internal/middleware"
)

// CartPath is where shoppers are sent when they try to check out nothing
const CartPath = "/api/v1/cart"

type CheckoutController struct {
	checkoutService *checkout.Service
}

func NewCheckoutController(checkoutService *checkout.Service) *CheckoutController {
	return &CheckoutController{
		checkoutService: checkoutService,
	}
}

// Checkout places the order for the session's cart and emails the
// confirmation with the invoice attached
// POST /api/v1/checkout
func (ctrl *CheckoutController) Checkout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	s, ok := sessionFrom(c)
	if !ok {
		return
	}

	if s.Cart.Summary().IsEmpty {
		log.Info("Checkout with empty cart, redirecting", map[string]interface{}{
			"session_id": s.ID,
		})
		c.Redirect(http.StatusSeeOther, CartPath)
		return
	}

	// decoded only; Submit trims and then validates
	var customer model.Customer
	if err := json.NewDecoder(c.Request.Body).Decode(&customer); err != nil {
		log.Warn("Invalid checkout request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Request body must be a JSON object")
		return
	}

	order, err := ctrl.checkoutService.Submit(c.Request.Context(), s.Cart, s.Notifier, customer)
	if err != nil {
		var verr *checkout.ValidationError
		switch {
		case errors.As(err, &verr):
			apperrors.RespondWithValidationError(c, verr.Fields)
		case errors.Is(err, checkout.ErrEmptyCart):
			c.Redirect(http.StatusSeeOther, CartPath)
		default:
			log.Error("Checkout failed", err, map[string]interface{}{
				"session_id": s.ID,
			})
			apperrors.Respond(c, err, "order")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order":        order,
		"notification": s.Notifier.Current(),
	})
}
