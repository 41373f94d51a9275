package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/indiancoinstore/coinstore-backend/internal/app/service"
	"github.com/indiancoinstore/coinstore-backend/internal/cart"
	apperrors "github.com/indiancoinstore/coinstore-backend/internal/errors"
	"github.com/indiancoinstore/coinstore-backend/internal/middleware"
	"github.com/indiancoinstore/coinstore-backend/internal/session"
)

type CartController struct {
	productService service.ProductService
}

func NewCartController(productService service.ProductService) *CartController {
	return &CartController{
		productService: productService,
	}
}

type AddToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// CartResponse is the cart page payload
type CartResponse struct {
	Items   []cart.LineItem `json:"items"`
	Summary cart.Summary    `json:"summary"`
	Phase   string          `json:"phase"`
}

func cartResponse(store *cart.Store) CartResponse {
	st := store.State()
	return CartResponse{
		Items:   st.Items,
		Summary: st.Summary(),
		Phase:   store.Phase().String(),
	}
}

func sessionFrom(c *gin.Context) (*session.Session, bool) {
	s, ok := middleware.GetSession(c)
	if !ok {
		apperrors.Unauthorized(c, apperrors.SessionMissing, "No session attached to request")
		return nil, false
	}
	return s, true
}

// GetCart returns the cart with its summary
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartResponse(s.Cart))
}

// GetSummary returns only the navbar totals
// GET /api/v1/cart/summary
func (ctrl *CartController) GetSummary(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Cart.Summary())
}

// ExportCart returns a timestamped copy of the cart
// GET /api/v1/cart/export
func (ctrl *CartController) ExportCart(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Cart.Export())
}

// GetItem returns how many of a product the cart holds
// GET /api/v1/cart/items/:id
func (ctrl *CartController) GetItem(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Cart.ItemView(c.Param("id")))
}

// AddToCart adds a catalog product. The product is copied into the cart as
// it is now; later catalog changes do not affect the line.
// POST /api/v1/cart/items
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	s, ok := sessionFrom(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := ctrl.productService.GetProductByID(req.ProductID)
	if err != nil {
		apperrors.Respond(c, err, "product")
		return
	}

	if err := s.Cart.AddItem(product, req.Quantity); err != nil {
		apperrors.Respond(c, err, "product")
		return
	}

	log.Info("Product added to cart", map[string]interface{}{
		"session_id": s.ID,
		"product_id": product.ID,
		"quantity":   s.Cart.QuantityOf(product.ID),
	})
	c.JSON(http.StatusOK, cartResponse(s.Cart))
}

// UpdateCartItem sets an exact quantity; 0 or less removes the line
// PUT /api/v1/cart/items/:id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	s, ok := sessionFrom(c)
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid cart update request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationRequired, "quantity is required")
		return
	}

	s.Cart.SetQuantity(c.Param("id"), *req.Quantity)
	c.JSON(http.StatusOK, cartResponse(s.Cart))
}

// IncrementCartItem adds one, up to the per-line maximum
// POST /api/v1/cart/items/:id/increment
func (ctrl *CartController) IncrementCartItem(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		return
	}
	s.Cart.IncrementQuantity(c.Param("id"))
	c.JSON(http.StatusOK, cartResponse(s.Cart))
}

// DecrementCartItem removes one; the line disappears at zero
// POST /api/v1/cart/items/:id/decrement
func (ctrl *CartController) DecrementCartItem(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		return
	}
	s.Cart.DecrementQuantity(c.Param("id"))
	c.JSON(http.StatusOK, cartResponse(s.Cart))
}

// RemoveFromCart drops a line
// DELETE /api/v1/cart/items/:id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		return
	}
	s.Cart.RemoveItem(c.Param("id"))
	c.JSON(http.StatusOK, cartResponse(s.Cart))
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	s, ok := sessionFrom(c)
	if !ok {
		return
	}
	s.Cart.Clear()
	c.JSON(http.StatusOK, cartResponse(s.Cart))
}
