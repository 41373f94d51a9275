package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/indiancoinstore/coinstore-backend/internal/app/model"
	apperrors "github.com/indiancoinstore/coinstore-backend/internal/errors"
	"github.com/indiancoinstore/coinstore-backend/internal/invoice"
	"github.com/indiancoinstore/coinstore-backend/internal/middleware"
)

type InvoiceController struct {
	generator *invoice.Generator
}

func NewInvoiceController(generator *invoice.Generator) *InvoiceController {
	return &InvoiceController{generator: generator}
}

// InvoiceRequest carries the order returned by checkout, so the confirmation
// page can download its invoice again. Orders are not stored server side.
type InvoiceRequest struct {
	Order    model.Order    `json:"order" binding:"required"`
	Customer model.Customer `json:"customer" binding:"required"`
}

// DownloadInvoice renders an order as an XLSX invoice
// POST /api/v1/invoices
func (ctrl *InvoiceController) DownloadInvoice(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid invoice request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "order and customer are required")
		return
	}
	if req.Order.OrderNumber == "" || len(req.Order.Items) == 0 {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "order must have a number and at least one item")
		return
	}
	if req.Order.Date.IsZero() {
		req.Order.Date = time.Now()
	}

	data, err := ctrl.generator.Generate(req.Order, req.Customer)
	if err != nil {
		log.Error("Failed to generate invoice", err, map[string]interface{}{
			"order_number": req.Order.OrderNumber,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+invoice.Filename(req.Order.OrderNumber)+`"`)
	c.Data(http.StatusOK, invoice.ContentType, data)
}
