package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/indiancoinstore/coinstore-backend/internal/app/service"
	"github.com/indiancoinstore/coinstore-backend/internal/catalog"
	apperrors "github.com/indiancoinstore/coinstore-backend/internal/errors"
	"github.com/indiancoinstore/coinstore-backend/internal/invoice"
	"github.com/indiancoinstore/coinstore-backend/internal/middleware"
)

const defaultFeaturedCount = 4

type ProductController struct {
	productService service.ProductService
	catalog        *catalog.Catalog
}

func NewProductController(productService service.ProductService, c *catalog.Catalog) *ProductController {
	return &ProductController{
		productService: productService,
		catalog:        c,
	}
}

// GetAllProducts lists the catalog
// GET /api/v1/products?category=Mughal&search=rupee&sort=price-low
func (ctrl *ProductController) GetAllProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	products, err := ctrl.productService.ListProducts(service.ProductListOptions{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Sort:     service.ProductSort(c.Query("sort")),
	})
	if err != nil {
		log.Warn("Failed to list products", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.Respond(c, err, "product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GetProductByID returns one product
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProductByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	id := c.Param("id")

	product, err := ctrl.productService.GetProductByID(id)
	if err != nil {
		log.Warn("Product lookup failed", map[string]interface{}{
			"product_id": id,
		})
		apperrors.Respond(c, err, "product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// GetCategories returns the category filter options, "All" first
// GET /api/v1/products/categories
func (ctrl *ProductController) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories": ctrl.productService.GetCategories(),
	})
}

// GetFeaturedProducts returns a random selection for the home page
// GET /api/v1/products/featured?limit=4
func (ctrl *ProductController) GetFeaturedProducts(c *gin.Context) {
	limit := defaultFeaturedCount
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "limit must be a positive number")
			return
		}
		limit = n
	}

	products := ctrl.productService.GetFeaturedProducts(limit)
	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// ExportCatalog downloads the catalog as a workbook that LoadXLSX accepts
// GET /api/v1/products/export
func (ctrl *ProductController) ExportCatalog(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	f, err := catalog.ExportXLSX(ctrl.catalog)
	if err != nil {
		log.Error("Failed to export catalog", err)
		apperrors.InternalError(c, "")
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		log.Error("Failed to write catalog workbook", err)
		apperrors.InternalError(c, "")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="catalog.xlsx"`)
	c.Data(http.StatusOK, invoice.ContentType, buf.Bytes())
}
