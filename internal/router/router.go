package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/indiancoinstore/coinstore-backend/config"
	"github.com/indiancoinstore/coinstore-backend/internal/app/controller"
	"github.com/indiancoinstore/coinstore-backend/internal/middleware"
)

type Router struct {
	productController      *controller.ProductController
	cartController         *controller.CartController
	checkoutController     *controller.CheckoutController
	invoiceController      *controller.InvoiceController
	notificationController *controller.NotificationController
	sessionMiddleware      *middleware.SessionMiddleware
	metricsHandler         http.Handler
	config                 *config.Config
}

func NewRouter(
	productController *controller.ProductController,
	cartController *controller.CartController,
	checkoutController *controller.CheckoutController,
	invoiceController *controller.InvoiceController,
	notificationController *controller.NotificationController,
	sessionMiddleware *middleware.SessionMiddleware,
	metricsHandler http.Handler,
	cfg *config.Config,
) *Router {
	return &Router{
		productController:      productController,
		cartController:         cartController,
		checkoutController:     checkoutController,
		invoiceController:      invoiceController,
		notificationController: notificationController,
		sessionMiddleware:      sessionMiddleware,
		metricsHandler:         metricsHandler,
		config:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": r.config.Shop.Name + " API is running",
		})
	})
	if r.metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(r.metricsHandler))
	}

	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", r.productController.GetAllProducts)
			products.GET("/categories", r.productController.GetCategories)
			products.GET("/featured", r.productController.GetFeaturedProducts)
			products.GET("/export", r.productController.ExportCatalog)
			products.GET("/:id", r.productController.GetProductByID)
		}

		v1.POST("/invoices", r.invoiceController.DownloadInvoice)

		shopper := v1.Group("")
		shopper.Use(r.sessionMiddleware.Attach())
		{
			cart := shopper.Group("/cart")
			{
				cart.GET("", r.cartController.GetCart)
				cart.DELETE("", r.cartController.ClearCart)
				cart.GET("/summary", r.cartController.GetSummary)
				cart.GET("/export", r.cartController.ExportCart)
				cart.POST("/items", r.cartController.AddToCart)
				cart.GET("/items/:id", r.cartController.GetItem)
				cart.PUT("/items/:id", r.cartController.UpdateCartItem)
				cart.DELETE("/items/:id", r.cartController.RemoveFromCart)
				cart.POST("/items/:id/increment", r.cartController.IncrementCartItem)
				cart.POST("/items/:id/decrement", r.cartController.DecrementCartItem)
			}

			shopper.POST("/checkout", r.checkoutController.Checkout)

			notifications := shopper.Group("/notifications")
			{
				notifications.GET("/current", r.notificationController.GetCurrent)
				notifications.DELETE("/current", r.notificationController.Dismiss)
			}

			shopper.GET("/ws", r.notificationController.Connect)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Accept, Origin, Cache-Control, X-Requested-With, "+middleware.SessionHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", middleware.SessionHeader+", "+middleware.RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
