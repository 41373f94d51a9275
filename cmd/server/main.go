package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/indiancoinstore/coinstore-backend/config"
	"github.com/indiancoinstore/coinstore-backend/internal/app/controller"
	"github.com/indiancoinstore/coinstore-backend/internal/app/service"
	"github.com/indiancoinstore/coinstore-backend/internal/checkout"
	"github.com/indiancoinstore/coinstore-backend/internal/invoice"
	"github.com/indiancoinstore/coinstore-backend/internal/metrics"
	"github.com/indiancoinstore/coinstore-backend/internal/middleware"
	"github.com/indiancoinstore/coinstore-backend/internal/router"
	"github.com/indiancoinstore/coinstore-backend/internal/scheduler"
	"github.com/indiancoinstore/coinstore-backend/internal/session"
	"github.com/indiancoinstore/coinstore-backend/internal/websocket"
	"github.com/indiancoinstore/coinstore-backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting Indian Coin Store Backend Server", map[string]interface{}{
		"environment":  cfg.Server.Environment,
		"port":         cfg.Server.Port,
		"log_level":    logLevel,
		"cart_storage": cfg.Storage.Backend,
	})

	// Cart storage
	st, closeStorage, err := openStorage(cfg)
	if err != nil {
		logger.Fatal("Failed to open cart storage", err, map[string]interface{}{
			"backend": cfg.Storage.Backend,
		})
	}
	defer closeStorage()

	// Catalog
	products, err := loadCatalog(cfg.Catalog)
	if err != nil {
		logger.Fatal("Failed to load catalog", err)
	}
	logger.Info("Catalog loaded", map[string]interface{}{
		"products": products.Len(),
		"source":   catalogSource(cfg.Catalog),
	})

	// Metrics and realtime hub
	m := metrics.New(nil)
	hub := websocket.NewHub()

	// Sessions
	registry := session.NewRegistry(st, cfg.Storage.KeyPrefix,
		session.WithPublisher(hub),
		session.WithObserver(m),
		session.WithStorageTimeout(cfg.Storage.Timeout),
	)
	hub.SetHandler(registry.HandleClientMessage)
	go hub.Run()

	tokens := session.NewTokenIssuer(cfg.Session.Secret, cfg.Session.TokenExpiry)

	sweeper := scheduler.NewSessionSweeper(registry, cfg.Session.SweepSchedule, cfg.Session.IdleTTL)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start session sweeper", err)
	}

	// Initialize services
	productService := service.NewProductService(products, nil)
	invoices := invoice.NewGenerator(cfg.Shop.Name, cfg.Shop.Tagline)
	sender := checkout.NewSendGridSender(cfg.Mail.SendGridAPIKey, cfg.Mail.FromEmail, cfg.Mail.FromName)
	if cfg.Mail.SendGridAPIKey == "" {
		logger.Warn("SENDGRID_API_KEY is not set, checkout emails will fail")
	}
	checkoutService := checkout.NewService(checkout.Config{
		ShopName:    cfg.Shop.Name,
		OrderPrefix: cfg.Shop.OrderPrefix,
		OwnerEmail:  cfg.Mail.OwnerEmail,
	}, sender, invoices, checkout.WithRecorder(m))

	// Initialize controllers
	productController := controller.NewProductController(productService, products)
	cartController := controller.NewCartController(productService)
	checkoutController := controller.NewCheckoutController(checkoutService)
	invoiceController := controller.NewInvoiceController(invoices)
	notificationController := controller.NewNotificationController(hub)

	// Initialize middleware
	sessionMiddleware := middleware.NewSessionMiddleware(tokens, registry, cfg.Session.CookieName, cfg.Session.TokenExpiry)

	// Setup router
	r := router.NewRouter(
		productController,
		cartController,
		checkoutController,
		invoiceController,
		notificationController,
		sessionMiddleware,
		m.Handler(),
		cfg,
	)
	engine := r.Setup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	sweeper.Stop()
	// writes every live cart before storage closes
	registry.Close()
	hub.Stop()

	logger.Info("Server stopped successfully")
}
