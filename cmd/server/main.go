package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shoaibhasann/zahra/config"
	"github.com/shoaibhasann/zahra/internal/app/controller"
	"github.com/shoaibhasann/zahra/internal/app/repository"
	"github.com/shoaibhasann/zahra/internal/app/service"
	"github.com/shoaibhasann/zahra/internal/db"
	"github.com/shoaibhasann/zahra/internal/middleware"
	"github.com/shoaibhasann/zahra/internal/router"
	"github.com/shoaibhasann/zahra/internal/scheduler"
	"github.com/shoaibhasann/zahra/internal/storage"
	"github.com/shoaibhasann/zahra/pkg/logger"
	"github.com/shoaibhasann/zahra/pkg/mailer"
	"github.com/shoaibhasann/zahra/pkg/redis"
	"github.com/shoaibhasann/zahra/pkg/shiprocket"
	"github.com/shoaibhasann/zahra/pkg/sms"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
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
		Output:      os.Stdout,
		EnableColor: cfg.Server.Environment == "development",
	})

	logger.Info("Starting ZAHRA API server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Initialize Redis
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to initialize Redis", err)
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close Redis", err)
		}
	}()

	database := db.GetDB()

	// Initialize repositories
	userRepo := repository.NewUserRepository(database)
	productRepo := repository.NewProductRepository(database)
	variantRepo := repository.NewVariantRepository(database)
	cartRepo := repository.NewCartRepository(database)
	orderRepo := repository.NewOrderRepository(database)
	reviewRepo := repository.NewReviewRepository(database)
	wishlistRepo := repository.NewWishlistRepository(database)
	addressRepo := repository.NewAddressRepository(database)

	// Initialize outbound integrations
	mail := mailer.NewMailer(&cfg.Email)
	smsSender := sms.NewSender(&cfg.SMS)

	srCfg := shiprocket.Config{
		BaseURL:        cfg.Shiprocket.BaseURL,
		Email:          cfg.Shiprocket.Email,
		Password:       cfg.Shiprocket.Password,
		PickupPincode:  cfg.Shiprocket.PickupPincode,
		TokenLockTTL:   cfg.Shiprocket.TokenLockTTL,
		TokenSafetyGap: cfg.Shiprocket.TokenSafetyGap,
	}
	// The auth-only client performs credential logins for the token
	// provider; the provider then backs the full client.
	srAuth, err := shiprocket.NewClient(srCfg, nil)
	if err != nil {
		logger.Fatal("Failed to initialize Shiprocket auth client", err)
	}
	srTokens := shiprocket.NewTokenProvider(
		shiprocket.NewRedisTokenStore(redis.GetClient()),
		redis.NewLeaseLock(redis.GetClient()),
		srAuth,
		&srCfg,
	)
	srClient, err := shiprocket.NewClient(srCfg, srTokens)
	if err != nil {
		logger.Fatal("Failed to initialize Shiprocket client", err)
	}

	s3Storage := storage.NewS3Storage(
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
		cfg.S3.BaseURL,
	)

	// Initialize services
	stockService := service.NewStockService(variantRepo, productRepo)
	authService := service.NewAuthService(userRepo, mail, smsSender, redis.DailyOTPCounter{}, &cfg.JWT, &cfg.OTP)
	productService := service.NewProductService(productRepo)
	variantService := service.NewVariantService(database, variantRepo, productRepo, stockService)
	cartService := service.NewCartService(database, cartRepo)
	orderService := service.NewOrderService(database, orderRepo, cartRepo, variantRepo, addressRepo, stockService)
	reviewService := service.NewReviewService(reviewRepo, productRepo)
	wishlistService := service.NewWishlistService(wishlistRepo, productRepo)
	addressService := service.NewAddressService(addressRepo)
	exportService := service.NewExportService(productRepo, variantRepo)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	productController := controller.NewProductController(productService, exportService)
	variantController := controller.NewVariantController(variantService)
	cartController := controller.NewCartController(cartService, productService, variantService)
	orderController := controller.NewOrderController(orderService)
	reviewController := controller.NewReviewController(reviewService)
	wishlistController := controller.NewWishlistController(wishlistService)
	addressController := controller.NewAddressController(addressService)
	shippingController := controller.NewShippingController(srClient)
	uploadController := controller.NewUploadController(s3Storage)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Setup router
	r := router.NewRouter(
		authController,
		productController,
		variantController,
		cartController,
		orderController,
		reviewController,
		wishlistController,
		addressController,
		shippingController,
		uploadController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start background maintenance jobs
	maintenance := scheduler.NewMaintenanceScheduler(cartRepo, srTokens)
	maintenance.Start()
	defer maintenance.Stop()

	// Start server in a goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Server listening", map[string]interface{}{
			"address": addr,
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
}
