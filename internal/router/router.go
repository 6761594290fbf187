package router

import (
	"github.com/gin-gonic/gin"
	"github.com/shoaibhasann/zahra/config"
	"github.com/shoaibhasann/zahra/internal/app/controller"
	"github.com/shoaibhasann/zahra/internal/middleware"
)

type Router struct {
	authController     *controller.AuthController
	productController  *controller.ProductController
	variantController  *controller.VariantController
	cartController     *controller.CartController
	orderController    *controller.OrderController
	reviewController   *controller.ReviewController
	wishlistController *controller.WishlistController
	addressController  *controller.AddressController
	shippingController *controller.ShippingController
	uploadController   *controller.UploadController
	authMiddleware     *middleware.AuthMiddleware
	config             *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	productController *controller.ProductController,
	variantController *controller.VariantController,
	cartController *controller.CartController,
	orderController *controller.OrderController,
	reviewController *controller.ReviewController,
	wishlistController *controller.WishlistController,
	addressController *controller.AddressController,
	shippingController *controller.ShippingController,
	uploadController *controller.UploadController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:     authController,
		productController:  productController,
		variantController:  variantController,
		cartController:     cartController,
		orderController:    orderController,
		reviewController:   reviewController,
		wishlistController: wishlistController,
		addressController:  addressController,
		shippingController: shippingController,
		uploadController:   uploadController,
		authMiddleware:     authMiddleware,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "ZAHRA API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/otp/request", r.authController.RequestOTP)
			auth.POST("/otp/verify", r.authController.VerifyOTP)
			auth.POST("/refresh", r.authController.Refresh)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.Me)
		}

		products := v1.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/:id", r.productController.GetProduct)
			products.GET("/:id/variants", r.variantController.ListVariants)
			products.GET("/:id/reviews", r.reviewController.ListReviews)

			products.POST("",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.productController.CreateProduct,
			)
			products.PUT("/:id",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.productController.UpdateProduct,
			)
			products.DELETE("/:id",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.productController.DeleteProduct,
			)
			products.POST("/:id/variants",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.variantController.CreateVariant,
			)
			products.POST("/:id/variants/batch",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.variantController.CreateVariants,
			)
			products.POST("/:id/reviews",
				r.authMiddleware.Authenticate(),
				r.reviewController.CreateReview,
			)
		}

		variants := v1.Group("/variants")
		variants.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole("admin"))
		{
			variants.PUT("/:id", r.variantController.UpdateVariant)
			variants.DELETE("/:id", r.variantController.DeleteVariant)
			variants.POST("/:id/sizes", r.variantController.AddSize)
			variants.PUT("/:id/sizes/:size_id", r.variantController.UpdateSize)
			variants.DELETE("/:id/sizes/:size_id", r.variantController.DeleteSize)
		}

		reviews := v1.Group("/reviews")
		reviews.Use(r.authMiddleware.Authenticate())
		{
			reviews.PUT("/:id", r.reviewController.UpdateReview)
			reviews.DELETE("/:id", r.reviewController.DeleteReview)
		}

		// Carts work for guests too; optional auth resolves the owner.
		cart := v1.Group("/cart")
		cart.Use(r.authMiddleware.OptionalAuthenticate())
		{
			cart.GET("", r.cartController.GetCart)
			cart.POST("/items", r.cartController.AddItem)
			cart.PATCH("/items/:id/decrement", r.cartController.DecrementItem)
			cart.DELETE("", r.cartController.ClearCart)
			cart.POST("/merge", r.cartController.MergeGuestCart)
		}

		orders := v1.Group("/orders")
		orders.Use(r.authMiddleware.Authenticate())
		{
			orders.GET("", r.orderController.ListMyOrders)
			orders.GET("/:id", r.orderController.GetOrder)
			orders.POST("", r.orderController.Checkout)
			orders.POST("/:id/cancel", r.orderController.CancelOrder)
		}

		wishlist := v1.Group("/wishlist")
		wishlist.Use(r.authMiddleware.Authenticate())
		{
			wishlist.GET("", r.wishlistController.ListWishlist)
			wishlist.POST("/:product_id/toggle", r.wishlistController.ToggleWishlist)
			wishlist.DELETE("/:product_id", r.wishlistController.RemoveFromWishlist)
		}

		addresses := v1.Group("/addresses")
		addresses.Use(r.authMiddleware.Authenticate())
		{
			addresses.GET("", r.addressController.ListAddresses)
			addresses.POST("", r.addressController.CreateAddress)
			addresses.PUT("/:id", r.addressController.UpdateAddress)
			addresses.DELETE("/:id", r.addressController.DeleteAddress)
		}

		shipping := v1.Group("/shipping")
		{
			shipping.GET("/serviceability", r.shippingController.CheckServiceability)
			shipping.GET("/track/:awb", r.shippingController.TrackShipment)
		}

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole("admin"))
		{
			admin.GET("/orders", r.orderController.ListOrders)
			admin.PATCH("/orders/:id/status", r.orderController.UpdateStatus)
			admin.PATCH("/orders/:id/shipment", r.orderController.AttachShipment)
			admin.GET("/products/export", r.productController.ExportCatalog)
			admin.POST("/uploads/presigned-url", r.uploadController.GeneratePresignedURL)
			admin.DELETE("/uploads", r.uploadController.DeleteUpload)
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
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Guest-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Guest-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
