package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shoaibhasann/zahra/internal/app/repository"
	"github.com/shoaibhasann/zahra/internal/app/service"
	"github.com/shoaibhasann/zahra/internal/middleware"
)

// GuestIDHeader carries the anonymous cart session ID. The server issues one
// on first guest cart access and the client echoes it back.
const GuestIDHeader = "X-Guest-ID"

type CartController struct {
	cartService    service.CartService
	productService service.ProductService
	variantService service.VariantService
}

func NewCartController(
	cartService service.CartService,
	productService service.ProductService,
	variantService service.VariantService,
) *CartController {
	return &CartController{
		cartService:    cartService,
		productService: productService,
		variantService: variantService,
	}
}

type AddCartItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	VariantID uint `json:"variant_id" binding:"required"`
	SizeID    uint `json:"size_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,gt=0"`
}

type DecrementItemRequest struct {
	Delta int `json:"delta" binding:"required,gt=0"`
}

type MergeCartRequest struct {
	GuestID string `json:"guest_id" binding:"required"`
}

// cartOwner resolves the request to a user or guest owner. An anonymous
// request without a guest header gets a fresh guest ID, echoed back in the
// response header.
func (ctrl *CartController) cartOwner(c *gin.Context) repository.CartOwner {
	if userID, ok := middleware.GetUserID(c); ok {
		return repository.CartOwner{UserID: &userID}
	}

	guestID := c.GetHeader(GuestIDHeader)
	if guestID == "" {
		guestID = uuid.NewString()
	}
	c.Header(GuestIDHeader, guestID)
	return repository.CartOwner{GuestID: &guestID}
}

// GetCart returns the owner's active cart
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	cart, err := ctrl.cartService.GetCart(ctrl.cartOwner(c))
	if err != nil {
		if errors.Is(err, service.ErrCartNotFound) {
			c.JSON(http.StatusOK, gin.H{
				"cart": nil,
			})
			return
		}
		log.Error("Failed to fetch cart", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": cart,
	})
}

// AddItem adds a line item to the cart, merging with an existing line for
// the same product and variant
// POST /api/v1/cart/items
func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request data",
		})
		return
	}

	input, err := ctrl.buildItemInput(req)
	if err != nil {
		ctrl.respondCatalogError(c, err)
		return
	}

	cart, err := ctrl.cartService.AddOrUpdateItem(ctrl.cartOwner(c), *input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidQuantity) || errors.Is(err, service.ErrInvalidCartInput) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid cart input",
			})
			return
		}
		log.Error("Failed to add cart item", err, map[string]interface{}{
			"product_id": req.ProductID,
			"variant_id": req.VariantID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to add item",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": cart,
	})
}

// DecrementItem lowers a line item's quantity, removing it at zero
// PATCH /api/v1/cart/items/:id/decrement
func (ctrl *CartController) DecrementItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid item ID",
		})
		return
	}

	var req DecrementItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request data",
		})
		return
	}

	cart, err := ctrl.cartService.DecrementItem(ctrl.cartOwner(c), uint(itemID), req.Delta)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCartNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Cart not found",
			})
		case errors.Is(err, service.ErrCartItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Cart item not found",
			})
		case errors.Is(err, service.ErrInvalidQuantity):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid quantity",
			})
		default:
			log.Error("Failed to decrement cart item", err, map[string]interface{}{
				"item_id": itemID,
			})
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update item",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": cart,
	})
}

// ClearCart removes the owner's active cart entirely
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if err := ctrl.cartService.ClearCart(ctrl.cartOwner(c)); err != nil {
		if errors.Is(err, service.ErrCartNotFound) {
			c.JSON(http.StatusOK, gin.H{
				"message": "Cart already empty",
			})
			return
		}
		log.Error("Failed to clear cart", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to clear cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared",
	})
}

// MergeGuestCart folds a guest cart into the authenticated user's cart
// POST /api/v1/cart/merge
func (ctrl *CartController) MergeGuestCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return
	}

	var req MergeCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request data",
		})
		return
	}

	cart, err := ctrl.cartService.MergeGuestCart(userID, req.GuestID)
	if err != nil {
		if errors.Is(err, service.ErrCartNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Guest cart not found",
			})
			return
		}
		log.Error("Failed to merge guest cart", err, map[string]interface{}{
			"user_id": userID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to merge cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": cart,
	})
}

// buildItemInput resolves the catalog references and captures the price
// snapshot server side. Clients never supply prices.
func (ctrl *CartController) buildItemInput(req AddCartItemRequest) (*service.AddItemInput, error) {
	product, err := ctrl.productService.GetByID(req.ProductID)
	if err != nil {
		return nil, err
	}

	variant, err := ctrl.variantService.GetVariant(req.VariantID)
	if err != nil {
		return nil, err
	}
	if variant.ProductID != req.ProductID {
		return nil, service.ErrVariantNotFound
	}

	var sku string
	found := false
	for _, size := range variant.Sizes {
		if size.ID == req.SizeID {
			sku = size.SKU
			found = true
			break
		}
	}
	if !found {
		return nil, service.ErrSizeNotFound
	}

	image := ""
	if len(variant.Images) > 0 {
		image = variant.Images[0].URL
	} else if len(product.Product.Images) > 0 {
		image = product.Product.Images[0].URL
	}

	return &service.AddItemInput{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		SizeID:    req.SizeID,
		SKU:       sku,
		Title:     product.Product.Title,
		Image:     image,
		PriceAt:   product.FinalPrice,
		Quantity:  req.Quantity,
	}, nil
}

func (ctrl *CartController) respondCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Product not found",
		})
	case errors.Is(err, service.ErrVariantNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Variant not found",
		})
	case errors.Is(err, service.ErrSizeNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Size not found",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to resolve item",
		})
	}
}
