package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shoaibhasann/zahra/internal/app/model"
	"github.com/shoaibhasann/zahra/internal/app/service"
	"github.com/shoaibhasann/zahra/internal/middleware"
	"github.com/shoaibhasann/zahra/pkg/logger"
)

type VariantController struct {
	variantService service.VariantService
}

func NewVariantController(variantService service.VariantService) *VariantController {
	return &VariantController{
		variantService: variantService,
	}
}

type SizeRequest struct {
	Size     string `json:"size" binding:"required"`
	Stock    int    `json:"stock" binding:"gte=0"`
	SKU      string `json:"sku" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

type CreateVariantRequest struct {
	Color  string        `json:"color" binding:"required"`
	Images []model.Image `json:"images"`
	Sizes  []SizeRequest `json:"sizes" binding:"required,min=1,dive"`
}

type CreateVariantsRequest struct {
	Variants []CreateVariantRequest `json:"variants" binding:"required,min=1,dive"`
}

type UpdateVariantRequest struct {
	Color    *string       `json:"color"`
	IsActive *bool         `json:"is_active"`
	Images   []model.Image `json:"images"`
}

type UpdateSizeRequest struct {
	Size     *string `json:"size"`
	Stock    *int    `json:"stock"`
	SKU      *string `json:"sku"`
	IsActive *bool   `json:"is_active"`
}

func toSizeInputs(sizes []SizeRequest) []service.SizeInput {
	inputs := make([]service.SizeInput, 0, len(sizes))
	for _, s := range sizes {
		inputs = append(inputs, service.SizeInput{
			Size:     s.Size,
			Stock:    s.Stock,
			SKU:      s.SKU,
			IsActive: s.IsActive,
		})
	}
	return inputs
}

// ListVariants returns all variants of a product
// GET /api/v1/products/:id/variants
func (ctrl *VariantController) ListVariants(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	productID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return
	}

	variants, err := ctrl.variantService.ListByProduct(uint(productID))
	if err != nil {
		log.Error("Failed to fetch variants", err, map[string]interface{}{
			"product_id": productID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch variants",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"variants": variants,
	})
}

// CreateVariant adds one variant with its sizes (Admin only)
// POST /api/v1/products/:id/variants
func (ctrl *VariantController) CreateVariant(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	productID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return
	}

	var req CreateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	variant, err := ctrl.variantService.CreateVariant(uint(productID), service.CreateVariantInput{
		Color:  req.Color,
		Images: req.Images,
		Sizes:  toSizeInputs(req.Sizes),
	})
	if err != nil {
		ctrl.respondVariantError(c, log, err, uint(productID))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"variant": variant,
	})
}

// CreateVariants adds several variants atomically (Admin only)
// POST /api/v1/products/:id/variants/batch
func (ctrl *VariantController) CreateVariants(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	productID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return
	}

	var req CreateVariantsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	inputs := make([]service.CreateVariantInput, 0, len(req.Variants))
	for _, v := range req.Variants {
		inputs = append(inputs, service.CreateVariantInput{
			Color:  v.Color,
			Images: v.Images,
			Sizes:  toSizeInputs(v.Sizes),
		})
	}

	variants, err := ctrl.variantService.CreateVariants(uint(productID), inputs)
	if err != nil {
		ctrl.respondVariantError(c, log, err, uint(productID))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"variants": variants,
	})
}

// UpdateVariant patches variant-level fields (Admin only)
// PUT /api/v1/variants/:id
func (ctrl *VariantController) UpdateVariant(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	variantID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid variant ID",
		})
		return
	}

	var req UpdateVariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request data",
		})
		return
	}

	variant, err := ctrl.variantService.UpdateVariant(uint(variantID), service.UpdateVariantInput{
		Color:    req.Color,
		IsActive: req.IsActive,
		Images:   req.Images,
	})
	if err != nil {
		ctrl.respondVariantError(c, log, err, 0)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"variant": variant,
	})
}

// DeleteVariant removes a variant with its sizes (Admin only)
// DELETE /api/v1/variants/:id
func (ctrl *VariantController) DeleteVariant(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	variantID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid variant ID",
		})
		return
	}

	if err := ctrl.variantService.DeleteVariant(uint(variantID)); err != nil {
		ctrl.respondVariantError(c, log, err, 0)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Variant deleted",
	})
}

// AddSize appends a size entry to a variant (Admin only)
// POST /api/v1/variants/:id/sizes
func (ctrl *VariantController) AddSize(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	variantID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid variant ID",
		})
		return
	}

	var req SizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request data",
		})
		return
	}

	size, err := ctrl.variantService.AddSize(uint(variantID), service.SizeInput{
		Size:     req.Size,
		Stock:    req.Stock,
		SKU:      req.SKU,
		IsActive: req.IsActive,
	})
	if err != nil {
		ctrl.respondVariantError(c, log, err, 0)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"size": size,
	})
}

// UpdateSize patches a size entry (Admin only)
// PUT /api/v1/variants/:id/sizes/:size_id
func (ctrl *VariantController) UpdateSize(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	variantID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid variant ID",
		})
		return
	}
	sizeID, err := strconv.ParseUint(c.Param("size_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid size ID",
		})
		return
	}

	var req UpdateSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request data",
		})
		return
	}

	size, err := ctrl.variantService.UpdateSize(uint(variantID), uint(sizeID), service.UpdateSizeInput{
		Size:     req.Size,
		Stock:    req.Stock,
		SKU:      req.SKU,
		IsActive: req.IsActive,
	})
	if err != nil {
		ctrl.respondVariantError(c, log, err, 0)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"size": size,
	})
}

// DeleteSize removes a size entry (Admin only)
// DELETE /api/v1/variants/:id/sizes/:size_id
func (ctrl *VariantController) DeleteSize(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	variantID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid variant ID",
		})
		return
	}
	sizeID, err := strconv.ParseUint(c.Param("size_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid size ID",
		})
		return
	}

	if err := ctrl.variantService.DeleteSize(uint(variantID), uint(sizeID)); err != nil {
		ctrl.respondVariantError(c, log, err, 0)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Size deleted",
	})
}

func (ctrl *VariantController) respondVariantError(c *gin.Context, log *logger.Logger, err error, productID uint) {
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
	case errors.Is(err, service.ErrSKUConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "SKU already exists in catalog",
			"details": err.Error(),
		})
	case errors.Is(err, service.ErrDuplicateSKUInPayload),
		errors.Is(err, service.ErrDuplicateColor),
		errors.Is(err, service.ErrNoSizes),
		errors.Is(err, service.ErrInvalidStock):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid variant payload",
			"details": err.Error(),
		})
	default:
		log.Error("Variant operation failed", err, map[string]interface{}{
			"product_id": productID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Variant operation failed",
		})
	}
}
