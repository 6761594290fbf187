package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shoaibhasann/zahra/internal/app/service"
	"github.com/shoaibhasann/zahra/internal/middleware"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type RequestOTPRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
	Code  string `json:"code" binding:"required"`
	Name  string `json:"name"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RequestOTP sends a one-time sign-in code
// POST /api/v1/auth/otp/request
func (ctrl *AuthController) RequestOTP(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RequestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request data",
		})
		return
	}

	err := ctrl.authService.RequestOTP(c.Request.Context(), service.RequestOTPInput{
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidIdentity):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "A valid email or phone number is required",
			})
		case errors.Is(err, service.ErrOTPCooldown):
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Please wait before requesting another code",
			})
		case errors.Is(err, service.ErrOTPDailyLimit):
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Daily code request limit reached",
			})
		default:
			log.Error("Failed to send OTP", err, nil)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to send code",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Code sent",
	})
}

// VerifyOTP exchanges a one-time code for a token pair
// POST /api/v1/auth/otp/verify
func (ctrl *AuthController) VerifyOTP(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request data",
		})
		return
	}

	result, err := ctrl.authService.VerifyOTP(c.Request.Context(), service.VerifyOTPInput{
		Email: req.Email,
		Phone: req.Phone,
		Code:  req.Code,
		Name:  req.Name,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidIdentity):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "A valid email or phone number is required",
			})
		case errors.Is(err, service.ErrOTPInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired code",
			})
		default:
			log.Error("Failed to verify OTP", err, nil)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to verify code",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   result.User,
		"tokens": result.Tokens,
	})
}

// Refresh issues a new token pair from a refresh token
// POST /api/v1/auth/refresh
func (ctrl *AuthController) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request data",
		})
		return
	}

	tokens, err := ctrl.authService.Refresh(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid refresh token",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tokens": tokens,
	})
}

// Me returns the authenticated user's profile
// GET /api/v1/auth/me
func (ctrl *AuthController) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return
	}

	user, err := ctrl.authService.GetUser(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch profile",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}
