package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shoaibhasann/zahra/internal/middleware"
	"github.com/shoaibhasann/zahra/pkg/shiprocket"
)

type ShippingController struct {
	client *shiprocket.Client
}

func NewShippingController(client *shiprocket.Client) *ShippingController {
	return &ShippingController{
		client: client,
	}
}

// CheckServiceability returns courier options for a destination pincode
// GET /api/v1/shipping/serviceability?pincode=110001&weight=0.5&cod=0
func (ctrl *ShippingController) CheckServiceability(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	pincode := c.Query("pincode")
	if len(pincode) != 6 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "A 6-digit destination pincode is required",
		})
		return
	}

	weight := 0.5
	if v := c.Query("weight"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w > 0 {
			weight = w
		}
	}
	var codAmount int64
	if v := c.Query("cod"); v != "" {
		codAmount, _ = strconv.ParseInt(v, 10, 64)
	}

	couriers, err := ctrl.client.CheckServiceability(c.Request.Context(), shiprocket.ServiceabilityRequest{
		DeliveryPincode: pincode,
		WeightKG:        weight,
		CODAmount:       codAmount,
	})
	if err != nil {
		if errors.Is(err, shiprocket.ErrNotServiceable) {
			c.JSON(http.StatusOK, gin.H{
				"serviceable": false,
				"couriers":    []shiprocket.CourierOption{},
			})
			return
		}
		log.Error("Serviceability check failed", err, map[string]interface{}{
			"pincode": pincode,
		})
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Shipping service unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"serviceable": true,
		"couriers":    couriers,
	})
}

// TrackShipment returns the scan trail for an AWB number
// GET /api/v1/shipping/track/:awb
func (ctrl *ShippingController) TrackShipment(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	awb := c.Param("awb")
	if awb == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "AWB number is required",
		})
		return
	}

	result, err := ctrl.client.TrackByAWB(c.Request.Context(), awb)
	if err != nil {
		log.Error("Shipment tracking failed", err, map[string]interface{}{
			"awb": awb,
		})
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Shipping service unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tracking": result,
	})
}
