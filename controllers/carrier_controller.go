package controllers

import (
	"net/http"

	"github.com/bookyourdock/bookyourdock-api/config"
	"github.com/bookyourdock/bookyourdock-api/realtime"
	"github.com/bookyourdock/bookyourdock-api/services"
	"github.com/gin-gonic/gin"
)

// ListCarriers handles GET /api/v1/carriers - lists carriers by name
func ListCarriers(c *gin.Context) {
	carriers, err := services.NewCarrierService(config.GetDB(), realtime.GetFeed()).List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    carriers,
	})
}

// CreateCarrier handles POST /api/v1/carriers - registers a carrier
func CreateCarrier(c *gin.Context) {
	var req services.CarrierInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	carrier, err := services.NewCarrierService(config.GetDB(), realtime.GetFeed()).Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    carrier,
	})
}
