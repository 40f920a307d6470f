package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/bookyourdock/bookyourdock-api/services"
	"github.com/gin-gonic/gin"
)

const contactTimeout = 10 * time.Second

// SubmitContactRequest handles POST /api/v1/contact. Delivery failures are
// logged and the caller is acknowledged regardless.
func SubmitContactRequest(c *gin.Context) {
	var req services.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if notifier := services.GetNotifier(); notifier != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), contactTimeout)
		defer cancel()
		if err := notifier.SendContactRequest(ctx, req); err != nil {
			log.Printf("Failed to forward contact request from %s: %v", req.CompanyName, err)
		}
	} else {
		log.Printf("No notifier configured, dropping contact request from %s", req.CompanyName)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Contact request received",
	})
}
