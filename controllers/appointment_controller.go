package controllers

import (
	"net/http"

	"github.com/bookyourdock/bookyourdock-api/config"
	"github.com/bookyourdock/bookyourdock-api/realtime"
	"github.com/bookyourdock/bookyourdock-api/services"
	"github.com/gin-gonic/gin"
)

// ListTimeSlots handles GET /api/v1/appointments/time-slots
func ListTimeSlots(c *gin.Context) {
	svc := services.NewAppointmentService(config.GetDB(), realtime.GetFeed())
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    svc.TimeSlots(),
	})
}

// ListAppointments handles GET /api/v1/appointments - appointments grouped by date
func ListAppointments(c *gin.Context) {
	svc := services.NewAppointmentService(config.GetDB(), realtime.GetFeed())
	appointments, err := svc.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    services.GroupByDate(appointments),
		"total":   len(appointments),
	})
}

// BookAppointment handles POST /api/v1/appointments
func BookAppointment(c *gin.Context) {
	var req services.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	svc := services.NewAppointmentService(config.GetDB(), realtime.GetFeed())
	appointment, err := svc.Book(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    appointment,
	})
}
