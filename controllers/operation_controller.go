package controllers

import (
	"net/http"

	"github.com/bookyourdock/bookyourdock-api/models"
	"github.com/gin-gonic/gin"
)

// CreateOperationRequest represents the request body for opening an operation
type CreateOperationRequest struct {
	LicensePlate string `json:"license_plate" binding:"required"`
}

// AdvanceOperationRequest represents the request body for a status change
type AdvanceOperationRequest struct {
	Status models.OperationStatus `json:"status" binding:"required"`
}

// ListOperations handles GET /api/v1/operations - active and recently completed operations
func ListOperations(c *gin.Context) {
	board, err := operationService().Board(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    board,
	})
}

// CreateOperation handles POST /api/v1/operations - opens an operation from a plate
func CreateOperation(c *gin.Context) {
	var req CreateOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	operation, err := operationService().CreateFromPlate(c.Request.Context(), req.LicensePlate)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    operation,
	})
}

// GetOperation handles GET /api/v1/operations/:id
func GetOperation(c *gin.Context) {
	operation, err := operationService().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"operation":     operation,
			"next_statuses": operation.Status.NextStatuses(),
		},
	})
}

// AdvanceOperation handles POST /api/v1/operations/:id/status
func AdvanceOperation(c *gin.Context) {
	var req AdvanceOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if !req.Status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_STATUS",
				"message": "Unknown operation status",
				"details": req.Status.String(),
			},
		})
		return
	}

	operation, err := operationService().Advance(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    operation,
	})
}
