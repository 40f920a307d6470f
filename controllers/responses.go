package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/bookyourdock/bookyourdock-api/config"
	"github.com/bookyourdock/bookyourdock-api/realtime"
	"github.com/bookyourdock/bookyourdock-api/services"
	"github.com/bookyourdock/bookyourdock-api/utils"
	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// respondServiceError maps a service error onto its HTTP status
func respondServiceError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var uploadErr *utils.FileUploadError
	var storeErr *services.StoreError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": validationErr.Message,
				"details": validationErr.Field,
			},
		})
	case errors.As(err, &uploadErr):
		respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
	case errors.Is(err, services.ErrNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		respondError(c, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.As(err, &storeErr):
		log.Printf("Store error during %s: %v", storeErr.Op, storeErr.Err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", storeErr.Error())
	default:
		log.Printf("Unexpected error: %v", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

// archiveLocation is the configured archive time zone, or local time
func archiveLocation() *time.Location {
	cfg := config.GetConfig()
	if cfg == nil {
		return time.Local
	}
	loc, err := cfg.ArchiveLocation()
	if err != nil {
		log.Printf("Invalid archive timezone %q, using local time: %v", cfg.ArchiveTimezone, err)
		return time.Local
	}
	return loc
}

func operationService() *services.OperationService {
	return services.NewOperationService(config.GetDB(), services.GetNotifier(), realtime.GetFeed())
}

func archiveService() *services.ArchiveService {
	return services.NewArchiveService(config.GetDB(), services.GetBlobStore(), realtime.GetFeed(), archiveLocation())
}

func documentService() *services.DocumentService {
	return services.NewDocumentService(config.GetDB(), services.GetBlobStore(), realtime.GetFeed())
}
