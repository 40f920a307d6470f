package controllers

import (
	"net/http"
	"time"

	"github.com/bookyourdock/bookyourdock-api/services"
	"github.com/gin-gonic/gin"
)

// RunArchiver handles GET and POST /api/v1/archives/run. Unlike the other
// endpoints it answers with the archiver's own {message, archived, details}
// body, or {error} when the documents could not be fetched.
func RunArchiver(c *gin.Context) {
	if services.GetBlobStore() == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Document storage is not configured"})
		return
	}

	result, err := archiveService().Run(c.Request.Context(), time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
