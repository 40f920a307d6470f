package controllers

import (
	"net/http"

	"github.com/bookyourdock/bookyourdock-api/config"
	"github.com/bookyourdock/bookyourdock-api/services"
	"github.com/gin-gonic/gin"
)

// archiveListLimit is how many archive records the archive list returns
const archiveListLimit = 20

// ListDocumentTypes handles GET /api/v1/documents/types
func ListDocumentTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    documentService().DocumentTypes(),
	})
}

// UploadDocument handles POST /api/v1/documents - multipart document upload
func UploadDocument(c *gin.Context) {
	if services.GetBlobStore() == nil {
		respondError(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Document storage is not configured")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_REQUIRED",
				"message": "A file must be provided in the 'file' field",
				"details": err.Error(),
			},
		})
		return
	}

	input := services.DocumentUpload{
		CarrierID:    c.PostForm("carrier_id"),
		LicensePlate: c.PostForm("license_plate"),
		MissionName:  c.PostForm("mission_name"),
		DocumentType: c.PostForm("document_type"),
	}

	document, err := documentService().Upload(c.Request.Context(), fileHeader, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    document,
	})
}

// ListDocuments handles GET /api/v1/documents - newest uploads first
func ListDocuments(c *gin.Context) {
	documents, err := documentService().List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    documents,
	})
}

// ListArchives handles GET /api/v1/archives - the latest archive records
func ListArchives(c *gin.Context) {
	archives, err := services.NewArchiveService(config.GetDB(), nil, nil, archiveLocation()).
		ListArchives(c.Request.Context(), archiveListLimit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    archives,
	})
}
