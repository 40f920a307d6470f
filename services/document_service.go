package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"github.com/bookyourdock/bookyourdock-api/models"
	"github.com/bookyourdock/bookyourdock-api/realtime"
	"github.com/bookyourdock/bookyourdock-api/utils"
	"gorm.io/gorm"
)

// DocumentUpload carries the form fields sent alongside an uploaded file
type DocumentUpload struct {
	CarrierID    string
	LicensePlate string
	MissionName  string
	DocumentType string
}

// DocumentService stores operational documents in the blob store
type DocumentService struct {
	db    *gorm.DB
	blobs BlobStore
	feed  *realtime.Feed
	now   func() time.Time
}

// NewDocumentService creates a document service
func NewDocumentService(db *gorm.DB, blobs BlobStore, feed *realtime.Feed) *DocumentService {
	return &DocumentService{
		db:    db,
		blobs: blobs,
		feed:  feed,
		now:   time.Now,
	}
}

// DocumentTypes returns the document type labels offered for upload
func (s *DocumentService) DocumentTypes() []string {
	types := make([]string, len(models.DocumentTypes))
	copy(types, models.DocumentTypes)
	return types
}

// Upload validates fileHeader, stores it and records the document
func (s *DocumentService) Upload(ctx context.Context, fileHeader *multipart.FileHeader, input DocumentUpload) (*models.Document, error) {
	if err := utils.ValidateDocumentFile(fileHeader); err != nil {
		return nil, err
	}

	plate := utils.NormalizeLicensePlate(input.LicensePlate)
	if input.CarrierID == "" {
		return nil, &ValidationError{Field: "carrier_id", Message: "Carrier is required"}
	}
	if plate == "" {
		return nil, &ValidationError{Field: "license_plate", Message: "License plate is required"}
	}

	db := s.db.WithContext(ctx)

	var carrier models.Carrier
	if err := db.First(&carrier, "id = ?", input.CarrierID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCarrierNotFound
		}
		return nil, storeError("load carrier", err)
	}

	content, err := utils.ReadUploadedFile(fileHeader)
	if err != nil {
		return nil, err
	}

	uploadedAt := s.now().UTC()
	key := utils.DocumentStorageKey(uploadedAt, plate, fileHeader.Filename)
	if err := uploadWithBucketRetry(ctx, s.blobs, key, content, utils.ContentTypeFor(fileHeader.Filename), false); err != nil {
		return nil, fmt.Errorf("failed to upload document: %w", err)
	}

	document := models.Document{
		CarrierID:    carrier.ID,
		LicensePlate: plate,
		DocumentName: fileHeader.Filename,
		DocumentURL:  s.blobs.PublicURL(key),
		StorageKey:   key,
		DocumentType: strings.TrimSpace(input.DocumentType),
		UploadDate:   uploadedAt,
		CreatedAt:    uploadedAt,
	}
	if mission := strings.TrimSpace(input.MissionName); mission != "" {
		document.MissionName = &mission
	}

	if err := db.Create(&document).Error; err != nil {
		return nil, storeError("create document", err)
	}
	document.Carrier = &carrier

	log.Printf("Document %s uploaded for %s as %s", document.DocumentName, plate, key)
	s.feed.Publish(realtime.Event{
		Table:    realtime.TableDocuments,
		Action:   realtime.ActionInsert,
		RecordID: document.ID,
		At:       uploadedAt,
	})

	return &document, nil
}

// List returns every document, newest upload first
func (s *DocumentService) List(ctx context.Context) ([]models.Document, error) {
	documents := []models.Document{}
	if err := s.db.WithContext(ctx).
		Preload("Carrier").
		Order("upload_date DESC").
		Find(&documents).Error; err != nil {
		return nil, storeError("list documents", err)
	}
	return documents, nil
}
