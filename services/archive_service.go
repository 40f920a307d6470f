package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/bookyourdock/bookyourdock-api/models"
	"github.com/bookyourdock/bookyourdock-api/realtime"
	"github.com/bookyourdock/bookyourdock-api/utils"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	archiveMessageEmpty   = "No documents to archive"
	archiveMessageCreated = "Archives created successfully"
	archiveMessageFailed  = "No archives could be created"
	manifestContentType   = "application/json"
)

// ArchiveService bundles the previous day's documents into JSON manifests
type ArchiveService struct {
	db       *gorm.DB
	blobs    BlobStore
	feed     *realtime.Feed
	location *time.Location
}

// DocumentGroup is the set of documents sharing a plate and mission
type DocumentGroup struct {
	LicensePlate string
	MissionName  string
	Documents    []models.Document
}

// ArchiveManifest is the JSON body stored for each group
type ArchiveManifest struct {
	Date         string             `json:"date"`
	LicensePlate string             `json:"license_plate"`
	MissionName  string             `json:"mission_name"`
	Documents    []ManifestDocument `json:"documents"`
}

// ManifestDocument is one document listed in a manifest
type ManifestDocument struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Type       string    `json:"type"`
	UploadDate time.Time `json:"upload_date"`
}

// ArchiveDetail reports one archived group
type ArchiveDetail struct {
	LicensePlate string `json:"license_plate"`
	MissionName  string `json:"mission_name"`
	Count        int    `json:"count"`
}

// ArchiveFailure reports one group that could not be archived
type ArchiveFailure struct {
	LicensePlate string `json:"license_plate"`
	MissionName  string `json:"mission_name"`
	Error        string `json:"error"`
}

// ArchiveResult summarizes an archiver run
type ArchiveResult struct {
	Message     string           `json:"message"`
	ArchiveDate string           `json:"archive_date"`
	Archived    int              `json:"archived"`
	Details     []ArchiveDetail  `json:"details"`
	Failed      []ArchiveFailure `json:"failed,omitempty"`
}

// NewArchiveService creates an archiver. A nil location means time.Local.
func NewArchiveService(db *gorm.DB, blobs BlobStore, feed *realtime.Feed, location *time.Location) *ArchiveService {
	if location == nil {
		location = time.Local
	}
	return &ArchiveService{
		db:       db,
		blobs:    blobs,
		feed:     feed,
		location: location,
	}
}

// ArchiveWindow returns the first and last instant of the day before invokedAt in loc
func ArchiveWindow(invokedAt time.Time, loc *time.Location) (time.Time, time.Time) {
	today := now.With(invokedAt.In(loc)).BeginningOfDay()
	yesterday := now.With(today.AddDate(0, 0, -1))
	return yesterday.BeginningOfDay(), yesterday.EndOfDay()
}

// ArchiveObjectKey returns the storage key of a group's manifest
func ArchiveObjectKey(archiveDate, licensePlate, missionName string) string {
	return fmt.Sprintf("archives/%s_%s_%s.json", archiveDate, licensePlate, missionName)
}

// GroupDocuments groups documents by plate and mission, keeping the order
// groups are first seen and the order of documents inside each group
func GroupDocuments(documents []models.Document) []*DocumentGroup {
	groups := make([]*DocumentGroup, 0)
	byKey := make(map[string]*DocumentGroup)

	for _, doc := range documents {
		key := doc.ArchiveKey()
		group, ok := byKey[key]
		if !ok {
			group = &DocumentGroup{
				LicensePlate: doc.LicensePlate,
				MissionName:  doc.ArchiveMission(),
			}
			byKey[key] = group
			groups = append(groups, group)
		}
		group.Documents = append(group.Documents, doc)
	}

	return groups
}

// BuildManifest renders the manifest for one group
func BuildManifest(archiveDate string, group *DocumentGroup) ArchiveManifest {
	manifest := ArchiveManifest{
		Date:         archiveDate,
		LicensePlate: group.LicensePlate,
		MissionName:  group.MissionName,
		Documents:    make([]ManifestDocument, 0, len(group.Documents)),
	}
	for _, doc := range group.Documents {
		manifest.Documents = append(manifest.Documents, ManifestDocument{
			Name:       doc.DocumentName,
			URL:        doc.DocumentURL,
			Type:       doc.DocumentType,
			UploadDate: doc.UploadDate,
		})
	}
	return manifest
}

// Run archives every document uploaded on the day before invokedAt.
// A failing group is reported in the result and does not stop the others.
func (s *ArchiveService) Run(ctx context.Context, invokedAt time.Time) (*ArchiveResult, error) {
	start, end := ArchiveWindow(invokedAt, s.location)
	archiveDate := start.Format(utils.DateLayout)

	var documents []models.Document
	if err := s.db.WithContext(ctx).
		Where("upload_date >= ? AND upload_date <= ?", start.UTC(), end.UTC()).
		Order("upload_date ASC").
		Order("created_at ASC").
		Find(&documents).Error; err != nil {
		return nil, storeError("fetch documents", err)
	}

	if len(documents) == 0 {
		log.Printf("Archiver: no documents uploaded on %s", archiveDate)
		return &ArchiveResult{Message: archiveMessageEmpty, ArchiveDate: archiveDate, Details: []ArchiveDetail{}}, nil
	}

	result := &ArchiveResult{
		Message:     archiveMessageCreated,
		ArchiveDate: archiveDate,
		Details:     []ArchiveDetail{},
	}

	for _, group := range GroupDocuments(documents) {
		archive, err := s.archiveGroup(ctx, archiveDate, group)
		if err != nil {
			log.Printf("Archiver: failed to archive %s/%s for %s: %v", group.LicensePlate, group.MissionName, archiveDate, err)
			result.Failed = append(result.Failed, ArchiveFailure{
				LicensePlate: group.LicensePlate,
				MissionName:  group.MissionName,
				Error:        err.Error(),
			})
			continue
		}

		result.Details = append(result.Details, ArchiveDetail{
			LicensePlate: group.LicensePlate,
			MissionName:  group.MissionName,
			Count:        len(group.Documents),
		})
		s.feed.Publish(realtime.Event{
			Table:    realtime.TableDocumentArchives,
			Action:   realtime.ActionInsert,
			RecordID: archive.ID,
		})
	}

	result.Archived = len(result.Details)
	if result.Archived == 0 {
		result.Message = archiveMessageFailed
	}
	log.Printf("Archiver: %d group(s) archived, %d failed for %s", result.Archived, len(result.Failed), archiveDate)
	return result, nil
}

func (s *ArchiveService) archiveGroup(ctx context.Context, archiveDate string, group *DocumentGroup) (*models.DocumentArchive, error) {
	body, err := json.MarshalIndent(BuildManifest(archiveDate, group), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}

	key := ArchiveObjectKey(archiveDate, group.LicensePlate, group.MissionName)
	if err := uploadWithBucketRetry(ctx, s.blobs, key, body, manifestContentType, true); err != nil {
		return nil, err
	}

	archive := models.DocumentArchive{
		ArchiveDate:   archiveDate,
		LicensePlate:  group.LicensePlate,
		MissionName:   group.MissionName,
		ArchiveURL:    s.blobs.PublicURL(key),
		DocumentCount: len(group.Documents),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "archive_date"},
			{Name: "license_plate"},
			{Name: "mission_name"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"archive_url", "document_count"}),
	}).Create(&archive).Error
	if err != nil {
		return nil, storeError("record archive", err)
	}

	// On a re-run the row keeps its original id
	var stored models.DocumentArchive
	if err := s.db.WithContext(ctx).
		Where("archive_date = ? AND license_plate = ? AND mission_name = ?", archiveDate, group.LicensePlate, group.MissionName).
		First(&stored).Error; err != nil {
		return nil, storeError("reload archive", err)
	}

	return &stored, nil
}

// ListArchives returns the most recent archive records
func (s *ArchiveService) ListArchives(ctx context.Context, limit int) ([]models.DocumentArchive, error) {
	archives := []models.DocumentArchive{}
	if err := s.db.WithContext(ctx).
		Order("archive_date DESC").
		Order("created_at DESC").
		Limit(limit).
		Find(&archives).Error; err != nil {
		return nil, storeError("list archives", err)
	}
	return archives, nil
}
