package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/bookyourdock/bookyourdock-api/models"
	"github.com/bookyourdock/bookyourdock-api/utils"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// defaultReportDays is the look-back used when no start date is given
const defaultReportDays = 30

var csvHeaders = []string{
	"Date",
	"Immatriculation",
	"Transporteur",
	"Accès au site",
	"Attente parking",
	"Quai déchargement",
	"Quai chargement",
	"Temps total",
}

// TimeReportRow holds the per-stage durations of one operation, in minutes
type TimeReportRow struct {
	OperationID          string    `json:"operation_id"`
	Date                 string    `json:"date"`
	CreatedAt            time.Time `json:"created_at"`
	LicensePlate         string    `json:"license_plate"`
	CarrierName          string    `json:"carrier_name"`
	SiteAccessMinutes    *int      `json:"acces_au_site_time"`
	ParkingWaitMinutes   *int      `json:"attente_parking_time"`
	UnloadingDockMinutes *int      `json:"quai_dechargement_time"`
	LoadingDockMinutes   *int      `json:"quai_chargement_time"`
	TotalMinutes         *int      `json:"total_time"`
}

// TimeAverages are per-stage means over the operations that have the stage
type TimeAverages struct {
	SiteAccess    float64 `json:"acces_au_site"`
	ParkingWait   float64 `json:"attente_parking"`
	UnloadingDock float64 `json:"quai_dechargement"`
	LoadingDock   float64 `json:"quai_chargement"`
	Total         float64 `json:"total"`
}

// TimeReport is the time tracking report for a date range
type TimeReport struct {
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Rows      []TimeReportRow `json:"rows"`
	Averages  *TimeAverages   `json:"averages"`
}

// ReportService computes time spent in each yard stage
type ReportService struct {
	db       *gorm.DB
	location *time.Location
	now      func() time.Time
}

// NewReportService creates a report service. A nil location means time.Local.
func NewReportService(db *gorm.DB, location *time.Location) *ReportService {
	if location == nil {
		location = time.Local
	}
	return &ReportService{db: db, location: location, now: time.Now}
}

// WithClock replaces the time source
func (s *ReportService) WithClock(clock func() time.Time) *ReportService {
	s.now = clock
	return s
}

// TimeReport builds the report for operations created between startDate and
// endDate inclusive (YYYY-MM-DD). Empty dates default to the last 30 days.
func (s *ReportService) TimeReport(ctx context.Context, startDate, endDate string) (*TimeReport, error) {
	today := now.With(s.now().In(s.location)).BeginningOfDay()

	end := today
	if endDate != "" {
		parsed, err := time.ParseInLocation(utils.DateLayout, endDate, s.location)
		if err != nil {
			return nil, &ValidationError{Field: "end_date", Message: "End date must be formatted YYYY-MM-DD"}
		}
		end = parsed
	}
	start := today.AddDate(0, 0, -defaultReportDays)
	if startDate != "" {
		parsed, err := time.ParseInLocation(utils.DateLayout, startDate, s.location)
		if err != nil {
			return nil, &ValidationError{Field: "start_date", Message: "Start date must be formatted YYYY-MM-DD"}
		}
		start = parsed
	}
	if end.Before(start) {
		return nil, &ValidationError{Field: "end_date", Message: "End date must not be before start date"}
	}

	from := now.With(start).BeginningOfDay()
	to := now.With(end).EndOfDay()

	var operations []models.Operation
	if err := s.db.WithContext(ctx).
		Preload("Carrier").
		Where("created_at >= ? AND created_at <= ?", from.UTC(), to.UTC()).
		Order("created_at DESC").
		Find(&operations).Error; err != nil {
		return nil, storeError("list operations", err)
	}

	report := &TimeReport{
		StartDate: start.Format(utils.DateLayout),
		EndDate:   end.Format(utils.DateLayout),
		Rows:      make([]TimeReportRow, 0, len(operations)),
	}
	for i := range operations {
		report.Rows = append(report.Rows, s.buildRow(&operations[i]))
	}
	report.Averages = averageRows(report.Rows)

	return report, nil
}

func (s *ReportService) buildRow(op *models.Operation) TimeReportRow {
	row := TimeReportRow{
		OperationID:  op.ID,
		Date:         op.CreatedAt.In(s.location).Format("02/01/2006"),
		CreatedAt:    op.CreatedAt,
		LicensePlate: op.LicensePlate,
		CarrierName:  "N/A",
	}
	if op.Carrier != nil && op.Carrier.Name != "" {
		row.CarrierName = op.Carrier.Name
	}

	row.SiteAccessMinutes = minutesBetween(op.EnteredSiteAt, op.ParkingAt)

	switch {
	case op.ParkingAt != nil && op.CalledToUnloadingAt != nil:
		row.ParkingWaitMinutes = minutesBetween(op.ParkingAt, op.CalledToUnloadingAt)
	case op.ParkingAt != nil && op.CalledToLoadingAt != nil:
		row.ParkingWaitMinutes = minutesBetween(op.ParkingAt, op.CalledToLoadingAt)
	}

	switch {
	case op.CalledToUnloadingAt != nil && op.CalledToLoadingAt != nil:
		row.UnloadingDockMinutes = minutesBetween(op.CalledToUnloadingAt, op.CalledToLoadingAt)
	case op.CalledToUnloadingAt != nil && op.OperationsCompletedAt != nil:
		row.UnloadingDockMinutes = minutesBetween(op.CalledToUnloadingAt, op.OperationsCompletedAt)
	}

	row.LoadingDockMinutes = minutesBetween(op.CalledToLoadingAt, op.OperationsCompletedAt)
	row.TotalMinutes = minutesBetween(op.EnteredSiteAt, op.OperationsCompletedAt)

	return row
}

// minutesBetween rounds end-start to the nearest minute; nil when either is missing
func minutesBetween(start, end *time.Time) *int {
	if start == nil || end == nil {
		return nil
	}
	minutes := int(math.Round(end.Sub(*start).Minutes()))
	return &minutes
}

// averageRows returns nil when no operation has completed
func averageRows(rows []TimeReportRow) *TimeAverages {
	completed := false
	for _, row := range rows {
		if row.TotalMinutes != nil {
			completed = true
			break
		}
	}
	if !completed {
		return nil
	}

	mean := func(pick func(TimeReportRow) *int) float64 {
		sum, count := 0, 0
		for _, row := range rows {
			if v := pick(row); v != nil {
				sum += *v
				count++
			}
		}
		if count == 0 {
			return 0
		}
		return float64(sum) / float64(count)
	}

	return &TimeAverages{
		SiteAccess:    mean(func(r TimeReportRow) *int { return r.SiteAccessMinutes }),
		ParkingWait:   mean(func(r TimeReportRow) *int { return r.ParkingWaitMinutes }),
		UnloadingDock: mean(func(r TimeReportRow) *int { return r.UnloadingDockMinutes }),
		LoadingDock:   mean(func(r TimeReportRow) *int { return r.LoadingDockMinutes }),
		Total:         mean(func(r TimeReportRow) *int { return r.TotalMinutes }),
	}
}

// FormatMinutes renders minutes like "1h 5min", or "-" when unknown
func FormatMinutes(minutes *int) string {
	if minutes == nil {
		return "-"
	}
	return models.FormatDuration(time.Duration(*minutes) * time.Minute)
}

// CSVFilename is the download name of the report export
func (r *TimeReport) CSVFilename() string {
	return fmt.Sprintf("rapport-temps-%s-%s.csv", r.StartDate, r.EndDate)
}

// WriteCSV writes the report rows as CSV with French headers
func (r *TimeReport) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeaders); err != nil {
		return err
	}
	for _, row := range r.Rows {
		record := []string{
			row.Date,
			row.LicensePlate,
			row.CarrierName,
			FormatMinutes(row.SiteAccessMinutes),
			FormatMinutes(row.ParkingWaitMinutes),
			FormatMinutes(row.UnloadingDockMinutes),
			FormatMinutes(row.LoadingDockMinutes),
			FormatMinutes(row.TotalMinutes),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
