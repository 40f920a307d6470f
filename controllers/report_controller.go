package controllers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/bookyourdock/bookyourdock-api/config"
	"github.com/bookyourdock/bookyourdock-api/services"
	"github.com/gin-gonic/gin"
)

// GetTimeReport handles GET /api/v1/reports/time?start_date=&end_date=&format=csv
func GetTimeReport(c *gin.Context) {
	svc := services.NewReportService(config.GetDB(), archiveLocation())
	report, err := svc.TimeReport(c.Request.Context(), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if c.Query("format") != "csv" {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    report,
		})
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf); err != nil {
		respondError(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to export report")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.CSVFilename()))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
