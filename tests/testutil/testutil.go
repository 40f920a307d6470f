package testutil

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/bookyourdock/bookyourdock-api/config"
	"github.com/bookyourdock/bookyourdock-api/controllers"
	"github.com/bookyourdock/bookyourdock-api/middleware"
	"github.com/bookyourdock/bookyourdock-api/models"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// MustSetTestEnvironment sets the variables config.Load needs for a test run
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	vars := map[string]string{
		"GO_ENV":                   "test",
		"DATABASE_URL":             "postgres://localhost:5432/bookyourdock_test",
		"AWS_REGION":               "eu-west-3",
		"AWS_S3_BUCKET":            "test-bucket",
		"ARCHIVE_TIMEZONE":         "UTC",
		"ARCHIVE_SCHEDULE_ENABLED": "false",
	}
	for key, value := range vars {
		t.Setenv(key, value)
	}

	if os.Getenv("GO_ENV") != "test" {
		t.Fatal("Failed to verify GO_ENV=test")
	}
}

// NewTestDB opens a migrated in-memory database and installs it as the
// application database
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// A second pooled connection would open a different empty database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// NewAPIRouter builds a router with every API route, without gin's logger
func NewAPIRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.CORS(), middleware.RequestID())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/carriers", controllers.ListCarriers)
		v1.POST("/carriers", controllers.CreateCarrier)
		v1.GET("/appointments/time-slots", controllers.ListTimeSlots)
		v1.GET("/appointments", controllers.ListAppointments)
		v1.POST("/appointments", controllers.BookAppointment)
		v1.GET("/operations", controllers.ListOperations)
		v1.POST("/operations", controllers.CreateOperation)
		v1.GET("/operations/:id", controllers.GetOperation)
		v1.POST("/operations/:id/status", controllers.AdvanceOperation)
		v1.GET("/documents/types", controllers.ListDocumentTypes)
		v1.GET("/documents", controllers.ListDocuments)
		v1.POST("/documents", controllers.UploadDocument)
		v1.GET("/archives", controllers.ListArchives)
		v1.GET("/archives/run", controllers.RunArchiver)
		v1.POST("/archives/run", controllers.RunArchiver)
		v1.GET("/reports/time", controllers.GetTimeReport)
		v1.POST("/contact", controllers.SubmitContactRequest)
		v1.GET("/realtime", controllers.StreamChanges)
	}
	return router
}

// PrintEnvironmentInfo prints the current test environment configuration.
// Useful for debugging test environment issues.
func PrintEnvironmentInfo() {
	fmt.Printf("Test Environment Info:\n")
	fmt.Printf("  GO_ENV: %s\n", os.Getenv("GO_ENV"))
	fmt.Printf("  DATABASE_URL: %s\n", MaskDatabaseURL(os.Getenv("DATABASE_URL")))
	fmt.Printf("  AWS_S3_BUCKET: %s\n", os.Getenv("AWS_S3_BUCKET"))
}

// MaskDatabaseURL hides credentials in a database URL for safe printing
func MaskDatabaseURL(url string) string {
	if url == "" {
		return "(not set)"
	}

	masked := url
	if at := strings.LastIndex(url, "@"); at != -1 {
		if scheme := strings.Index(url, "://"); scheme != -1 && scheme < at {
			masked = url[:scheme+3] + "***" + url[at:]
		}
	}
	if !strings.HasSuffix(masked, "_test") && !strings.HasSuffix(masked, "test") {
		masked += " [WARNING: may not be test DB]"
	}
	return masked
}
