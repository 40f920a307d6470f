package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/bookyourdock/bookyourdock-api/config"
	"github.com/bookyourdock/bookyourdock-api/models"
	"github.com/bookyourdock/bookyourdock-api/realtime"
	"github.com/bookyourdock/bookyourdock-api/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db       *gorm.DB
	blobs    *services.MockBlobStore
	notifier *services.MockNotifier
	feed     *realtime.Feed
	router   *gin.Engine
}

// setupControllerTest wires an in-memory database, mock storage and a mock
// notifier into the globals the handlers read
func setupControllerTest(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	env := &testEnv{
		db:       db,
		blobs:    services.NewMockBlobStore(),
		notifier: services.NewMockNotifier(),
		feed:     realtime.NewFeed(),
	}

	config.SetDB(db)
	config.SetConfig(nil)
	env.blobs.SetAsMockForTesting()
	services.SetNotifier(env.notifier)
	realtime.SetFeed(env.feed)

	t.Cleanup(func() {
		services.SetBlobStore(nil)
		services.SetNotifier(nil)
		realtime.SetFeed(nil)
		sqlDB.Close()
	})

	env.router = newControllerRouter()
	return env
}

func newControllerRouter() *gin.Engine {
	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.GET("/carriers", ListCarriers)
	v1.POST("/carriers", CreateCarrier)
	v1.GET("/appointments/time-slots", ListTimeSlots)
	v1.GET("/appointments", ListAppointments)
	v1.POST("/appointments", BookAppointment)
	v1.GET("/operations", ListOperations)
	v1.POST("/operations", CreateOperation)
	v1.GET("/operations/:id", GetOperation)
	v1.POST("/operations/:id/status", AdvanceOperation)
	v1.GET("/documents/types", ListDocumentTypes)
	v1.GET("/documents", ListDocuments)
	v1.POST("/documents", UploadDocument)
	v1.GET("/archives", ListArchives)
	v1.GET("/archives/run", RunArchiver)
	v1.POST("/archives/run", RunArchiver)
	v1.GET("/reports/time", GetTimeReport)
	v1.POST("/contact", SubmitContactRequest)
	v1.GET("/realtime", StreamChanges)
	return router
}

func (env *testEnv) doJSON(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	}
	return w, response
}

func (env *testEnv) seedCarrier(t *testing.T, name, phone string) models.Carrier {
	carrier := models.Carrier{Name: name}
	if phone != "" {
		carrier.Phone = &phone
	}
	require.NoError(t, env.db.Create(&carrier).Error)
	return carrier
}

func (env *testEnv) seedAppointment(t *testing.T, carrierID, plate, date, slot string) models.Appointment {
	appointment := models.Appointment{
		CarrierID:       carrierID,
		LicensePlate:    plate,
		AppointmentDate: date,
		TimeSlot:        slot,
		Status:          models.AppointmentStatusScheduled,
	}
	require.NoError(t, env.db.Create(&appointment).Error)
	return appointment
}

func errorCode(response map[string]interface{}) string {
	errBody, ok := response["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := errBody["code"].(string)
	return code
}
