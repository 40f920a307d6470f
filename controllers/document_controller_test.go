package controllers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bookyourdock/bookyourdock-api/models"
	"github.com/bookyourdock/bookyourdock-api/realtime"
	"github.com/bookyourdock/bookyourdock-api/services"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// multipartUpload builds a document upload request
func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadDocument(t *testing.T) {
	env := setupControllerTest(t)
	carrier := env.seedCarrier(t, "Transports Martin", "")

	tests := []struct {
		name           string
		filename       string
		fields         map[string]string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:     "Valid PDF",
			filename: "cmr.pdf",
			fields: map[string]string{
				"carrier_id":    carrier.ID,
				"license_plate": "ab-123-cd",
				"mission_name":  "M1",
				"document_type": "cmr",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Missing file",
			fields:         map[string]string{"carrier_id": carrier.ID, "license_plate": "AB-123-CD"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "FILE_REQUIRED",
		},
		{
			name:           "Unsupported format",
			filename:       "script.sh",
			fields:         map[string]string{"carrier_id": carrier.ID, "license_plate": "AB-123-CD"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_FILE_FORMAT",
		},
		{
			name:           "Missing plate",
			filename:       "cmr.pdf",
			fields:         map[string]string{"carrier_id": carrier.ID},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := multipartUpload(t, tt.filename, []byte("%PDF-1.4"), tt.fields)
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, errorCode(response))
				return
			}

			data := response["data"].(map[string]interface{})
			assert.Equal(t, "AB-123-CD", data["license_plate"])
			assert.Equal(t, "M1", data["mission_name"])
			assert.Equal(t, "cmr.pdf", data["document_name"])
			assert.NotContains(t, data, "StorageKey")
			assert.True(t, strings.HasPrefix(data["document_url"].(string), "https://test-bucket.s3.eu-west-3.amazonaws.com/documents/"))
		})
	}

	assert.Len(t, env.blobs.Keys(), 1)

	w, response := env.doJSON(t, http.MethodGet, "/api/v1/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, response["data"].([]interface{}), 1)

	w, response = env.doJSON(t, http.MethodGet, "/api/v1/documents/types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, response["data"], "delivery_note")
}

func TestUploadDocument_StorageNotConfigured(t *testing.T) {
	env := setupControllerTest(t)
	services.SetBlobStore(nil)

	req := multipartUpload(t, "cmr.pdf", []byte("%PDF"), map[string]string{"license_plate": "AB-123-CD"})
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRunArchiver(t *testing.T) {
	env := setupControllerTest(t)
	carrier := env.seedCarrier(t, "Transports Martin", "")

	// Nothing uploaded yesterday yet
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		w, response := env.doJSON(t, method, "/api/v1/archives/run", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "No documents to archive", response["message"])
		assert.Equal(t, float64(0), response["archived"])
	}

	start, _ := services.ArchiveWindow(time.Now(), time.Local)
	uploadedAt := start.Add(12 * time.Hour).UTC()
	for _, name := range []string{"a.pdf", "b.pdf"} {
		document := models.Document{
			CarrierID:    carrier.ID,
			LicensePlate: "EF-456-GH",
			DocumentName: name,
			DocumentURL:  "https://example.com/" + name,
			StorageKey:   "documents/" + name,
			DocumentType: "cmr",
			UploadDate:   uploadedAt,
			CreatedAt:    uploadedAt,
		}
		require.NoError(t, env.db.Create(&document).Error)
	}

	w, response := env.doJSON(t, http.MethodPost, "/api/v1/archives/run", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Archives created successfully", response["message"])
	assert.Equal(t, float64(1), response["archived"])
	assert.NotContains(t, response, "success")
	details := response["details"].([]interface{})
	require.Len(t, details, 1)
	detail := details[0].(map[string]interface{})
	assert.Equal(t, "EF-456-GH", detail["license_plate"])
	assert.Equal(t, "default", detail["mission_name"])
	assert.Equal(t, float64(2), detail["count"])

	w, response = env.doJSON(t, http.MethodGet, "/api/v1/archives", nil)
	require.Equal(t, http.StatusOK, w.Code)
	archives := response["data"].([]interface{})
	require.Len(t, archives, 1)
	assert.Equal(t, float64(2), archives[0].(map[string]interface{})["document_count"])
}

func TestRunArchiver_FetchFailure(t *testing.T) {
	env := setupControllerTest(t)
	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w, response := env.doJSON(t, http.MethodPost, "/api/v1/archives/run", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, response, "error")
	assert.IsType(t, "", response["error"])
}

func TestGetTimeReport(t *testing.T) {
	env := setupControllerTest(t)
	carrier := env.seedCarrier(t, "Transports Martin", "")

	entered := time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Minute)
	parking := entered.Add(15 * time.Minute)
	loading := parking.Add(30 * time.Minute)
	completed := loading.Add(45 * time.Minute)
	operation := models.Operation{
		CarrierID:             carrier.ID,
		LicensePlate:          "AB-123-CD",
		Status:                models.StatusOperationsDone,
		EnteredSiteAt:         &entered,
		ParkingAt:             &parking,
		CalledToLoadingAt:     &loading,
		OperationsCompletedAt: &completed,
		CreatedAt:             entered,
		UpdatedAt:             completed,
	}
	require.NoError(t, env.db.Create(&operation).Error)

	w, response := env.doJSON(t, http.MethodGet, "/api/v1/reports/time", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := response["data"].(map[string]interface{})
	rows := data["rows"].([]interface{})
	require.Len(t, rows, 1)
	row := rows[0].(map[string]interface{})
	assert.Equal(t, float64(15), row["acces_au_site_time"])
	assert.Equal(t, float64(30), row["attente_parking_time"])
	assert.Nil(t, row["quai_dechargement_time"])
	assert.Equal(t, float64(90), row["total_time"])

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/time?format=csv", nil)
	csvRecorder := httptest.NewRecorder()
	env.router.ServeHTTP(csvRecorder, req)
	require.Equal(t, http.StatusOK, csvRecorder.Code)
	assert.Equal(t, "text/csv; charset=utf-8", csvRecorder.Header().Get("Content-Type"))
	assert.Contains(t, csvRecorder.Header().Get("Content-Disposition"), "rapport-temps-")

	records, err := csv.NewReader(csvRecorder.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "AB-123-CD", records[1][1])
	assert.Equal(t, "1h 30min", records[1][7])

	w, response = env.doJSON(t, http.MethodGet, "/api/v1/reports/time?start_date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(response))
}

func TestStreamChanges(t *testing.T) {
	env := setupControllerTest(t)
	server := httptest.NewServer(env.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/realtime?table=operations,documents"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.feed.SubscriberCount() == 2 }, time.Second, 10*time.Millisecond)

	env.feed.Publish(realtime.Event{Table: realtime.TableCarriers, Action: realtime.ActionInsert, RecordID: "skipped"})
	env.feed.Publish(realtime.Event{Table: realtime.TableDocuments, Action: realtime.ActionInsert, RecordID: "doc-1"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var event realtime.Event
	require.NoError(t, json.Unmarshal(message, &event))
	assert.Equal(t, realtime.TableDocuments, event.Table)
	assert.Equal(t, "doc-1", event.RecordID)
}

func TestStreamChanges_FeedNotRunning(t *testing.T) {
	env := setupControllerTest(t)
	realtime.SetFeed(nil)

	w, response := env.doJSON(t, http.MethodGet, "/api/v1/realtime", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "REALTIME_UNAVAILABLE", errorCode(response))
}
