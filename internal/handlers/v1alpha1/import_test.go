package v1alpha1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/kubev2v/stock-importer/api/v1alpha1"
	"github.com/kubev2v/stock-importer/internal/config"
	"github.com/kubev2v/stock-importer/internal/jobs"
	"github.com/kubev2v/stock-importer/internal/service"
	"github.com/kubev2v/stock-importer/internal/staging"
	"github.com/kubev2v/stock-importer/internal/store"
)

const validCSV = "externalId,name,quantity,expiryDate\nsku-1,widget,1,2027-01-31\n"

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	db, err := store.InitDB(config.NewDefault())
	require.NoError(t, err)

	s := store.NewStore(db)
	require.NoError(t, s.InitialMigration())
	t.Cleanup(func() { _ = s.Close() })

	stg, err := staging.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	pool := jobs.NewPool(1, 4)
	pool.Start(context.Background())
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })

	importSrv := service.NewImportService(s, stg, jobs.NewStatusStore(), pool,
		service.WithReportDir(t.TempDir()),
	)

	router := chi.NewRouter()
	NewServiceHandler(importSrv).RegisterRoutes(router)
	return router
}

type filePart struct {
	fieldName   string
	fileName    string
	contentType string
	content     string
}

func multipartBody(t *testing.T, fields map[string]string, file *filePart) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}

	if file != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.fieldName, file.fileName))
		if file.contentType != "" {
			header.Set("Content-Type", file.contentType)
		}
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte(file.content))
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func postImport(t *testing.T, router chi.Router, target string, fields map[string]string, file *filePart) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, fields, file)
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", contentType)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestCreateImportAccepted(t *testing.T) {
	router := newTestRouter(t)

	recorder := postImport(t, router, "/api/v1alpha1/imports", nil, &filePart{
		fieldName:   "file",
		fileName:    "items.csv",
		contentType: "text/csv",
		content:     validCSV,
	})
	require.Equal(t, http.StatusAccepted, recorder.Code)

	var accepted api.ImportAccepted
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &accepted))
	require.NotEmpty(t, accepted.Id)

	// the job eventually reaches a terminal step and reports its result
	require.Eventually(t, func() bool {
		req := httptest.NewRequest(http.MethodGet, "/api/v1alpha1/imports/"+accepted.Id, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			return false
		}

		var job api.ImportJob
		if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
			return false
		}
		return job.Step == "COMPLETE" && job.Result != nil && job.Result.Inserted == 1
	}, 10*time.Second, 20*time.Millisecond)
}

func TestCreateImportModeFormField(t *testing.T) {
	router := newTestRouter(t)

	recorder := postImport(t, router, "/api/v1alpha1/imports", map[string]string{"mode": "ATOMIC"}, &filePart{
		fieldName:   "file",
		fileName:    "items.csv",
		contentType: "text/csv",
		content:     validCSV,
	})
	assert.Equal(t, http.StatusAccepted, recorder.Code)
}

func TestCreateImportModeQueryParam(t *testing.T) {
	router := newTestRouter(t)

	recorder := postImport(t, router, "/api/v1alpha1/imports?mode=ATOMIC", nil, &filePart{
		fieldName:   "file",
		fileName:    "items.csv",
		contentType: "text/csv",
		content:     validCSV,
	})
	assert.Equal(t, http.StatusAccepted, recorder.Code)
}

func TestCreateImportEmptyFile(t *testing.T) {
	router := newTestRouter(t)

	recorder := postImport(t, router, "/api/v1alpha1/imports", nil, &filePart{
		fieldName:   "file",
		fileName:    "items.csv",
		contentType: "text/csv",
		content:     "",
	})
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var reply api.Error
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &reply))
	assert.Contains(t, reply.Message, "empty")
}

func TestCreateImportWrongContentType(t *testing.T) {
	router := newTestRouter(t)

	recorder := postImport(t, router, "/api/v1alpha1/imports", nil, &filePart{
		fieldName:   "file",
		fileName:    "items.xlsx",
		contentType: "application/vnd.ms-excel",
		content:     validCSV,
	})
	assert.Equal(t, http.StatusUnsupportedMediaType, recorder.Code)
}

func TestCreateImportOctetStreamWithCSVExtension(t *testing.T) {
	router := newTestRouter(t)

	recorder := postImport(t, router, "/api/v1alpha1/imports", nil, &filePart{
		fieldName:   "file",
		fileName:    "items.csv",
		contentType: "application/octet-stream",
		content:     validCSV,
	})
	assert.Equal(t, http.StatusAccepted, recorder.Code)
}

func TestCreateImportMissingFile(t *testing.T) {
	router := newTestRouter(t)

	recorder := postImport(t, router, "/api/v1alpha1/imports", map[string]string{"mode": "CHUNKED"}, nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var reply api.Error
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &reply))
	assert.Contains(t, reply.Message, "file is required")
}

func TestGetImportNotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1alpha1/imports/no-such-job", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestIsCSVUpload(t *testing.T) {
	assert.True(t, isCSVUpload("text/csv", "items.csv"))
	assert.True(t, isCSVUpload("text/csv; charset=utf-8", "items.csv"))
	assert.True(t, isCSVUpload("application/csv", "whatever.bin"))
	assert.True(t, isCSVUpload("application/octet-stream", "items.csv"))
	assert.True(t, isCSVUpload("", "ITEMS.CSV"))
	assert.False(t, isCSVUpload("application/octet-stream", "items.xlsx"))
	assert.False(t, isCSVUpload("text/plain", "items.csv"))
	assert.False(t, isCSVUpload("", "items.txt"))
}
