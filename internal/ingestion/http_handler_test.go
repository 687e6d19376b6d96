package ingestion

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func uploadRequest(t *testing.T, fileName, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	r := httptest.NewRequest(http.MethodPost, "/admin/ingest", &body)
	r.Header.Set("Content-Type", writer.FormDataContentType())
	return r
}

func TestHandleUploadReturnsResult(t *testing.T) {
	repo := newStubFactRepo()
	handler := NewHTTPHandler(newTestService(repo, &stubLogRepo{}), &stubLogRepo{})

	rec := httptest.NewRecorder()
	handler.HandleUpload(rec, uploadRequest(t, "week12.csv",
		csvHeader+"Pump House,Pump House Lager .3550,24.99,2025,12,4,\n"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"insertedCount": 1`)
	require.Len(t, repo.rows, 1)
}

func TestHandleUploadStructuralErrorIsUnprocessable(t *testing.T) {
	handler := NewHTTPHandler(newTestService(newStubFactRepo(), &stubLogRepo{}), &stubLogRepo{})

	rec := httptest.NewRecorder()
	handler.HandleUpload(rec, uploadRequest(t, "week12.csv",
		"Item Description,Retail Price\nPump House Lager .3550,24.99\n"))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "VendorName")
}

func TestHandleUploadEmptyFileIsBadRequest(t *testing.T) {
	handler := NewHTTPHandler(newTestService(newStubFactRepo(), &stubLogRepo{}), &stubLogRepo{})

	rec := httptest.NewRecorder()
	handler.HandleUpload(rec, uploadRequest(t, "week12.csv", ""))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
