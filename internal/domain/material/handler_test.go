package material

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmnex/internal/ingest"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, store, _ := newTestService(t)
	h := NewHandler(svc, store, nil)

	r := gin.New()
	v1 := r.Group("/api/v1")
	RegisterRoutes(v1, h)
	RegisterFileRoutes(r, h)
	return r, svc
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestHandlerCreateAndGet(t *testing.T) {
	r, _ := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/materials", gin.H{
		"title":       "Soil testing walkthrough",
		"description": "How to take samples",
		"type":        TypeGuide,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, resp.Success)

	var created Material
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	require.NotEmpty(t, created.ID)

	w, resp = doJSON(t, r, http.MethodGet, "/api/v1/materials/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	w, resp = doJSON(t, r, http.MethodGet, "/api/v1/materials/missing-id", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestHandlerCreateRequiresFields(t *testing.T) {
	r, _ := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/materials", gin.H{"title": "no description"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_BODY", resp.Error.Code)
}

func multipartUpload(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, mw.WriteField(name, value))
	}
	for name, content := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="files"; filename="`+name+`"`)
		hdr.Set("Content-Type", contentTypeFor(name))
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func contentTypeFor(name string) string {
	switch {
	case len(name) > 4 && name[len(name)-4:] == ".pdf":
		return "application/pdf"
	case len(name) > 4 && name[len(name)-4:] == ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

func TestHandlerUploadBatch(t *testing.T) {
	r, _ := newTestRouter(t)

	body, contentType := multipartUpload(t,
		map[string]string{"category": "General", "batch_id": "upload-1"},
		map[string][]byte{
			"guide.pdf": []byte("pdf body"),
			"bad.bin":   []byte("mystery"),
		})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/materials/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMultiStatus, w.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	var outcome BatchOutcome
	require.NoError(t, json.Unmarshal(resp.Data, &outcome))
	assert.Equal(t, "upload-1", outcome.BatchID)
	assert.Equal(t, 1, outcome.Succeeded)
	assert.Equal(t, 1, outcome.Failed)
}

func TestHandlerUploadRequiresFiles(t *testing.T) {
	r, _ := newTestRouter(t)

	body, contentType := multipartUpload(t, map[string]string{"title": "empty"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/materials/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerDownloadAndServeFile(t *testing.T) {
	r, svc := newTestRouter(t)

	sub, err := ingest.NewBytesSubmission("notes.txt", "text/plain", []byte("field notes"))
	require.NoError(t, err)
	outcome, err := svc.UploadBatch(context.Background(), "dl-batch", BatchInput{}, []*ingest.FileSubmission{sub}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, outcome.Succeeded)

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/materials/"+outcome.Items[0].MaterialID+"/download", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out DownloadOutput
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	require.Contains(t, out.Link.URL, "?token=")

	// The signed URL serves the bytes; stripping the token is rejected.
	req := httptest.NewRequest(http.MethodGet, out.Link.URL, nil)
	got := httptest.NewRecorder()
	r.ServeHTTP(got, req)
	assert.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, "field notes", got.Body.String())

	bare := httptest.NewRequest(http.MethodGet, strings.SplitN(out.Link.URL, "?", 2)[0], nil)
	denied := httptest.NewRecorder()
	r.ServeHTTP(denied, bare)
	assert.Equal(t, http.StatusUnauthorized, denied.Code)
}
