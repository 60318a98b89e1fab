package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yogesh-0811/RAG-Notebook/internal/config"
	"github.com/Yogesh-0811/RAG-Notebook/internal/domain"
	"github.com/Yogesh-0811/RAG-Notebook/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	indexErr error
	chatErr  error

	input, sourceType string
	fileBody          string
	fileExisted       bool
	query             string
}

func (f *fakeService) Index(ctx context.Context, input, sourceType string) (*domain.IndexResult, error) {
	f.input, f.sourceType = input, sourceType
	if b, err := os.ReadFile(input); err == nil {
		f.fileExisted = true
		f.fileBody = string(b)
	}
	if f.indexErr != nil {
		return nil, f.indexErr
	}
	st, err := domain.ParseSourceType(sourceType)
	if err != nil {
		return nil, err
	}
	return &domain.IndexResult{Success: true, Type: st, Input: input, DocumentsCount: 2, OriginalDocsCount: 3}, nil
}

func (f *fakeService) Chat(ctx context.Context, query string) (string, error) {
	f.query = query
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return "Plan A costs 10 dollars.", nil
}

func newTestServer(t *testing.T, svc *fakeService) *Server {
	t.Helper()
	log, _ := test.NewNullLogger()
	cfg := config.ServerConfig{UploadDir: filepath.Join(t.TempDir(), "uploads"), MaxUploadMB: 1}
	return New(cfg, svc, metrics.New(), log)
}

func do(s *Server, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func jsonRequest(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, path string, fields map[string]string, fileName, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestIndexing_URL(t *testing.T) {
	svc := &fakeService{}
	w, body := do(newTestServer(t, svc), jsonRequest("/api/indexing", `{"input":"https://example.com","type":"url"}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "URL processed successfully", body["message"])
	assert.Equal(t, "url", body["type"])
	assert.Equal(t, float64(2), body["documentsCount"])
	assert.Equal(t, float64(3), body["originalDocsCount"])
	assert.Equal(t, "https://example.com", svc.input)
}

func TestIndexing_JSONRejectsFiles(t *testing.T) {
	svc := &fakeService{}
	s := newTestServer(t, svc)

	w, body := do(s, jsonRequest("/api/indexing", `{"input":"report.pdf","type":"pdf"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "JSON requests only support URLs")

	w, body = do(s, jsonRequest("/api/indexing", `{"type":"url"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "Missing input or type parameter")
	assert.Empty(t, svc.input)
}

func TestIndexing_TypeTagIsExact(t *testing.T) {
	svc := &fakeService{}
	s := newTestServer(t, svc)

	w, body := do(s, jsonRequest("/api/indexing", `{"input":"https://example.com","type":"URL"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "JSON requests only support URLs")
	assert.Empty(t, svc.input)

	req := multipartRequest(t, "/api/indexing", map[string]string{"type": "PDF"}, "report.pdf", "%PDF-1.4")
	w, body = do(s, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], domain.ErrUnsupportedType.Error())
}

func TestIndexing_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid url", domain.NewError(domain.ErrInvalidURL, "load", nil), http.StatusBadRequest},
		{"no content", domain.NewError(domain.ErrNoContent, "load", nil), http.StatusInternalServerError},
		{"gateway", domain.NewError(domain.ErrGateway, "upsert", errors.New("refused")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{indexErr: tt.err}
			w, body := do(newTestServer(t, svc), jsonRequest("/api/indexing", `{"input":"https://x.dev","type":"url"}`))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.err.Error(), body["error"])
		})
	}
}

func TestIndexing_MultipartRemovesTempFile(t *testing.T) {
	for _, fail := range []bool{false, true} {
		svc := &fakeService{}
		if fail {
			svc.indexErr = domain.NewError(domain.ErrEmbedding, "embed", errors.New("timeout"))
		}
		req := multipartRequest(t, "/api/indexing", map[string]string{"type": "csv"}, "plans.csv", "plan,price\nbasic,0\n")
		w, body := do(newTestServer(t, svc), req)

		assert.True(t, svc.fileExisted)
		assert.Equal(t, "plan,price\nbasic,0\n", svc.fileBody)
		assert.Contains(t, filepath.Base(svc.input), "upload_")
		assert.True(t, strings.HasSuffix(svc.input, "_plans.csv"))
		_, err := os.Stat(svc.input)
		assert.True(t, os.IsNotExist(err), "temp file should be removed")

		if fail {
			assert.Equal(t, http.StatusInternalServerError, w.Code)
		} else {
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "CSV file processed successfully", body["message"])
		}
	}
}

func TestIndexing_MultipartMissingType(t *testing.T) {
	svc := &fakeService{}
	req := multipartRequest(t, "/api/indexing", nil, "plans.csv", "a,b\n")
	w, body := do(newTestServer(t, svc), req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "Missing file or type parameter")
	assert.Empty(t, svc.input)
}

func TestUpload(t *testing.T) {
	s := newTestServer(t, &fakeService{})
	req := multipartRequest(t, "/api/upload", nil, "../../report.PDF", "%PDF-1.4")
	w, body := do(s, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "File uploaded successfully", body["message"])
	path, _ := body["filePath"].(string)
	assert.Equal(t, s.cfg.UploadDir, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, "-report.PDF"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestUpload_Rejects(t *testing.T) {
	s := newTestServer(t, &fakeService{})

	w, body := do(s, multipartRequest(t, "/api/upload", nil, "notes.txt", "hello"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "Only PDF and CSV files are allowed!")

	w, body = do(s, multipartRequest(t, "/api/upload", map[string]string{"type": "pdf"}, "", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "No file uploaded")
}

func TestChat(t *testing.T) {
	svc := &fakeService{}
	w, body := do(newTestServer(t, svc), jsonRequest("/api/chat", `{"message":"How much is plan A?"}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Plan A costs 10 dollars.", body["response"])
	assert.NotEmpty(t, body["timestamp"])
	assert.Equal(t, "How much is plan A?", svc.query)
}

func TestChat_Errors(t *testing.T) {
	s := newTestServer(t, &fakeService{chatErr: domain.NewError(domain.ErrEmptyQuery, "chat", nil)})
	w, body := do(s, jsonRequest("/api/chat", `{"message":"   "}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "message is required", body["error"])

	w, _ = do(s, jsonRequest("/api/chat", `not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s = newTestServer(t, &fakeService{chatErr: domain.NewError(domain.ErrGeneration, "generate", errors.New("rate limited"))})
	w, body = do(s, jsonRequest("/api/chat", `{"message":"hi there"}`))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "answer generation failed: rate limited", body["error"])
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, &fakeService{})

	w, body := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `rag_http_requests_total{method="GET",path="/healthz",status="2xx"} 1`)
}

func TestRun_StopsOnCancel(t *testing.T) {
	log, _ := test.NewNullLogger()
	s := New(config.ServerConfig{Addr: "127.0.0.1:0"}, &fakeService{}, nil, log)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}
