package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Yogesh-0811/RAG-Notebook/internal/domain"
)

var allowedUploads = map[string]bool{".pdf": true, ".csv": true}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// index accepts either a multipart file with a type field or a JSON body
// naming a URL.
func (s *Server) index(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		s.indexFile(c)
		return
	}

	var req struct {
		Input string `json:"input"`
		Type  string `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, domain.NewError(domain.ErrInvalidInput, "bind", err))
		return
	}
	if strings.TrimSpace(req.Input) == "" || strings.TrimSpace(req.Type) == "" {
		s.fail(c, badRequest("Missing input or type parameter"))
		return
	}
	if req.Type != string(domain.SourceURL) {
		s.fail(c, badRequest("For files, use multipart/form-data. JSON requests only support URLs."))
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()
	res, err := s.svc.Index(ctx, req.Input, req.Type)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, indexResponse("URL processed successfully", res))
}

func (s *Server) indexFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes())
	fh, err := c.FormFile("file")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		s.fail(c, uploadError(err))
		return
	}
	sourceType := c.PostForm("type")
	if fh == nil || strings.TrimSpace(sourceType) == "" {
		s.fail(c, badRequest("Missing file or type parameter"))
		return
	}

	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("upload_%d_%s", time.Now().UnixMilli(), safeName(fh)))
	if err := c.SaveUploadedFile(fh, tmp); err != nil {
		s.fail(c, fmt.Errorf("save upload: %w", err))
		return
	}
	defer func() {
		if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.WithError(err).WithField("path", tmp).Warn("failed to remove temp file")
		}
	}()

	ctx, cancel := s.requestContext(c)
	defer cancel()
	res, err := s.svc.Index(ctx, tmp, sourceType)
	if err != nil {
		s.fail(c, err)
		return
	}
	msg := strings.ToUpper(sourceType) + " file processed successfully"
	c.JSON(http.StatusOK, indexResponse(msg, res))
}

// upload stores a PDF or CSV file under the upload directory.
func (s *Server) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes())
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		s.fail(c, badRequest("No file uploaded"))
		return
	}
	if err != nil {
		s.fail(c, uploadError(err))
		return
	}
	name := safeName(fh)
	if !allowedUploads[strings.ToLower(filepath.Ext(name))] {
		s.fail(c, badRequest("Only PDF and CSV files are allowed!"))
		return
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		s.fail(c, fmt.Errorf("create upload dir: %w", err))
		return
	}
	dst := filepath.Join(s.cfg.UploadDir, fmt.Sprintf("%d-%s", time.Now().UnixMilli(), name))
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		s.fail(c, fmt.Errorf("save upload: %w", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"filePath":     dst,
		"originalName": fh.Filename,
		"message":      "File uploaded successfully",
	})
}

func (s *Server) chat(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, domain.NewError(domain.ErrEmptyQuery, "bind", nil))
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()
	reply, err := s.svc.Chat(ctx, req.Message)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"response":  reply,
		"timestamp": time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

// fail writes the error envelope: 400 for caller mistakes, 500 otherwise.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
	case domain.IsBadInput(err):
		status = http.StatusBadRequest
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

func indexResponse(msg string, res *domain.IndexResult) gin.H {
	return gin.H{
		"success":           true,
		"message":           msg,
		"type":              res.Type,
		"input":             res.Input,
		"documentsCount":    res.DocumentsCount,
		"originalDocsCount": res.OriginalDocsCount,
	}
}

func badRequest(msg string) error {
	return domain.NewError(domain.ErrInvalidInput, "request", errors.New(msg))
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return domain.NewError(domain.ErrInvalidInput, "read upload", err)
}

// safeName drops any directory components a client put in the file name.
func safeName(fh *multipart.FileHeader) string {
	name := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(fh.Filename, `\`, "/")))
	if name == "/" || name == "." {
		return "upload"
	}
	return name
}
