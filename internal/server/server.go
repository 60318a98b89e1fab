// Package server exposes the RAG service over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Yogesh-0811/RAG-Notebook/internal/config"
	"github.com/Yogesh-0811/RAG-Notebook/internal/domain"
	"github.com/Yogesh-0811/RAG-Notebook/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

// Server represents the HTTP API.
type Server struct {
	cfg     config.ServerConfig
	svc     domain.RAGService
	metrics *metrics.Metrics
	log     logrus.FieldLogger
	router  *gin.Engine
}

// New creates a Server and registers its routes. m may be nil, in which case
// /metrics is not served.
func New(cfg config.ServerConfig, svc domain.RAGService, m *metrics.Metrics, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		metrics: m,
		log:     log.WithField("component", "http"),
		router:  gin.New(),
	}
	s.router.MaxMultipartMemory = s.maxUploadBytes()
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(loggingMiddleware(s.log))
	s.router.Use(metricsMiddleware(s.metrics))
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.healthCheck)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := s.router.Group("/api")
	{
		api.POST("/indexing", s.index)
		api.POST("/upload", s.upload)
		api.POST("/chat", s.chat)
	}
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) maxUploadBytes() int64 {
	mb := s.cfg.MaxUploadMB
	if mb <= 0 {
		mb = 32
	}
	return int64(mb) << 20
}

// requestContext bounds the pipeline run by the configured request timeout.
func (s *Server) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if t := s.cfg.Timeout(); t > 0 {
		return context.WithTimeout(c.Request.Context(), t)
	}
	return context.WithCancel(c.Request.Context())
}
