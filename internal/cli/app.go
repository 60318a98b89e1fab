package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Yogesh-0811/RAG-Notebook/internal/config"
	"github.com/Yogesh-0811/RAG-Notebook/internal/domain"
	"github.com/Yogesh-0811/RAG-Notebook/internal/embedding"
	"github.com/Yogesh-0811/RAG-Notebook/internal/llm/openai"
	"github.com/Yogesh-0811/RAG-Notebook/internal/loader"
	"github.com/Yogesh-0811/RAG-Notebook/internal/logging"
	"github.com/Yogesh-0811/RAG-Notebook/internal/metrics"
	"github.com/Yogesh-0811/RAG-Notebook/internal/service"
	"github.com/Yogesh-0811/RAG-Notebook/internal/vectorstore"
)

// app holds the assembled components shared by every command.
type app struct {
	cfg     *config.AppConfig
	log     *logrus.Logger
	metrics *metrics.Metrics
	svc     domain.RAGService
	close   func() error
}

// assemble is replaced in tests.
var assemble = assembleApp

func loadConfig() (*config.AppConfig, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

func assembleApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	emb, err := embedding.New(cfg.Embedder, log)
	if err != nil {
		return nil, fmt.Errorf("embedder init failed: %w", err)
	}
	index, err := vectorstore.New(ctx, cfg.VectorStore)
	if err != nil {
		return nil, fmt.Errorf("vector store init failed: %w", err)
	}

	var model domain.ChatModel
	client, err := openai.NewClient(openai.Config{
		BaseURL:     cfg.Chat.BaseURL,
		APIKeyEnv:   cfg.Chat.APIKeyEnv,
		Model:       cfg.Chat.Model,
		Temperature: cfg.Chat.Temperature,
		MaxTokens:   cfg.Chat.MaxTokens,
		Timeout:     cfg.Chat.Timeout(),
	})
	if err != nil {
		// Indexing works without a chat model; chat calls report the cause.
		log.WithError(err).Warn("chat model unavailable")
		model = unavailableModel{err: err}
	} else {
		model = client
	}

	ld := loader.New(loader.Options{
		Client:            &http.Client{},
		Timeout:           cfg.Loader.Timeout(),
		MaxDepth:          cfg.Loader.MaxDepth,
		ExcludeDirs:       cfg.Loader.ExcludeDirs,
		WrapWidth:         cfg.Loader.WrapWidth,
		RequestsPerSecond: cfg.Loader.RequestsPerSecond,
		MaxPageBytes:      cfg.Loader.MaxPageBytes,
	}, log)

	m := metrics.New()
	log.WithFields(logrus.Fields{
		"embedder":     emb.Name(),
		"vector_store": cfg.VectorStore.Type,
	}).Debug("components assembled")

	return &app{
		cfg:     cfg,
		log:     log,
		metrics: m,
		svc:     service.NewRAGService(ld, emb, index, model, m, log),
		close:   index.Close,
	}, nil
}

type unavailableModel struct{ err error }

func (u unavailableModel) Complete(ctx context.Context, system, user string) (string, error) {
	return "", u.err
}
