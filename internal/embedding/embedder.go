// Package embedding selects the text embedder named in configuration.
package embedding

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Yogesh-0811/RAG-Notebook/internal/config"
	"github.com/Yogesh-0811/RAG-Notebook/internal/domain"
	"github.com/Yogesh-0811/RAG-Notebook/internal/embedding/hashing"
	"github.com/Yogesh-0811/RAG-Notebook/internal/embedding/openai"
)

// New builds the embedder selected by cfg.Type.
func New(cfg config.EmbedderConfig, log logrus.FieldLogger) (domain.Embedder, error) {
	switch cfg.Type {
	case "openai", "":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKeyEnv:  cfg.OpenAI.APIKeyEnv,
			Model:      cfg.OpenAI.Model,
			Timeout:    cfg.OpenAI.Timeout(),
			BatchSize:  cfg.OpenAI.BatchSize,
			MaxRetries: cfg.OpenAI.Retries(),
		}, log)
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	case "hashing":
		dim := 256
		if cfg.Hashing != nil && cfg.Hashing.Dimension > 0 {
			dim = cfg.Hashing.Dimension
		}
		emb, err := hashing.NewEmbedder(dim)
		if err != nil {
			return nil, err
		}
		return emb, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}
