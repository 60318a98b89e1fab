// Package vectorstore selects the vector index named in configuration.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/Yogesh-0811/RAG-Notebook/internal/config"
	"github.com/Yogesh-0811/RAG-Notebook/internal/domain"
	"github.com/Yogesh-0811/RAG-Notebook/internal/vectorstore/memory"
	"github.com/Yogesh-0811/RAG-Notebook/internal/vectorstore/pgvector"
	"github.com/Yogesh-0811/RAG-Notebook/internal/vectorstore/qdrant"
)

// New builds the store selected by cfg.Type.
func New(ctx context.Context, cfg config.VectorStoreConfig) (domain.VectorIndex, error) {
	switch cfg.Type {
	case "memory":
		return memory.NewStorage(), nil
	case "qdrant", "":
		if cfg.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Distance:   cfg.Qdrant.Distance,
			Timeout:    cfg.Qdrant.Timeout(),
		}), nil
	case "pgvector":
		if cfg.PGVector == nil {
			return nil, fmt.Errorf("pgvector config missing")
		}
		st, err := pgvector.NewStorage(ctx, pgvector.Config{
			DSN:      cfg.PGVector.DSN,
			Table:    cfg.PGVector.Table,
			MaxConns: cfg.PGVector.MaxConns,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.Type)
	}
}
