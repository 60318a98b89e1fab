package domain

import "context"

// Embedder converts text into fixed-length vectors using a single model.
type Embedder interface {
	Name() string
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	EmbedOne(ctx context.Context, text string) ([]float64, error)
}

// VectorIndex is the contract with the external vector database.
// Upsert only ever appends; Search returns at most topK results ordered by
// descending similarity.
type VectorIndex interface {
	Upsert(ctx context.Context, fragments []Fragment, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]SearchResult, error)
	Close() error
}

// ChatModel produces a single completion for a system prompt and user turn.
type ChatModel interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Loader turns a source location into raw fragments.
type Loader interface {
	Load(ctx context.Context, location string, sourceType SourceType) ([]Fragment, error)
}

// RAGService defines the operations exposed by the application core.
type RAGService interface {
	Index(ctx context.Context, input, sourceType string) (*IndexResult, error)
	Chat(ctx context.Context, query string) (string, error)
}
