// Package retriever finds the fragments most similar to a query.
package retriever

import (
	"context"
	"slices"

	"github.com/Yogesh-0811/RAG-Notebook/internal/domain"
)

// TopK is the number of fragments handed to the prompt.
const TopK = 5

// Retriever embeds a query and searches the vector index with it.
type Retriever struct {
	emb   domain.Embedder
	index domain.VectorIndex
	topK  int
}

// New returns a retriever that asks the index for TopK hits.
func New(emb domain.Embedder, index domain.VectorIndex) *Retriever {
	return &Retriever{emb: emb, index: index, topK: TopK}
}

// Retrieve returns at most TopK context items ordered by descending score.
// An empty index yields an empty, non-nil slice.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.ContextItem, error) {
	vec, err := r.emb.EmbedOne(ctx, query)
	if err != nil {
		return nil, domain.NewError(domain.ErrEmbedding, "embed query", err)
	}
	hits, err := r.index.Search(ctx, vec, r.topK)
	if err != nil {
		return nil, domain.NewError(domain.ErrGateway, "search", err)
	}

	items := make([]domain.ContextItem, 0, len(hits))
	for _, h := range hits {
		items = append(items, domain.ContextItemFrom(h))
	}
	slices.SortStableFunc(items, func(a, b domain.ContextItem) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(items) > r.topK {
		items = items[:r.topK]
	}
	return items, nil
}
