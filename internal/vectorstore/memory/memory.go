package memory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/Yogesh-0811/RAG-Notebook/internal/domain"
)

// Storage is a simple in-memory vector store using brute-force cosine similarity.
// It is append-only and safe for concurrent use.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
	fragments []domain.Fragment
}

func NewStorage() *Storage { return &Storage{} }

// Upsert appends the records. The first call fixes the vector dimension.
func (s *Storage) Upsert(ctx context.Context, fragments []domain.Fragment, vectors [][]float64) error {
	if len(fragments) != len(vectors) {
		return errors.New("fragments and vectors length mismatch")
	}
	if len(vectors) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dim := s.dimension
	if dim == 0 {
		dim = len(vectors[0])
	}
	for _, v := range vectors {
		if len(v) != dim || dim == 0 {
			return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(v), dim)
		}
	}
	s.dimension = dim
	for _, v := range vectors {
		s.vectors = append(s.vectors, normalized(v))
	}
	s.fragments = append(s.fragments, fragments...)
	return nil
}

// Search returns up to topK fragments by descending cosine similarity.
// Equal scores keep insertion order.
func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.vectors) == 0 {
		return []domain.SearchResult{}, nil
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: got %d, want %d", len(vector), s.dimension)
	}
	if topK <= 0 {
		topK = 5
	}
	q := normalized(vector)
	results := make([]domain.SearchResult, len(s.vectors))
	for i := range s.vectors {
		results[i] = domain.SearchResult{Fragment: s.fragments[i], Score: dot(s.vectors[i], q)}
	}
	slices.SortStableFunc(results, func(a, b domain.SearchResult) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// Len reports how many records are stored.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fragments)
}

func (s *Storage) Close() error { return nil }

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func normalized(v []float64) []float64 {
	out := make([]float64, len(v))
	norm := math.Sqrt(dot(v, v))
	if norm == 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
