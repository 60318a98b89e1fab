package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Yogesh-0811/RAG-Notebook/internal/domain"
)

// Storage is a minimal REST client to Qdrant.
// It creates the collection on the first upsert if it does not exist.
type Storage struct {
	url        string
	apiKey     string
	collection string
	distance   string
	client     *http.Client

	mu    sync.Mutex
	ready bool
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Distance   string
	Timeout    time.Duration
}

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("qdrant: not found")

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	distance := cfg.Distance
	if distance == "" {
		distance = "Cosine"
	}
	return &Storage{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		distance:   distance,
		client:     &http.Client{Timeout: timeout},
	}
}

// payload is the stored point payload, in the layout LangChain's Qdrant
// store uses.
type payload struct {
	Content  string   `json:"content"`
	Metadata metadata `json:"metadata"`
}

type metadata struct {
	Source string    `json:"source,omitempty"`
	Type   string    `json:"type,omitempty"`
	Loc    *location `json:"loc,omitempty"`
}

type location struct {
	PageNumber int `json:"pageNumber,omitempty"`
}

type point struct {
	ID      string    `json:"id"`
	Vector  []float64 `json:"vector"`
	Payload payload   `json:"payload"`
}

// ensureCollection creates the collection when missing. It runs once per
// Storage after a success.
func (s *Storage) ensureCollection(ctx context.Context, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	err := s.do(ctx, http.MethodGet, s.collectionURL(""), nil, nil)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		body := map[string]any{
			"vectors": map[string]any{
				"size":     dimension,
				"distance": s.distance,
			},
		}
		if err := s.do(ctx, http.MethodPut, s.collectionURL(""), body, nil); err != nil {
			return fmt.Errorf("create collection %s: %w", s.collection, err)
		}
	default:
		return err
	}
	s.ready = true
	return nil
}

// Upsert appends one point per fragment under a fresh UUID and waits for
// the write to be applied.
func (s *Storage) Upsert(ctx context.Context, fragments []domain.Fragment, vectors [][]float64) error {
	if len(fragments) != len(vectors) {
		return errors.New("fragments and vectors length mismatch")
	}
	if len(vectors) == 0 {
		return nil
	}
	if err := s.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}
	points := make([]point, len(fragments))
	for i, f := range fragments {
		p := point{
			ID:     uuid.NewString(),
			Vector: vectors[i],
			Payload: payload{
				Content:  f.Content,
				Metadata: metadata{Source: f.SourceLocation, Type: string(f.SourceType)},
			},
		}
		if f.HasPage() {
			p.Payload.Metadata.Loc = &location{PageNumber: f.PageNumber}
		}
		points[i] = p
	}
	body := map[string]any{"points": points}
	return s.do(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), body, nil)
}

// Search returns the closest points. A missing collection means nothing has
// been indexed yet and yields an empty result.
func (s *Storage) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload payload `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionURL("/points/search"), req, &resp); err != nil {
		if errors.Is(err, ErrNotFound) {
			return []domain.SearchResult{}, nil
		}
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		f := domain.Fragment{
			Content:        r.Payload.Content,
			SourceType:     domain.SourceType(r.Payload.Metadata.Type),
			SourceLocation: r.Payload.Metadata.Source,
		}
		if r.Payload.Metadata.Loc != nil {
			f.PageNumber = r.Payload.Metadata.Loc.PageNumber
		}
		results = append(results, domain.SearchResult{Fragment: f, Score: r.Score})
	}
	return results, nil
}

func (s *Storage) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Storage) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, url.PathEscape(s.collection), suffix)
}

func (s *Storage) do(ctx context.Context, method, target string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("qdrant %s %s: %w", method, target, ErrNotFound)
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("qdrant %s %s failed: %s: %s", method, target, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
