// Package service wires the indexing and chat pipelines together.
package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/Yogesh-0811/RAG-Notebook/internal/answer"
	"github.com/Yogesh-0811/RAG-Notebook/internal/domain"
	"github.com/Yogesh-0811/RAG-Notebook/internal/metrics"
	"github.com/Yogesh-0811/RAG-Notebook/internal/prompt"
	"github.com/Yogesh-0811/RAG-Notebook/internal/retriever"
	"github.com/Yogesh-0811/RAG-Notebook/internal/sanitizer"
)

const (
	// preflightThreshold is the fragment count above which one probe
	// embedding is requested before the full batch.
	preflightThreshold = 10
	preflightRunes     = 100
)

// RAGServiceImpl runs one sequential pipeline per call and holds no mutable
// state, so concurrent calls only share the vector index.
type RAGServiceImpl struct {
	loader    domain.Loader
	embedder  domain.Embedder
	index     domain.VectorIndex
	retriever *retriever.Retriever
	generator *answer.Generator
	metrics   *metrics.Metrics
	log       logrus.FieldLogger
}

var _ domain.RAGService = (*RAGServiceImpl)(nil)

// NewRAGService assembles the service. m may be nil.
func NewRAGService(ld domain.Loader, emb domain.Embedder, index domain.VectorIndex, model domain.ChatModel, m *metrics.Metrics, log logrus.FieldLogger) *RAGServiceImpl {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RAGServiceImpl{
		loader:    ld,
		embedder:  emb,
		index:     index,
		retriever: retriever.New(emb, index),
		generator: answer.NewGenerator(model),
		metrics:   m,
		log:       log.WithField("component", "service"),
	}
}

// Index loads, sanitizes, embeds and stores the fragments of one source.
func (s *RAGServiceImpl) Index(ctx context.Context, input, sourceType string) (res *IndexResult, err error) {
	label := "invalid"
	defer func() { s.metrics.IndexDone(label, docCount(res), err) }()

	input = strings.TrimSpace(input)
	if input == "" {
		return nil, domain.NewError(domain.ErrInvalidInput, "index", errors.New("input is required"))
	}
	st, err := domain.ParseSourceType(sourceType)
	if err != nil {
		return nil, err
	}
	label = string(st)
	log := s.log.WithFields(logrus.Fields{"type": st, "input": input})

	start := time.Now()
	raw, err := s.loader.Load(ctx, input, st)
	s.metrics.ObserveStage("load", start)
	if err != nil {
		log.WithError(err).Warn("load failed")
		return nil, err
	}

	fragments := sanitizer.SanitizeAll(raw)
	log.WithFields(logrus.Fields{"loaded": len(raw), "kept": len(fragments)}).Debug("sanitized")
	if len(fragments) == 0 {
		return nil, domain.NewError(domain.ErrNoValidContent, "sanitize", nil)
	}

	if len(fragments) > preflightThreshold {
		if _, err := s.embedder.EmbedOne(ctx, prefix(fragments[0].Content, preflightRunes)); err != nil {
			log.WithError(err).Error("embedding probe failed")
			return nil, domain.NewError(domain.ErrEmbeddingValidation, "probe", err)
		}
	}

	texts := make([]string, len(fragments))
	for i, f := range fragments {
		texts[i] = f.Content
	}
	start = time.Now()
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	s.metrics.ObserveStage("embed", start)
	if err != nil {
		log.WithError(err).Error("embedding failed")
		return nil, domain.NewError(domain.ErrEmbedding, "embed", err)
	}

	start = time.Now()
	err = s.index.Upsert(ctx, fragments, vectors)
	s.metrics.ObserveStage("upsert", start)
	if err != nil {
		log.WithError(err).Error("upsert failed")
		return nil, domain.NewError(domain.ErrGateway, "upsert", err)
	}

	log.WithField("count", len(fragments)).Info("indexed")
	return &IndexResult{
		Success:           true,
		Type:              st,
		Input:             input,
		DocumentsCount:    len(fragments),
		OriginalDocsCount: len(raw),
	}, nil
}

// Chat answers query from the indexed fragments. When nothing is retrieved
// the fallback sentence is returned without calling the chat model.
func (s *RAGServiceImpl) Chat(ctx context.Context, query string) (reply string, err error) {
	defer func() { s.metrics.ChatDone(err) }()

	query = strings.TrimSpace(query)
	if query == "" {
		return "", domain.NewError(domain.ErrEmptyQuery, "chat", nil)
	}

	start := time.Now()
	items, err := s.retriever.Retrieve(ctx, query)
	s.metrics.ObserveStage("retrieve", start)
	if err != nil {
		s.log.WithError(err).Error("retrieval failed")
		return "", err
	}
	if len(items) == 0 {
		s.log.Debug("no context retrieved")
		return prompt.FallbackAnswer, nil
	}

	start = time.Now()
	reply, err = s.generator.Generate(ctx, prompt.Build(items), query)
	s.metrics.ObserveStage("generate", start)
	if err != nil {
		s.log.WithError(err).Error("generation failed")
		return "", err
	}
	s.log.WithField("count", len(items)).Debug("answered")
	return reply, nil
}

// IndexResult is re-exported for callers that only import the service.
type IndexResult = domain.IndexResult

func docCount(r *IndexResult) int {
	if r == nil {
		return 0
	}
	return r.DocumentsCount
}

func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
