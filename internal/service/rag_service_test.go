package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yogesh-0811/RAG-Notebook/internal/domain"
	"github.com/Yogesh-0811/RAG-Notebook/internal/embedding/hashing"
	"github.com/Yogesh-0811/RAG-Notebook/internal/loader"
	"github.com/Yogesh-0811/RAG-Notebook/internal/metrics"
	"github.com/Yogesh-0811/RAG-Notebook/internal/prompt"
	"github.com/Yogesh-0811/RAG-Notebook/internal/vectorstore/memory"
)

type fakeModel struct {
	reply  string
	err    error
	calls  atomic.Int32
	system string
	user   string
}

func (f *fakeModel) Complete(ctx context.Context, system, user string) (string, error) {
	f.calls.Add(1)
	f.system, f.user = system, user
	return f.reply, f.err
}

// probeFailEmbedder fails single embeddings and counts batch calls.
type probeFailEmbedder struct {
	batches atomic.Int32
}

func (p *probeFailEmbedder) Name() string { return "probe-fail" }

func (p *probeFailEmbedder) EmbedOne(ctx context.Context, text string) ([]float64, error) {
	return nil, errors.New("401 unauthorized")
}

func (p *probeFailEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	p.batches.Add(1)
	return nil, errors.New("unreachable")
}

type failingIndex struct{}

func (failingIndex) Upsert(ctx context.Context, f []domain.Fragment, v [][]float64) error {
	return errors.New("connection refused")
}

func (failingIndex) Search(ctx context.Context, v []float64, k int) ([]domain.SearchResult, error) {
	return nil, errors.New("connection refused")
}

func (failingIndex) Close() error { return nil }

type noNetwork struct{ t *testing.T }

func (n noNetwork) RoundTrip(r *http.Request) (*http.Response, error) {
	n.t.Errorf("unexpected request to %s", r.URL)
	return nil, errors.New("no network")
}

type fixture struct {
	svc   *RAGServiceImpl
	store *memory.Storage
	model *fakeModel
}

func newFixture(t *testing.T, emb domain.Embedder, index domain.VectorIndex) fixture {
	t.Helper()
	log, _ := test.NewNullLogger()
	if emb == nil {
		h, err := hashing.NewEmbedder(128)
		require.NoError(t, err)
		emb = h
	}
	store := memory.NewStorage()
	if index == nil {
		index = store
	}
	model := &fakeModel{reply: "**Yes**, the `basic` plan is free."}
	ld := loader.New(loader.Options{Client: &http.Client{Transport: noNetwork{t}}}, log)
	return fixture{
		svc:   NewRAGService(ld, emb, index, model, metrics.New(), log),
		store: store,
		model: model,
	}
}

func writeCSV(t *testing.T, rows int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("plan,description\n")
	for i := 1; i <= rows; i++ {
		fmt.Fprintf(&b, "plan-%d,includes %d seats and email support\n", i, i*5)
	}
	path := filepath.Join(t.TempDir(), "plans.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestIndex_CSV(t *testing.T) {
	f := newFixture(t, nil, nil)
	path := writeCSV(t, 3)

	res, err := f.svc.Index(context.Background(), path, "csv")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, domain.SourceCSV, res.Type)
	assert.Equal(t, path, res.Input)
	assert.Equal(t, 3, res.DocumentsCount)
	assert.Equal(t, 3, res.OriginalDocsCount)
	assert.Equal(t, 3, f.store.Len())
}

func TestIndex_InvalidURLMakesNoRequest(t *testing.T) {
	f := newFixture(t, nil, nil)
	_, err := f.svc.Index(context.Background(), "ftp://x", "url")
	require.ErrorIs(t, err, domain.ErrInvalidURL)
	assert.True(t, domain.IsBadInput(err))
	assert.Zero(t, f.store.Len())
}

func TestIndex_BadParameters(t *testing.T) {
	f := newFixture(t, nil, nil)

	_, err := f.svc.Index(context.Background(), "  ", "csv")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.Index(context.Background(), "notes.docx", "docx")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	_, err = f.svc.Index(context.Background(), writeCSV(t, 3), "CSV")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.Zero(t, f.store.Len())
}

func TestIndex_NoValidContent(t *testing.T) {
	f := newFixture(t, nil, nil)
	path := filepath.Join(t.TempDir(), "tiny.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\n"), 0o644))

	_, err := f.svc.Index(context.Background(), path, "csv")
	assert.ErrorIs(t, err, domain.ErrNoValidContent)
	assert.False(t, domain.IsBadInput(err))
}

func TestIndex_ProbeFailureStopsBeforeBatch(t *testing.T) {
	emb := &probeFailEmbedder{}
	f := newFixture(t, emb, nil)

	_, err := f.svc.Index(context.Background(), writeCSV(t, 11), "csv")
	require.ErrorIs(t, err, domain.ErrEmbeddingValidation)
	assert.Zero(t, emb.batches.Load())
	assert.Zero(t, f.store.Len())
}

func TestIndex_NoProbeForSmallInputs(t *testing.T) {
	emb := &probeFailEmbedder{}
	f := newFixture(t, emb, nil)

	_, err := f.svc.Index(context.Background(), writeCSV(t, 10), "csv")
	require.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Equal(t, int32(1), emb.batches.Load())
}

func TestIndex_GatewayFailure(t *testing.T) {
	f := newFixture(t, nil, failingIndex{})
	_, err := f.svc.Index(context.Background(), writeCSV(t, 2), "csv")
	assert.ErrorIs(t, err, domain.ErrGateway)
}

func TestIndex_ConcurrentRunsArePersisted(t *testing.T) {
	f := newFixture(t, nil, nil)
	a, b := writeCSV(t, 4), writeCSV(t, 6)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, path := range []string{a, b} {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			_, errs[i] = f.svc.Index(context.Background(), path, "csv")
		}(i, path)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 10, f.store.Len())
}

func TestChat_EmptyIndexReturnsFallback(t *testing.T) {
	f := newFixture(t, nil, nil)
	reply, err := f.svc.Chat(context.Background(), "what is the refund policy?")
	require.NoError(t, err)
	assert.Equal(t, prompt.FallbackAnswer, reply)
	assert.Zero(t, f.model.calls.Load())
}

func TestChat_AnswersFromContext(t *testing.T) {
	f := newFixture(t, nil, nil)
	_, err := f.svc.Index(context.Background(), writeCSV(t, 8), "csv")
	require.NoError(t, err)

	reply, err := f.svc.Chat(context.Background(), "  how many seats does plan-2 include?  ")
	require.NoError(t, err)
	assert.Equal(t, "Yes, the basic plan is free.", reply)
	assert.Equal(t, int32(1), f.model.calls.Load())
	assert.Equal(t, "how many seats does plan-2 include?", f.model.user)
	assert.Contains(t, f.model.system, "Document 1 (Source: ")
	assert.Contains(t, f.model.system, "Page: Unknown page")
	assert.Contains(t, f.model.system, "Document 5 (")
	assert.NotContains(t, f.model.system, "Document 6 (")
}

func TestChat_Errors(t *testing.T) {
	f := newFixture(t, nil, nil)
	_, err := f.svc.Chat(context.Background(), " \n\t")
	require.ErrorIs(t, err, domain.ErrEmptyQuery)
	assert.True(t, domain.IsBadInput(err))

	_, err = f.svc.Index(context.Background(), writeCSV(t, 2), "csv")
	require.NoError(t, err)
	f.model.err = errors.New("model overloaded")
	_, err = f.svc.Chat(context.Background(), "plan-1 seats")
	assert.ErrorIs(t, err, domain.ErrGeneration)

	g := newFixture(t, nil, failingIndex{})
	_, err = g.svc.Chat(context.Background(), "plan-1 seats")
	assert.ErrorIs(t, err, domain.ErrGateway)
}
