package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// Client is an OpenAI-compatible embeddings client implementing domain.Embedder.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	batchSize  int
	maxRetries int
	retryWait  time.Duration
	client     *http.Client
	log        logrus.FieldLogger
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
	// BatchSize caps how many inputs go into one request.
	BatchSize int
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// RetryWait is the initial backoff interval.
	RetryWait time.Duration
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config, log logrus.FieldLogger) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-large"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 512
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryWait == 0 {
		cfg.RetryWait = 500 * time.Millisecond
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     key,
		model:      cfg.Model,
		batchSize:  cfg.BatchSize,
		maxRetries: cfg.MaxRetries,
		retryWait:  cfg.RetryWait,
		client:     &http.Client{Timeout: cfg.Timeout},
		log:        log.WithField("component", "embedder"),
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai:" + c.model }

// EmbedOne returns an embedding vector for the given text.
func (c *Client) EmbedOne(ctx context.Context, text string) ([]float64, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in order, splitting them into requests of at most
// BatchSize inputs.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		vecs, err := c.embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// statusError is returned for non-2xx responses.
type statusError struct {
	Code   int
	Status string
	Body   string
}

func (e *statusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("openai embeddings failed: %s", e.Status)
	}
	return fmt.Sprintf("openai embeddings failed: %s: %s", e.Status, e.Body)
}

func (c *Client) embed(ctx context.Context, texts []string) ([][]float64, error) {
	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = strings.ReplaceAll(t, "\n", " ")
	}
	data, err := json.Marshal(embeddingRequest{Model: c.model, Input: inputs})
	if err != nil {
		return nil, err
	}

	var vecs [][]float64
	op := func() error {
		v, err := c.post(ctx, data, len(inputs))
		if err != nil {
			return err
		}
		vecs = v
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryWait
	b.MaxInterval = 5 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)
	notify := func(err error, wait time.Duration) {
		c.log.WithFields(logrus.Fields{"error": err, "wait": wait, "count": len(inputs)}).Warn("retrying embedding request")
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return vecs, nil
}

// post performs one request. Errors worth retrying are returned as is;
// all others are wrapped with backoff.Permanent.
func (c *Client) post(ctx context.Context, data []byte, want int) ([][]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(ctx.Err())
		}
		return nil, err
	}
	payload, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 300 {
		serr := &statusError{Code: resp.StatusCode, Status: resp.Status, Body: apiMessage(payload)}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, serr
		}
		return nil, backoff.Permanent(serr)
	}

	// OpenAI-compatible response first
	var openaiOut struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &openaiOut); err == nil && len(openaiOut.Data) == want {
		sort.SliceStable(openaiOut.Data, func(i, j int) bool { return openaiOut.Data[i].Index < openaiOut.Data[j].Index })
		out := make([][]float64, want)
		for i, d := range openaiOut.Data {
			if len(d.Embedding) == 0 {
				return nil, errors.New("empty embedding in response")
			}
			out[i] = d.Embedding
		}
		return out, nil
	}
	// Ollama-native shape: { "embedding": [...] } for a single input
	if want == 1 {
		var ollamaOut struct {
			Embedding []float64 `json:"embedding"`
		}
		if err := json.Unmarshal(payload, &ollamaOut); err == nil && len(ollamaOut.Embedding) > 0 {
			return [][]float64{ollamaOut.Embedding}, nil
		}
	}
	return nil, fmt.Errorf("malformed embeddings response for %d inputs", want)
}

func apiMessage(payload []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(payload, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return ""
}
