package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	UploadDir      string `yaml:"upload_dir"`
	MaxUploadMB    int    `yaml:"max_upload_mb"`
	RequestTimeout int    `yaml:"request_timeout_secs"`
}

// LogConfig configures logrus.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoaderConfig configures document loading and the URL crawler.
type LoaderConfig struct {
	TimeoutSecs       int      `yaml:"timeout_secs"`
	MaxDepth          int      `yaml:"max_depth"`
	ExcludeDirs       []string `yaml:"exclude_dirs"`
	WrapWidth         int      `yaml:"wrap_width"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	MaxPageBytes      int64    `yaml:"max_page_bytes"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
	// MaxRetries is the number of retries after the first attempt. Absent
	// means 3; an explicit 0 disables retries.
	MaxRetries *int `yaml:"max_retries"`
}

// HashingEmbedderConfig configures the offline feature-hashing embedder.
type HashingEmbedderConfig struct {
	Dimension int `yaml:"dimension"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type    string                 `yaml:"type"`
	OpenAI  *OpenAIEmbedderConfig  `yaml:"openai,omitempty"`
	Hashing *HashingEmbedderConfig `yaml:"hashing,omitempty"`
}

// ChatConfig configures the chat-completion model used for answers.
type ChatConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type     string          `yaml:"type"`
	Qdrant   *QdrantConfig   `yaml:"qdrant,omitempty"`
	PGVector *PGVectorConfig `yaml:"pgvector,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	Distance    string `yaml:"distance"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// PGVectorConfig contains connection details for a Postgres pgvector store.
type PGVectorConfig struct {
	DSN      string `yaml:"dsn"`
	Table    string `yaml:"table"`
	MaxConns int32  `yaml:"max_conns"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Loader      LoaderConfig      `yaml:"loader"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Chat        ChatConfig        `yaml:"chat"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
}

// Timeout helpers convert the *_secs fields.

func (c LoaderConfig) Timeout() time.Duration { return secs(c.TimeoutSecs) }
func (c ChatConfig) Timeout() time.Duration   { return secs(c.TimeoutSecs) }
func (c QdrantConfig) Timeout() time.Duration { return secs(c.TimeoutSecs) }
func (c ServerConfig) Timeout() time.Duration { return secs(c.RequestTimeout) }

func (c OpenAIEmbedderConfig) Timeout() time.Duration { return secs(c.TimeoutSecs) }

// Retries returns MaxRetries, or 3 when it was never set.
func (c OpenAIEmbedderConfig) Retries() int {
	if c.MaxRetries == nil {
		return 3
	}
	return *c.MaxRetries
}

func secs(n int) time.Duration { return time.Duration(n) * time.Second }

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnv(cfg)
			return cfg, cfg.Validate()
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/rag-notebook/config.yaml.
// If neither exists, it writes defaults to ~/.config/rag-notebook/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnv(cfg)
	return cfg, userPath, cfg.Validate()
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the component selectors.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "openai", "hashing":
	default:
		return fmt.Errorf("unknown embedder: %q", c.Embedder.Type)
	}
	switch c.VectorStore.Type {
	case "qdrant", "pgvector", "memory":
	default:
		return fmt.Errorf("unknown vector store: %q", c.VectorStore.Type)
	}
	if c.VectorStore.Type == "pgvector" && c.VectorStore.PGVector.DSN == "" {
		return errors.New("pgvector store requires a dsn or DATABASE_URL")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %q", c.Log.Format)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "rag-notebook", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":3000"
	}
	if cfg.Server.UploadDir == "" {
		cfg.Server.UploadDir = filepath.Join("public", "uploads")
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 32
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 300
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	if cfg.Loader.TimeoutSecs == 0 {
		cfg.Loader.TimeoutSecs = 10
	}
	if cfg.Loader.MaxDepth == 0 {
		cfg.Loader.MaxDepth = 1
	}
	if cfg.Loader.ExcludeDirs == nil {
		cfg.Loader.ExcludeDirs = []string{"/docs/api/"}
	}
	if cfg.Loader.WrapWidth == 0 {
		cfg.Loader.WrapWidth = 130
	}
	if cfg.Loader.RequestsPerSecond == 0 {
		cfg.Loader.RequestsPerSecond = 5
	}
	if cfg.Loader.MaxPageBytes == 0 {
		cfg.Loader.MaxPageBytes = 2 << 20
	}

	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	if cfg.Embedder.OpenAI == nil {
		cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
	}
	if cfg.Embedder.OpenAI.BaseURL == "" {
		cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedder.OpenAI.APIKeyEnv == "" {
		cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedder.OpenAI.Model == "" {
		cfg.Embedder.OpenAI.Model = "text-embedding-3-large"
	}
	if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
		cfg.Embedder.OpenAI.TimeoutSecs = 30
	}
	if cfg.Embedder.OpenAI.BatchSize == 0 {
		cfg.Embedder.OpenAI.BatchSize = 512
	}
	if cfg.Embedder.OpenAI.MaxRetries == nil {
		retries := 3
		cfg.Embedder.OpenAI.MaxRetries = &retries
	}
	if cfg.Embedder.Hashing == nil {
		cfg.Embedder.Hashing = &HashingEmbedderConfig{}
	}
	if cfg.Embedder.Hashing.Dimension == 0 {
		cfg.Embedder.Hashing.Dimension = 256
	}

	if cfg.Chat.BaseURL == "" {
		cfg.Chat.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Chat.APIKeyEnv == "" {
		cfg.Chat.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Chat.Model == "" {
		cfg.Chat.Model = "gpt-4o"
	}
	if cfg.Chat.Temperature == 0 {
		cfg.Chat.Temperature = 0.1
	}
	if cfg.Chat.MaxTokens == 0 {
		cfg.Chat.MaxTokens = 1000
	}
	if cfg.Chat.TimeoutSecs == 0 {
		cfg.Chat.TimeoutSecs = 60
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "qdrant"
	}
	if cfg.VectorStore.Qdrant == nil {
		cfg.VectorStore.Qdrant = &QdrantConfig{}
	}
	if cfg.VectorStore.Qdrant.URL == "" {
		cfg.VectorStore.Qdrant.URL = "http://localhost:6334"
	}
	if cfg.VectorStore.Qdrant.Collection == "" {
		cfg.VectorStore.Qdrant.Collection = "chaicode-collection"
	}
	if cfg.VectorStore.Qdrant.Distance == "" {
		cfg.VectorStore.Qdrant.Distance = "Cosine"
	}
	if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
		cfg.VectorStore.Qdrant.TimeoutSecs = 15
	}
	if cfg.VectorStore.PGVector == nil {
		cfg.VectorStore.PGVector = &PGVectorConfig{}
	}
	if cfg.VectorStore.PGVector.Table == "" {
		cfg.VectorStore.PGVector.Table = "rag_documents"
	}
	if cfg.VectorStore.PGVector.MaxConns == 0 {
		cfg.VectorStore.PGVector.MaxConns = 4
	}
}

// applyEnv lets the process environment override file settings.
func applyEnv(cfg *AppConfig) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.VectorStore.Qdrant.URL, "QDRANT_URL")
	set(&cfg.VectorStore.Qdrant.Collection, "QDRANT_COLLECTION_NAME")
	set(&cfg.VectorStore.Qdrant.APIKey, "QDRANT_API_KEY")
	set(&cfg.VectorStore.PGVector.DSN, "DATABASE_URL")
	set(&cfg.VectorStore.Type, "RAG_VECTOR_STORE")
	set(&cfg.Server.Addr, "RAG_ADDR")
	set(&cfg.Log.Level, "RAG_LOG_LEVEL")
}
