// Package config loads application settings from an optional YAML file with
// environment overrides for credentials and model names.
package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// InferenceConfig points at one HTTP inference endpoint (embeddings, rerank
// or NLI, served text-embeddings-inference style).
type InferenceConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// GenerationConfig configures the chat model used for answering and judging.
// The API key is never stored in the file; it comes from DEEPSEEK_API_KEY.
type GenerationConfig struct {
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	JudgeModel string `yaml:"judge_model"`
}

// RetrievalConfig sets candidate and result counts for the retriever.
type RetrievalConfig struct {
	K    int `yaml:"k"`
	TopN int `yaml:"topn"`
}

// DatabaseConfig configures the pgvector index.
type DatabaseConfig struct {
	URL       string `yaml:"url"`
	Table     string `yaml:"table"`
	Dimension int    `yaml:"dimension"`
}

// ChunkingConfig bounds chunk size in tokens.
type ChunkingConfig struct {
	MaxTokens int `yaml:"max_tokens"`
}

// Config is the root application configuration.
type Config struct {
	Embedder   InferenceConfig  `yaml:"embedder"`
	Reranker   InferenceConfig  `yaml:"reranker"`
	NLI        InferenceConfig  `yaml:"nli"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Database   DatabaseConfig   `yaml:"database"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
}

// Load reads the config from path. A missing file returns defaults.
// Environment variables override credentials and model selection:
// DEEPSEEK_BASE_URL, GEN_MODEL, JUDGE_MODEL, DATABASE_URL.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

// APIKey returns the chat API credential from the environment.
func APIKey() string {
	return os.Getenv("DEEPSEEK_API_KEY")
}

func defaultConfig() *Config {
	return &Config{
		Embedder: InferenceConfig{BaseURL: "http://localhost:8080", TimeoutSecs: 30},
		Reranker: InferenceConfig{BaseURL: "http://localhost:8081", TimeoutSecs: 30},
		NLI:      InferenceConfig{BaseURL: "http://localhost:8082", TimeoutSecs: 30},
		Generation: GenerationConfig{
			BaseURL:    "https://api.deepseek.com",
			Model:      "deepseek-chat",
			JudgeModel: "deepseek-chat",
		},
		Retrieval: RetrievalConfig{K: 20, TopN: 5},
		Database: DatabaseConfig{
			URL:       "postgres://localhost:5432/medrag",
			Table:     "medrag_chunks",
			Dimension: 384,
		},
		Chunking: ChunkingConfig{MaxTokens: 500},
	}
}

func applyDefaults(cfg *Config) {
	def := defaultConfig()
	if cfg.Embedder.BaseURL == "" {
		cfg.Embedder.BaseURL = def.Embedder.BaseURL
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = def.Embedder.TimeoutSecs
	}
	if cfg.Reranker.BaseURL == "" {
		cfg.Reranker.BaseURL = def.Reranker.BaseURL
	}
	if cfg.Reranker.TimeoutSecs == 0 {
		cfg.Reranker.TimeoutSecs = def.Reranker.TimeoutSecs
	}
	if cfg.NLI.BaseURL == "" {
		cfg.NLI.BaseURL = def.NLI.BaseURL
	}
	if cfg.NLI.TimeoutSecs == 0 {
		cfg.NLI.TimeoutSecs = def.NLI.TimeoutSecs
	}
	if cfg.Generation.BaseURL == "" {
		cfg.Generation.BaseURL = def.Generation.BaseURL
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = def.Generation.Model
	}
	if cfg.Generation.JudgeModel == "" {
		cfg.Generation.JudgeModel = def.Generation.JudgeModel
	}
	if cfg.Retrieval.K == 0 {
		cfg.Retrieval.K = def.Retrieval.K
	}
	if cfg.Retrieval.TopN == 0 {
		cfg.Retrieval.TopN = def.Retrieval.TopN
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = def.Database.URL
	}
	if cfg.Database.Table == "" {
		cfg.Database.Table = def.Database.Table
	}
	if cfg.Database.Dimension == 0 {
		cfg.Database.Dimension = def.Database.Dimension
	}
	if cfg.Chunking.MaxTokens == 0 {
		cfg.Chunking.MaxTokens = def.Chunking.MaxTokens
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DEEPSEEK_BASE_URL"); v != "" {
		cfg.Generation.BaseURL = v
	}
	if v := os.Getenv("GEN_MODEL"); v != "" {
		cfg.Generation.Model = v
	}
	if v := os.Getenv("JUDGE_MODEL"); v != "" {
		cfg.Generation.JudgeModel = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("EMBED_BASE_URL"); v != "" {
		cfg.Embedder.BaseURL = v
	}
	if v := os.Getenv("RERANK_BASE_URL"); v != "" {
		cfg.Reranker.BaseURL = v
	}
	if v := os.Getenv("NLI_BASE_URL"); v != "" {
		cfg.NLI.BaseURL = v
	}
}
