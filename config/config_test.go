package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Expected no error for missing file, got %v", err)
	}
	if cfg.Retrieval.K != 20 || cfg.Retrieval.TopN != 5 {
		t.Errorf("Unexpected retrieval defaults: %+v", cfg.Retrieval)
	}
	if cfg.Database.Table != "medrag_chunks" || cfg.Database.Dimension != 384 {
		t.Errorf("Unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.Generation.Model != "deepseek-chat" {
		t.Errorf("Unexpected generation defaults: %+v", cfg.Generation)
	}
	if cfg.Chunking.MaxTokens != 500 {
		t.Errorf("Unexpected chunking defaults: %+v", cfg.Chunking)
	}
}

func TestLoad_YAMLOverridesWithDefaultsFilledIn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
embedder:
  base_url: http://embed.internal:9000
retrieval:
  k: 50
database:
  url: postgres://db.internal:5432/medrag
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Embedder.BaseURL != "http://embed.internal:9000" {
		t.Errorf("Expected embedder override, got %q", cfg.Embedder.BaseURL)
	}
	if cfg.Embedder.TimeoutSecs != 30 {
		t.Errorf("Expected default timeout filled in, got %d", cfg.Embedder.TimeoutSecs)
	}
	if cfg.Retrieval.K != 50 {
		t.Errorf("Expected k override, got %d", cfg.Retrieval.K)
	}
	if cfg.Retrieval.TopN != 5 {
		t.Errorf("Expected default topn filled in, got %d", cfg.Retrieval.TopN)
	}
	if cfg.Database.URL != "postgres://db.internal:5432/medrag" {
		t.Errorf("Expected database override, got %q", cfg.Database.URL)
	}
	if cfg.Database.Table != "medrag_chunks" {
		t.Errorf("Expected default table filled in, got %q", cfg.Database.Table)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("Expected an error, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GEN_MODEL", "deepseek-reasoner")
	t.Setenv("JUDGE_MODEL", "deepseek-chat-judge")
	t.Setenv("DATABASE_URL", "postgres://env:5432/medrag")
	t.Setenv("EMBED_BASE_URL", "http://env-embed:8080")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Generation.Model != "deepseek-reasoner" {
		t.Errorf("Expected GEN_MODEL override, got %q", cfg.Generation.Model)
	}
	if cfg.Generation.JudgeModel != "deepseek-chat-judge" {
		t.Errorf("Expected JUDGE_MODEL override, got %q", cfg.Generation.JudgeModel)
	}
	if cfg.Database.URL != "postgres://env:5432/medrag" {
		t.Errorf("Expected DATABASE_URL override, got %q", cfg.Database.URL)
	}
	if cfg.Embedder.BaseURL != "http://env-embed:8080" {
		t.Errorf("Expected EMBED_BASE_URL override, got %q", cfg.Embedder.BaseURL)
	}
}

func TestAPIKey(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	if got := APIKey(); got != "sk-test" {
		t.Errorf("Expected sk-test, got %q", got)
	}
}
