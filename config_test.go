package amblue

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
model:
  provider: azure
  endpoint: https://example.openai.azure.com
  deployment: gpt-4o
  api_key: secret
embedding:
  provider: azure
  endpoint: https://example.openai.azure.com
  deployment: text-embedding-3-small
  dimensions: 1536
database: state/app.db
vector_store: state/vectors.db
step_budget: 10
max_tokens: 2048
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFileConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Model.Provider != "azure" || cfg.Model.Deployment != "gpt-4o" {
		t.Fatalf("model config not parsed: %+v", cfg.Model)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Fatalf("embedding dimensions not parsed: %d", cfg.Embedding.Dimensions)
	}
	if cfg.StepBudget != 10 || cfg.MaxTokens != 2048 {
		t.Fatalf("limits not parsed: %+v", cfg)
	}

	// Relative data paths resolve against the config directory.
	if want := filepath.Join(dir, "state", "app.db"); cfg.Database != want {
		t.Fatalf("database path: expected %q, got %q", want, cfg.Database)
	}
	if want := filepath.Join(dir, "state", "vectors.db"); cfg.VectorStore != want {
		t.Fatalf("vector store path: expected %q, got %q", want, cfg.VectorStore)
	}
	if _, err := os.Stat(filepath.Dir(cfg.VectorStore)); err != nil {
		t.Fatalf("data directory not created: %v", err)
	}
}

func TestLoadFileConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("model:\n  provider: ollama\n  model: qwen3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFileConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "app.db"); cfg.Database != want {
		t.Fatalf("expected default database %q, got %q", want, cfg.Database)
	}
	if want := filepath.Join(dir, "data", "vectors.db"); cfg.VectorStore != want {
		t.Fatalf("expected default vector store %q, got %q", want, cfg.VectorStore)
	}
}

func TestLoadFileConfig_Errors(t *testing.T) {
	if _, err := LoadFileConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("model: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFileConfig(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("AMBLUE_TEST_KEY", "set")
	if got := envOr("AMBLUE_TEST_KEY", "default"); got != "set" {
		t.Fatalf("expected %q, got %q", "set", got)
	}
	if got := envOr("AMBLUE_TEST_MISSING", "default"); got != "default" {
		t.Fatalf("expected default, got %q", got)
	}

	t.Setenv("AMBLUE_TEST_PORT", "9001")
	if got := envIntOr("AMBLUE_TEST_PORT", 8000); got != 9001 {
		t.Fatalf("expected 9001, got %d", got)
	}
	t.Setenv("AMBLUE_TEST_PORT", "not-a-number")
	if got := envIntOr("AMBLUE_TEST_PORT", 8000); got != 8000 {
		t.Fatalf("expected fallback 8000, got %d", got)
	}
}
