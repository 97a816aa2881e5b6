package amblue

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/alanpramil7/agent-v1/llm"
)

// FileConfig is the top-level structure of config.yaml.
type FileConfig struct {
	Model     llm.ModelConfig     `yaml:"model"`
	Embedding llm.EmbeddingConfig `yaml:"embedding"`

	// Database is the path to the SQLite database the SQL tools query.
	Database string `yaml:"database"`

	// VectorStore is the path to the sqlite-vec document index.
	VectorStore string `yaml:"vector_store"`

	StepBudget   int    `yaml:"step_budget"`
	MaxTokens    int    `yaml:"max_tokens"`
	SystemPrompt string `yaml:"system_prompt"`
}

// LoadFileConfig reads and validates config.yaml. Relative data paths are
// resolved against the config file's directory.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	configDir, _ := filepath.Abs(filepath.Dir(path))
	if cfg.Database == "" {
		cfg.Database = "data/app.db"
	}
	if cfg.VectorStore == "" {
		cfg.VectorStore = "data/vectors.db"
	}
	if !filepath.IsAbs(cfg.Database) {
		cfg.Database = filepath.Join(configDir, cfg.Database)
	}
	if !filepath.IsAbs(cfg.VectorStore) {
		cfg.VectorStore = filepath.Join(configDir, cfg.VectorStore)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.VectorStore), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	return &cfg, nil
}
