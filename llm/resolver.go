package llm

import (
	"fmt"
	"strings"
)

// ModelConfig describes an LLM deployment as declared in the config file.
type ModelConfig struct {
	Provider   string `yaml:"provider" json:"provider"` // "openai", "azure", "ollama"
	Model      string `yaml:"model" json:"model"`
	BaseURL    string `yaml:"base_url" json:"base_url"`
	APIKey     string `yaml:"api_key" json:"api_key"`
	Endpoint   string `yaml:"endpoint" json:"endpoint"`     // azure
	Deployment string `yaml:"deployment" json:"deployment"` // azure
	APIVersion string `yaml:"api_version" json:"api_version"`
}

// Resolve builds a Client from a model config and returns it with a display
// name for logging.
func Resolve(cfg ModelConfig) (Client, string, error) {
	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1"
		}
		if cfg.Model == "" {
			return nil, "", fmt.Errorf("ollama provider requires model")
		}
		return NewOpenAIClient(baseURL, "ollama", cfg.Model), "ollama:" + cfg.Model, nil

	case "openai", "":
		if cfg.APIKey == "" {
			return nil, "", fmt.Errorf("openai provider requires api_key")
		}
		if cfg.Model == "" {
			return nil, "", fmt.Errorf("openai provider requires model")
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		return NewOpenAIClient(baseURL, cfg.APIKey, cfg.Model), "openai:" + cfg.Model, nil

	case "azure":
		if cfg.Endpoint == "" || cfg.Deployment == "" {
			return nil, "", fmt.Errorf("azure provider requires endpoint and deployment")
		}
		if cfg.APIKey == "" {
			return nil, "", fmt.Errorf("azure provider requires api_key")
		}
		apiVersion := cfg.APIVersion
		if apiVersion == "" {
			apiVersion = "2024-06-01"
		}
		return NewAzureClient(cfg.Endpoint, cfg.Deployment, apiVersion, cfg.APIKey), "azure:" + cfg.Deployment, nil

	default:
		return nil, "", fmt.Errorf("unknown provider: %q", cfg.Provider)
	}
}

// EmbeddingConfig describes an embedding deployment.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" json:"provider"`
	Model      string `yaml:"model" json:"model"`
	BaseURL    string `yaml:"base_url" json:"base_url"`
	APIKey     string `yaml:"api_key" json:"api_key"`
	Endpoint   string `yaml:"endpoint" json:"endpoint"`
	Deployment string `yaml:"deployment" json:"deployment"`
	APIVersion string `yaml:"api_version" json:"api_version"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`
}

// ResolveEmbedder builds an Embedder from an embedding config.
func ResolveEmbedder(cfg EmbeddingConfig) (Embedder, error) {
	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case "openai", "ollama", "":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			if provider == "ollama" {
				baseURL = "http://localhost:11434/v1"
			} else {
				baseURL = "https://api.openai.com/v1"
			}
		}
		if cfg.Model == "" {
			return nil, fmt.Errorf("embedding provider requires model")
		}
		return NewEmbeddingsClient(baseURL, cfg.APIKey, cfg.Model), nil

	case "azure":
		if cfg.Endpoint == "" || cfg.Deployment == "" {
			return nil, fmt.Errorf("azure embedding provider requires endpoint and deployment")
		}
		apiVersion := cfg.APIVersion
		if apiVersion == "" {
			apiVersion = "2024-06-01"
		}
		return NewAzureEmbeddingsClient(cfg.Endpoint, cfg.Deployment, apiVersion, cfg.APIKey), nil

	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
}
