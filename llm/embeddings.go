package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Embedder converts text into vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingsClient calls an OpenAI-compatible embeddings endpoint. For Azure
// the base URL addresses a deployment and the api-key header is used.
type EmbeddingsClient struct {
	baseURL  string
	apiKey   string
	model    string
	azure    bool
	azureVer string
	client   *http.Client
}

// NewEmbeddingsClient creates an OpenAI-compatible embeddings client.
func NewEmbeddingsClient(baseURL, apiKey, model string) *EmbeddingsClient {
	return &EmbeddingsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

// NewAzureEmbeddingsClient creates an embeddings client bound to an Azure
// OpenAI embedding deployment.
func NewAzureEmbeddingsClient(endpoint, deployment, apiVersion, apiKey string) *EmbeddingsClient {
	base := fmt.Sprintf("%s/openai/deployments/%s",
		strings.TrimRight(endpoint, "/"), url.PathEscape(deployment))
	return &EmbeddingsClient{
		baseURL:  base,
		apiKey:   apiKey,
		model:    deployment,
		azure:    true,
		azureVer: apiVersion,
		client:   &http.Client{Timeout: 2 * time.Minute},
	}
}

type embeddingsRequest struct {
	Model string   `json:"model,omitempty"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns one embedding per input text, in input order.
func (c *EmbeddingsClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, _ := json.Marshal(embeddingsRequest{Model: c.model, Input: texts})

	endpoint := c.baseURL + "/embeddings"
	if c.azure {
		endpoint += "?api-version=" + url.QueryEscape(c.azureVer)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.azure {
		req.Header.Set("api-key", c.apiKey)
	} else if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embeddings API error %d: %s", resp.StatusCode, string(data))
	}

	var parsed embeddingsResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(parsed.Data))
	}

	out := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
