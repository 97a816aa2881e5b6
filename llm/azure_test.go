package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAzureClient_CallWiring(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/deployments/gpt-4o-prod/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("api-version"); got != "2024-06-01" {
			t.Errorf("unexpected api-version %q", got)
		}
		if got := r.Header.Get("api-key"); got != "azure-key" {
			t.Errorf("unexpected api-key header %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Azure auth must not use Authorization header, got %q", got)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"hello from azure"}}]}`)
	}))
	defer srv.Close()

	client := NewAzureClient(srv.URL, "gpt-4o-prod", "2024-06-01", "azure-key")
	resp, err := client.Call(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "hello from azure" {
		t.Fatalf("unexpected content %q", resp.Content)
	}
}

func TestAzureClient_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody(
			`{"choices":[{"delta":{"content":"part"}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"c1","type":"function","function":{"name":"retrieve_documents","arguments":"{\"query\":\"azure\"}"}}]}}]}`,
			`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
		))
	}))
	defer srv.Close()

	client := NewAzureClient(srv.URL, "gpt-4o-prod", "2024-06-01", "azure-key")
	chunks := collectStream(t, client, Request{Messages: []Message{{Role: "user", Content: "hi"}}})

	var text string
	var call *ToolCallResult
	for _, c := range chunks {
		text += c.Delta
		if c.ToolCall != nil {
			call = c.ToolCall
		}
	}
	if text != "part" {
		t.Fatalf("unexpected delta text %q", text)
	}
	if call == nil || call.Name != "retrieve_documents" || call.Args["query"] != "azure" {
		t.Fatalf("tool call not reassembled: %+v", call)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		cfg      ModelConfig
		wantName string
		wantErr  bool
	}{
		{
			name:     "openai",
			cfg:      ModelConfig{Provider: "openai", Model: "gpt-4o", APIKey: "sk"},
			wantName: "openai:gpt-4o",
		},
		{
			name:     "default provider is openai",
			cfg:      ModelConfig{Model: "gpt-4o", APIKey: "sk"},
			wantName: "openai:gpt-4o",
		},
		{
			name:     "ollama without key",
			cfg:      ModelConfig{Provider: "ollama", Model: "qwen3"},
			wantName: "ollama:qwen3",
		},
		{
			name:     "azure",
			cfg:      ModelConfig{Provider: "azure", Endpoint: "https://x.openai.azure.com", Deployment: "gpt-4o", APIKey: "k"},
			wantName: "azure:gpt-4o",
		},
		{
			name:    "openai without key",
			cfg:     ModelConfig{Provider: "openai", Model: "gpt-4o"},
			wantErr: true,
		},
		{
			name:    "azure without deployment",
			cfg:     ModelConfig{Provider: "azure", Endpoint: "https://x", APIKey: "k"},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			cfg:     ModelConfig{Provider: "bedrock", Model: "m"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, name, err := Resolve(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if client == nil {
				t.Fatal("expected client")
			}
			if name != tt.wantName {
				t.Fatalf("expected display name %q, got %q", tt.wantName, name)
			}
		})
	}
}
