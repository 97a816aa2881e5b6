package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alanpramil7/agent-v1/agent"
	"github.com/alanpramil7/agent-v1/llm"
)

// stubClient returns canned model responses in order.
type stubClient struct {
	mu    sync.Mutex
	turns []llm.Response
	err   error
}

func (c *stubClient) next() (*llm.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if len(c.turns) == 0 {
		return nil, errors.New("stub exhausted")
	}
	resp := c.turns[0]
	c.turns = c.turns[1:]
	return &resp, nil
}

func (c *stubClient) Call(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return c.next()
}

func (c *stubClient) Stream(ctx context.Context, req llm.Request, ch chan<- llm.StreamChunk) error {
	defer close(ch)
	resp, err := c.next()
	if err != nil {
		return err
	}
	if resp.Content != "" {
		ch <- llm.StreamChunk{Delta: resp.Content}
	}
	for i := range resp.ToolCalls {
		ch <- llm.StreamChunk{ToolCall: &resp.ToolCalls[i]}
	}
	ch <- llm.StreamChunk{Done: true}
	return nil
}

func newTestMux(t *testing.T, client llm.Client, tools ...agent.Tool) *http.ServeMux {
	t.Helper()
	saver := agent.NewMemorySaver()
	t.Cleanup(saver.Close)
	orch, err := agent.New(agent.Config{
		Client:       client,
		Tools:        tools,
		Checkpointer: saver,
	})
	if err != nil {
		t.Fatal(err)
	}
	mux := http.NewServeMux()
	RegisterRoutes(mux, &Deps{Orchestrator: orch})
	return mux
}

func postJSON(t *testing.T, mux *http.ServeMux, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestAnswerEndpoint(t *testing.T) {
	client := &stubClient{turns: []llm.Response{{Content: "the answer is 42"}}}
	mux := newTestMux(t, client)

	rec := postJSON(t, mux, "/agent", `{"conversation_id":"c1","question":"what is the answer?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["answer"] != "the answer is 42" {
		t.Fatalf("unexpected answer: %v", resp["answer"])
	}
	if resp["conversation_id"] != "c1" {
		t.Fatalf("conversation id not echoed: %v", resp["conversation_id"])
	}
}

func TestAnswerEndpoint_BadRequests(t *testing.T) {
	mux := newTestMux(t, &stubClient{})

	t.Run("empty question", func(t *testing.T) {
		rec := postJSON(t, mux, "/agent", `{"conversation_id":"c1","question":""}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		var resp map[string]string
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if !strings.Contains(resp["detail"], "question") {
			t.Fatalf("unexpected detail: %q", resp["detail"])
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		rec := postJSON(t, mux, "/agent", `{broken`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/agent", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
	})
}

func TestAnswerEndpoint_ModelFailure(t *testing.T) {
	client := &stubClient{err: errors.New("upstream quota exceeded")}
	mux := newTestMux(t, client)

	rec := postJSON(t, mux, "/agent", `{"question":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with fallback answer, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["answer"] != GenericErrorAnswer {
		t.Fatalf("expected generic answer, got %v", resp["answer"])
	}
	if resp["status"] != "error" {
		t.Fatalf("expected error status, got %v", resp["status"])
	}
	if strings.Contains(rec.Body.String(), "quota") {
		t.Fatal("internal error detail leaked to client")
	}
}

func TestStreamEndpoint(t *testing.T) {
	tool := &agent.FuncTool{
		ToolName:   "sql_db_list_tables",
		ToolDesc:   "list tables",
		ToolParams: map[string]any{"type": "object"},
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			return "resources", nil
		},
	}
	client := &stubClient{turns: []llm.Response{
		{ToolCalls: []llm.ToolCallResult{{ID: "c1", Name: "sql_db_list_tables", Args: map[string]any{}}}},
		{Content: "There is one table."},
	}}
	mux := newTestMux(t, client, tool)

	rec := postJSON(t, mux, "/agent/stream", `{"question":"list tables"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("expected SSE content type, got %q", got)
	}

	body := rec.Body.String()
	toolAt := strings.Index(body, "event: "+agent.EventToolMessage)
	completeAt := strings.Index(body, "event: "+agent.EventAgentMessageComplete)
	if toolAt < 0 {
		t.Fatalf("no tool_message event in stream:\n%s", body)
	}
	if completeAt < 0 {
		t.Fatalf("no agent_message_complete event in stream:\n%s", body)
	}
	if completeAt < toolAt {
		t.Fatal("completion event precedes tool event")
	}
	if !strings.Contains(body, `"resources"`) {
		t.Fatalf("tool result not in stream:\n%s", body)
	}
	if !strings.Contains(body, "There is one table.") {
		t.Fatalf("final answer not in stream:\n%s", body)
	}
}

func TestStreamEndpoint_ErrorEvent(t *testing.T) {
	client := &stubClient{err: errors.New("connection refused")}
	mux := newTestMux(t, client)

	rec := postJSON(t, mux, "/agent/stream", `{"question":"hello"}`)
	body := rec.Body.String()
	if !strings.Contains(body, "event: "+agent.EventError) {
		t.Fatalf("expected error event in stream:\n%s", body)
	}
	if strings.Contains(body, "connection refused") {
		t.Fatal("internal error detail leaked into stream")
	}
}

func TestStreamEndpoint_BadRequest(t *testing.T) {
	mux := newTestMux(t, &stubClient{})
	rec := postJSON(t, mux, "/agent/stream", `{"question":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
