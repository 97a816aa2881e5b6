// Package handlers implements the HTTP surface over the reasoning loop:
// question answering, SSE and WebSocket streaming, and health.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/alanpramil7/agent-v1/agent"
	"github.com/alanpramil7/agent-v1/sse"
)

// GenericErrorAnswer is what callers see when a request fails. Internal
// detail is logged, never echoed into the answer.
const GenericErrorAnswer = "I apologize, but I encountered an error while processing your question."

// Deps holds shared dependencies injected into handlers.
type Deps struct {
	Orchestrator *agent.Orchestrator
	Logger       *slog.Logger
}

// RegisterRoutes registers the /agent routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, deps *Deps) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	h := &agentHandler{deps: deps}

	mux.HandleFunc("/agent", h.answer)
	mux.HandleFunc("/agent/stream", h.stream)
	mux.HandleFunc("/agent/ws", h.streamWS)
}

type agentHandler struct {
	deps *Deps
}

// askRequest is a question submitted for processing.
type askRequest struct {
	ConversationID string `json:"conversation_id"`
	Question       string `json:"question"`
}

func decodeAsk(r *http.Request) (*askRequest, string) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "invalid JSON: " + err.Error()
	}
	if req.Question == "" {
		return nil, "question must not be empty"
	}
	if req.ConversationID == "" {
		req.ConversationID = agent.DefaultConversationID
	}
	return &req, ""
}

// answer runs the loop to termination and returns the final text.
func (h *agentHandler) answer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, problem := decodeAsk(r)
	if problem != "" {
		writeJSONError(w, http.StatusBadRequest, problem)
		return
	}

	answer, err := h.deps.Orchestrator.Answer(r.Context(), req.ConversationID, req.Question)
	if err != nil {
		h.deps.Logger.Error("failed to process question", "conversation_id", req.ConversationID, "error", err)
		writeJSON(w, http.StatusOK, map[string]any{
			"answer": GenericErrorAnswer,
			"status": "error",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": req.ConversationID,
		"answer":          answer,
	})
}

// stream runs the loop and forwards events over SSE, one JSON record per
// event with the event type as the SSE event name.
func (h *agentHandler) stream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, problem := decodeAsk(r)
	if problem != "" {
		writeJSONError(w, http.StatusBadRequest, problem)
		return
	}

	// Validate before NewWriter commits the 200.
	sseWriter := sse.NewWriter(w)
	if sseWriter == nil {
		writeJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	eventCh := make(chan agent.StreamEvent, 64)
	go h.deps.Orchestrator.StreamAnswer(r.Context(), req.ConversationID, req.Question, eventCh)

	for evt := range eventCh {
		if err := sseWriter.SendEvent(evt.Type, evt); err != nil {
			// Client went away. Keep draining so the loop never blocks on
			// a send while it winds down via context cancellation.
			h.deps.Logger.Debug("SSE write failed", "error", err)
			for range eventCh {
			}
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}
