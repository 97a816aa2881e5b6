package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/alanpramil7/agent-v1/agent"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The browser UI is served from a different origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamWS is the WebSocket variant of stream: the client sends one ask
// request as JSON, the server writes one JSON frame per stream event and
// then closes the connection.
func (h *agentHandler) streamWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.deps.Logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var req askRequest
	if err := conn.ReadJSON(&req); err != nil {
		conn.WriteJSON(agent.StreamEvent{Type: agent.EventError, Content: "invalid request"})
		return
	}
	if req.Question == "" {
		conn.WriteJSON(agent.StreamEvent{Type: agent.EventError, Content: "question must not be empty"})
		return
	}

	eventCh := make(chan agent.StreamEvent, 64)
	go h.deps.Orchestrator.StreamAnswer(r.Context(), req.ConversationID, req.Question, eventCh)

	for evt := range eventCh {
		if err := conn.WriteJSON(evt); err != nil {
			h.deps.Logger.Debug("websocket write failed", "error", err)
			for range eventCh {
			}
			return
		}
	}

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
