package agent

// Stream event types, one per externally meaningful loop transition.
const (
	// EventToolMessage is emitted right after a tool result message is
	// appended to the history.
	EventToolMessage = "tool_message"

	// EventAgentMessageDelta is emitted for each increment of assistant
	// text as the model produces it.
	EventAgentMessageDelta = "agent_message_delta"

	// EventAgentMessageComplete is emitted once for the assistant turn the
	// loop treats as final.
	EventAgentMessageComplete = "agent_message_complete"

	// EventError is the last event before the stream closes on an
	// unrecoverable failure.
	EventError = "error"
)

// StreamEvent is sent from the reasoning loop to stream consumers. Events
// for a conversation are emitted in the order the underlying transitions
// occurred; tool_message events always precede the next turn's deltas.
type StreamEvent struct {
	Type       string `json:"type"`
	ToolName   string `json:"tool_name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
	Content    string `json:"content,omitempty"`
}
