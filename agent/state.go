package agent

// DefaultConversationID is used when a caller does not supply a
// conversation id.
const DefaultConversationID = "default"

// ConversationState holds the full persisted state of one conversation.
// It is exclusively owned by a single in-flight request; the checkpoint
// store is the source of truth between requests.
type ConversationState struct {
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
	RemainingSteps int       `json:"remaining_steps"`
}

// NewConversationState creates an empty state for the given id.
func NewConversationState(id string) *ConversationState {
	return &ConversationState{
		ConversationID: id,
		Messages:       []Message{},
	}
}

// IsLastStep reports whether the step budget is exhausted. When true and the
// model still requests tool calls, the loop must terminate instead of acting.
func (s *ConversationState) IsLastStep() bool {
	return s.RemainingSteps < 1
}

// Clone returns a deep copy of the state. Message args maps are copied so a
// mutation through one copy can never leak into the other.
func (s *ConversationState) Clone() *ConversationState {
	out := &ConversationState{
		ConversationID: s.ConversationID,
		Messages:       make([]Message, len(s.Messages)),
		RemainingSteps: s.RemainingSteps,
	}
	for i, msg := range s.Messages {
		m := msg
		if len(msg.ToolCalls) > 0 {
			m.ToolCalls = make([]ToolCall, len(msg.ToolCalls))
			for j, tc := range msg.ToolCalls {
				c := tc
				if tc.Args != nil {
					c.Args = make(map[string]any, len(tc.Args))
					for k, v := range tc.Args {
						c.Args[k] = v
					}
				}
				m.ToolCalls[j] = c
			}
		}
		out.Messages[i] = m
	}
	return out
}
