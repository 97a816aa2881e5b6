package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/alanpramil7/agent-v1/llm"
)

// DefaultStepBudget is the maximum number of reasoning/acting cycles per
// request before the loop is forced to terminate.
const DefaultStepBudget = 10

// StepBudgetMessage is the assistant message synthesized when the step
// budget runs out while the model still wants to call tools.
const StepBudgetMessage = "Sorry, need more steps to process this request."

// Config holds the explicit dependencies of an Orchestrator. Nothing is
// ambient: the model client, the tool set and the checkpointer are all
// injected here.
type Config struct {
	Client       llm.Client
	Tools        []Tool
	Checkpointer Checkpointer
	SystemPrompt string
	StepBudget   int
	MaxTokens    int
	Logger       *slog.Logger
}

// Orchestrator runs the bounded reasoning loop: it alternates model turns
// and tool executions for one conversation at a time, streaming events and
// persisting state at every suspension point.
type Orchestrator struct {
	client    llm.Client
	registry  *Registry
	saver     Checkpointer
	prompt    string
	budget    int
	maxTokens int
	logger    *slog.Logger

	locks sync.Map // conversation id → *sync.Mutex
}

// New creates an Orchestrator from the given config.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("agent: llm client is required")
	}
	if cfg.Checkpointer == nil {
		return nil, fmt.Errorf("agent: checkpointer is required")
	}
	budget := cfg.StepBudget
	if budget <= 0 {
		budget = DefaultStepBudget
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	prompt := cfg.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		client:    cfg.Client,
		registry:  NewRegistry(cfg.Tools...),
		saver:     cfg.Checkpointer,
		prompt:    prompt,
		budget:    budget,
		maxTokens: maxTokens,
		logger:    logger,
	}, nil
}

// Answer runs the loop to termination and returns the final assistant
// content. Intermediate events are discarded.
func (o *Orchestrator) Answer(ctx context.Context, conversationID, question string) (string, error) {
	ch := make(chan StreamEvent, 64)
	var answer string
	var runErr error

	go func() {
		defer close(ch)
		answer, runErr = o.run(ctx, conversationID, question, ch)
	}()

	for range ch {
	}
	return answer, runErr
}

// StreamAnswer runs the loop and streams events to ch. A consumer that
// keeps reading sees a terminal event (agent_message_complete or error)
// before the channel closes; one that cancels the context and walks away
// just sees the channel close, and never blocks the loop.
func (o *Orchestrator) StreamAnswer(ctx context.Context, conversationID, question string, ch chan<- StreamEvent) {
	defer close(ch)

	if _, err := o.run(ctx, conversationID, question, ch); err != nil {
		emit(ctx, ch, StreamEvent{
			Type:    EventError,
			Content: "I encountered an error while processing your question.",
		})
	}
}

// emit sends an event without ever blocking past context cancellation. A
// consumer that stops reading must not pin the loop: the send gives up as
// soon as ctx is done.
func emit(ctx context.Context, ch chan<- StreamEvent, evt StreamEvent) error {
	select {
	case ch <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the loop body. Exactly one run may mutate a conversation's state at
// a time; concurrent requests for the same id queue on a per-conversation
// mutex before touching the checkpoint store.
func (o *Orchestrator) run(ctx context.Context, conversationID, question string, ch chan<- StreamEvent) (string, error) {
	if conversationID == "" {
		conversationID = DefaultConversationID
	}

	mu := o.conversationLock(conversationID)
	mu.Lock()
	defer mu.Unlock()

	log := o.logger.With("run_id", uuid.NewString(), "conversation_id", conversationID)
	log.Debug("processing question", "question", question)

	state, err := o.saver.Load(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("load conversation %q: %w", conversationID, err)
	}
	if err := ValidateHistory(state.Messages); err != nil {
		return "", fmt.Errorf("conversation %q has invalid history: %w", conversationID, err)
	}

	// The step budget is per request: each question gets a fresh allowance
	// while the message history carries over.
	state.RemainingSteps = o.budget
	state.Messages = append(state.Messages, Human(question))
	if err := o.saver.Save(ctx, conversationID, state); err != nil {
		return "", fmt.Errorf("save conversation %q: %w", conversationID, err)
	}

	schemas := o.registry.Schemas()

	for {
		if err := ctx.Err(); err != nil {
			// Persisted state is coherent up to the last completed step.
			return "", err
		}

		resp, err := o.modelTurn(ctx, state.Messages, schemas, ch)
		if err != nil {
			return "", fmt.Errorf("model call: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			state.Messages = append(state.Messages, AI(resp.Content))
			if err := o.saver.Save(ctx, conversationID, state); err != nil {
				return "", fmt.Errorf("save conversation %q: %w", conversationID, err)
			}
			if err := emit(ctx, ch, StreamEvent{Type: EventAgentMessageComplete, Content: resp.Content}); err != nil {
				return "", err
			}
			return resp.Content, nil
		}

		if state.IsLastStep() {
			// Budget exhausted with tools still pending: do not execute
			// them, answer with the explicit terminal message instead.
			log.Warn("step budget exhausted", "pending_tool_calls", len(resp.ToolCalls))
			state.Messages = append(state.Messages, AI(StepBudgetMessage))
			if err := o.saver.Save(ctx, conversationID, state); err != nil {
				return "", fmt.Errorf("save conversation %q: %w", conversationID, err)
			}
			if err := emit(ctx, ch, StreamEvent{Type: EventAgentMessageComplete, Content: StepBudgetMessage}); err != nil {
				return "", err
			}
			return StepBudgetMessage, nil
		}

		toolCalls := make([]ToolCall, len(resp.ToolCalls))
		for i, tc := range resp.ToolCalls {
			toolCalls[i] = ToolCall{ID: tc.ID, Name: tc.Name, Args: tc.Args}
		}
		state.Messages = append(state.Messages, AI(resp.Content, toolCalls...))
		if err := o.saver.Save(ctx, conversationID, state); err != nil {
			return "", fmt.Errorf("save conversation %q: %w", conversationID, err)
		}

		// Tool calls run sequentially in request order so the persisted
		// history is deterministic and reproducible.
		for _, tc := range toolCalls {
			result := o.executeTool(ctx, tc, log)
			state.Messages = append(state.Messages, ToolMsg(tc.ID, tc.Name, result))
			err := emit(ctx, ch, StreamEvent{
				Type:       EventToolMessage,
				ToolName:   tc.Name,
				ToolCallID: tc.ID,
				Content:    result,
			})
			if err != nil {
				return "", err
			}
		}

		state.RemainingSteps--
		if err := o.saver.Save(ctx, conversationID, state); err != nil {
			return "", fmt.Errorf("save conversation %q: %w", conversationID, err)
		}
	}
}

// modelTurn invokes the model gateway with the full history, forwarding text
// deltas to the event channel as they arrive.
func (o *Orchestrator) modelTurn(ctx context.Context, msgs []Message, schemas []llm.ToolSchema, ch chan<- StreamEvent) (*llm.Response, error) {
	req := llm.Request{
		Messages:     toLLMMessages(msgs),
		Tools:        schemas,
		SystemPrompt: o.prompt,
		MaxTokens:    o.maxTokens,
	}

	chunkCh := make(chan llm.StreamChunk, 64)
	var streamErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		streamErr = o.client.Stream(ctx, req, chunkCh)
	}()

	var content string
	var toolCalls []llm.ToolCallResult
	var emitErr error
	for chunk := range chunkCh {
		if chunk.Delta != "" {
			content += chunk.Delta
			// Keep draining after a failed send so the client goroutine
			// can finish; just stop forwarding.
			if emitErr == nil {
				emitErr = emit(ctx, ch, StreamEvent{Type: EventAgentMessageDelta, Content: chunk.Delta})
			}
		}
		if chunk.ToolCall != nil {
			toolCalls = append(toolCalls, *chunk.ToolCall)
		}
	}
	<-done
	if streamErr != nil {
		return nil, streamErr
	}
	if emitErr != nil {
		return nil, emitErr
	}

	return &llm.Response{Content: content, ToolCalls: toolCalls}, nil
}

// executeTool resolves and runs one tool call. All tool-level problems are
// folded into the returned text so the model can see them and self-correct;
// nothing here aborts the loop.
func (o *Orchestrator) executeTool(ctx context.Context, tc ToolCall, log *slog.Logger) string {
	tool := o.registry.Get(tc.Name)
	if tool == nil {
		log.Warn("unknown tool requested", "tool", tc.Name)
		return fmt.Sprintf("Error: tool %q is not available.", tc.Name)
	}

	log.Debug("executing tool", "tool", tc.Name, "tool_call_id", tc.ID)
	output, err := tool.Execute(ctx, tc.Args)
	if err != nil {
		log.Warn("tool execution failed", "tool", tc.Name, "error", err)
		return "Error: " + err.Error()
	}
	return output
}

func (o *Orchestrator) conversationLock(conversationID string) *sync.Mutex {
	v, _ := o.locks.LoadOrStore(conversationID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func toLLMMessages(msgs []Message) []llm.Message {
	out := make([]llm.Message, len(msgs))
	for i, m := range msgs {
		out[i] = llm.Message{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		}
		for _, tc := range m.ToolCalls {
			out[i].ToolCalls = append(out[i].ToolCalls, llm.ToolCallInfo{
				ID:   tc.ID,
				Name: tc.Name,
				Args: tc.Args,
			})
		}
	}
	return out
}
