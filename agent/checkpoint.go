package agent

import (
	"context"
	"sync"
	"time"
)

// Checkpointer persists conversation state between requests.
//
// Load returns a fresh empty state when the id is unknown. Save must be
// durable before it returns. The store does not arbitrate concurrent writers
// for the same id; the orchestrator serializes requests per conversation.
type Checkpointer interface {
	Load(ctx context.Context, conversationID string) (*ConversationState, error)
	Save(ctx context.Context, conversationID string, state *ConversationState) error
}

const defaultCheckpointTTL = 1 * time.Hour

type checkpointEntry struct {
	state      *ConversationState
	lastAccess time.Time
}

// MemorySaver is an in-memory Checkpointer with TTL-based eviction.
// Both Load and Save work on deep copies, so the state handed to a request
// is owned by that request alone.
type MemorySaver struct {
	mu      sync.RWMutex
	entries map[string]*checkpointEntry
	ttl     time.Duration
	stop    chan struct{}
	once    sync.Once
}

// NewMemorySaver creates a memory saver with the default TTL and starts the
// eviction loop. Call Close when done.
func NewMemorySaver() *MemorySaver {
	ms := &MemorySaver{
		entries: make(map[string]*checkpointEntry),
		ttl:     defaultCheckpointTTL,
		stop:    make(chan struct{}),
	}
	go ms.evictLoop()
	return ms
}

// Load returns a copy of the stored state, or a fresh empty state when the
// conversation has no checkpoint yet.
func (ms *MemorySaver) Load(ctx context.Context, conversationID string) (*ConversationState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if entry, ok := ms.entries[conversationID]; ok {
		entry.lastAccess = time.Now()
		return entry.state.Clone(), nil
	}
	return NewConversationState(conversationID), nil
}

// Save stores a copy of the state and refreshes its TTL.
func (ms *MemorySaver) Save(ctx context.Context, conversationID string, state *ConversationState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.entries[conversationID] = &checkpointEntry{state: state.Clone(), lastAccess: time.Now()}
	return nil
}

// Delete removes a conversation checkpoint.
func (ms *MemorySaver) Delete(conversationID string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.entries, conversationID)
}

// Len returns the number of stored checkpoints.
func (ms *MemorySaver) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.entries)
}

// Close stops the eviction loop.
func (ms *MemorySaver) Close() {
	ms.once.Do(func() { close(ms.stop) })
}

func (ms *MemorySaver) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ms.evict()
		case <-ms.stop:
			return
		}
	}
}

func (ms *MemorySaver) evict() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	cutoff := time.Now().Add(-ms.ttl)
	for id, entry := range ms.entries {
		if entry.lastAccess.Before(cutoff) {
			delete(ms.entries, id)
		}
	}
}
