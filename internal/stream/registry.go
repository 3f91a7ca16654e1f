package stream

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatd/pkg/types"
)

// Registry is the sole owner of the live-session collection. Every operation
// runs under one mutex so eviction-while-inserting and cancel-while-evicting
// cannot race. No reference handed out is mutated outside this API except the
// session's own cancel signal.
type Registry struct {
	mu                 sync.Mutex
	sessions           map[string]*Session
	maxPerConversation int
	evictionsTotal     uint64
	log                zerolog.Logger
}

// NewRegistry constructs a Registry. maxPerConversation <= 0 selects the
// package default.
func NewRegistry(maxPerConversation int, log zerolog.Logger) *Registry {
	if maxPerConversation <= 0 {
		maxPerConversation = DefaultMaxSessionsPerConversation
	}
	return &Registry{
		sessions:           make(map[string]*Session),
		maxPerConversation: maxPerConversation,
		log:                log,
	}
}

// Create admits a new session for the conversation, evicting the oldest
// session of that conversation first when the cap is reached.
func (r *Registry) Create(conversationID, messageID int64, prompt string, maxResponseTokens int) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.countLocked(conversationID) >= r.maxPerConversation {
		oldest := r.oldestLocked(conversationID)
		if oldest == nil {
			break
		}
		oldest.requestCancel()
		delete(r.sessions, oldest.ID)
		r.evictionsTotal++
		r.log.Warn().
			Str("evicted_session_id", oldest.ID).
			Int64("conversation_id", conversationID).
			Msg("session cap reached, evicting oldest session")
	}

	s := newSession(uuid.NewString(), conversationID, messageID, prompt, maxResponseTokens)
	r.sessions[s.ID] = s
	return s
}

// Get returns the session for id, if still live.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Cancel requests cancellation of a session and removes it. Returns false for
// an unknown or already-removed id; that is not an error.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.requestCancel()
	delete(r.sessions, id)
	return true
}

// Remove retires a session after it reached a terminal state. Removing an
// already-removed session is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of live sessions across all conversations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictionsTotal returns how many sessions were evicted to admit newer ones.
func (r *Registry) EvictionsTotal() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictionsTotal
}

// MaxPerConversation returns the configured per-conversation cap.
func (r *Registry) MaxPerConversation() int { return r.maxPerConversation }

// Snapshot returns a read-only projection of live sessions for /status.
func (r *Registry) Snapshot() []types.SessionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.SessionStatus, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, types.SessionStatus{
			SessionID:       s.ID,
			ConversationID:  s.ConversationID,
			MessageID:       s.MessageID,
			CreatedAtUnixMs: s.CreatedAt.UnixMilli(),
			CancelRequested: s.CancelRequested(),
		})
	}
	return out
}

func (r *Registry) countLocked(conversationID int64) int {
	n := 0
	for _, s := range r.sessions {
		if s.ConversationID == conversationID {
			n++
		}
	}
	return n
}

func (r *Registry) oldestLocked(conversationID int64) *Session {
	var oldest *Session
	for _, s := range r.sessions {
		if s.ConversationID != conversationID {
			continue
		}
		if oldest == nil || s.CreatedAt.Before(oldest.CreatedAt) {
			oldest = s
		}
	}
	return oldest
}
