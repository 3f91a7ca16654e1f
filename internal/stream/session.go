package stream

import (
	"sync"
	"time"
)

// Session represents one in-flight streaming generation. Identity fields are
// set at creation and never mutated; cancellation is the only cross-goroutine
// signal and flows through the cancel channel.
type Session struct {
	ID             string
	ConversationID int64
	MessageID      int64
	CreatedAt      time.Time

	// Prompt and response cap snapshotted at admission time.
	Prompt            string
	MaxResponseTokens int

	cancelOnce sync.Once
	cancelCh   chan struct{}
}

func newSession(id string, conversationID, messageID int64, prompt string, maxResponseTokens int) *Session {
	return &Session{
		ID:                id,
		ConversationID:    conversationID,
		MessageID:         messageID,
		CreatedAt:         time.Now(),
		Prompt:            prompt,
		MaxResponseTokens: maxResponseTokens,
		cancelCh:          make(chan struct{}),
	}
}

// requestCancel marks the session cancelled. Safe to call more than once.
func (s *Session) requestCancel() {
	s.cancelOnce.Do(func() { close(s.cancelCh) })
}

// CancelRequested reports whether cancellation or eviction has been requested.
// The generation loop polls this between token emissions.
func (s *Session) CancelRequested() bool {
	select {
	case <-s.cancelCh:
		return true
	default:
		return false
	}
}

// Done exposes the cancellation signal so a running generation can be stopped
// while blocked on the upstream call, not only between tokens.
func (s *Session) Done() <-chan struct{} { return s.cancelCh }
