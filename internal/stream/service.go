package stream

import (
	"context"
	"time"

	"chatd/pkg/types"
)

// ChatStore extends MessageStore with the conversation and lookup operations
// the HTTP surface needs. *store.Store satisfies it.
type ChatStore interface {
	MessageStore
	CreateConversation(ctx context.Context, title string) (types.Conversation, error)
	GetMessage(ctx context.Context, id int64) (types.Message, error)
	Ping(ctx context.Context) error
}

// Service bundles the pipeline with persistence lookups into the surface the
// HTTP layer serves.
type Service struct {
	pipeline *Pipeline
	store    ChatStore
	started  time.Time
}

// NewService wires the chat service.
func NewService(p *Pipeline, st ChatStore) *Service {
	return &Service{pipeline: p, store: st, started: time.Now()}
}

// StartChat runs the setup phase of a streaming exchange.
func (s *Service) StartChat(ctx context.Context, conversationID int64, message string) (types.StartChatResponse, error) {
	return s.pipeline.Start(ctx, conversationID, message)
}

// StreamChat drives generation for an admitted session, emitting on sink.
func (s *Service) StreamChat(ctx context.Context, sessionID string, sink EventSink) error {
	return s.pipeline.Run(ctx, sessionID, sink)
}

// CancelChat requests cancellation of a live session.
func (s *Service) CancelChat(sessionID string) bool {
	return s.pipeline.Cancel(sessionID)
}

// CreateConversation creates a new chat thread.
func (s *Service) CreateConversation(ctx context.Context, title string) (types.Conversation, error) {
	return s.store.CreateConversation(ctx, title)
}

// GetMessage returns a persisted message; the authoritative final content
// after a stream completes.
func (s *Service) GetMessage(ctx context.Context, id int64) (types.Message, error) {
	return s.store.GetMessage(ctx, id)
}

// ListMessages returns a conversation's transcript in creation order.
func (s *Service) ListMessages(ctx context.Context, conversationID int64) ([]types.Message, error) {
	return s.store.ListMessages(ctx, conversationID)
}

// Status reports live sessions and configured limits.
func (s *Service) Status() types.StatusResponse {
	now := time.Now()
	reg := s.pipeline.Registry()
	return types.StatusResponse{
		Sessions:                   reg.Snapshot(),
		MaxSessionsPerConversation: reg.MaxPerConversation(),
		CeilingTokens:              s.pipeline.Ceiling(),
		EvictionsTotal:             reg.EvictionsTotal(),
		UptimeSeconds:              int64(now.Sub(s.started).Seconds()),
		ServerTimeUnix:             now.Unix(),
	}
}

// Ready reports whether the service can accept traffic.
func (s *Service) Ready() bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return s.store.Ping(ctx) == nil
}
