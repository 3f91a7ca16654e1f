package stream

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"chatd/internal/budget"
	"chatd/internal/llm"
	"chatd/pkg/types"
)

// MessageStore is the persistence surface the pipeline needs. *store.Store
// satisfies it; tests substitute an in-memory fake.
type MessageStore interface {
	GetConversation(ctx context.Context, id int64) (types.Conversation, error)
	CreateMessage(ctx context.Context, conversationID int64, role, content string) (int64, error)
	ListMessages(ctx context.Context, conversationID int64) ([]types.Message, error)
	FinalizeMessage(ctx context.Context, id int64, content string, tokenCount int, completionTimeMs int64) error
}

// Sentinels threaded through the generator's onToken callback to classify why
// generation stopped. Never surfaced to clients.
var (
	errCancelled    = errors.New("generation cancelled")
	errStreamClosed = errors.New("event stream closed")
)

// Pipeline coordinates one streaming exchange: persist the user turn, budget
// the response, admit a session, then drive generation and deliver events.
type Pipeline struct {
	cfg      Config
	registry *Registry
	store    MessageStore
	budget   *budget.Calculator
	gen      llm.Generator
	log      zerolog.Logger
}

// NewPipeline wires the streaming pipeline. cfg fields left zero take
// package defaults.
func NewPipeline(cfg Config, registry *Registry, store MessageStore, calc *budget.Calculator, gen llm.Generator) *Pipeline {
	cfg = cfg.withDefaults()
	return &Pipeline{
		cfg:      cfg,
		registry: registry,
		store:    store,
		budget:   calc,
		gen:      gen,
		log:      cfg.Logger,
	}
}

// Registry exposes the session registry for status reporting and cancellation.
func (p *Pipeline) Registry() *Registry { return p.registry }

// Ceiling returns the total-token ceiling the pipeline budgets against.
func (p *Pipeline) Ceiling() int { return p.budget.Ceiling() }

// Start runs the setup phase: it persists the user message, builds the
// prompt from the full transcript, computes the response-token cap, creates
// the placeholder assistant message and admits a session. No generation
// happens here; the caller opens the push channel and calls Run.
func (p *Pipeline) Start(ctx context.Context, conversationID int64, message string) (types.StartChatResponse, error) {
	if _, err := p.store.GetConversation(ctx, conversationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.StartChatResponse{}, ErrConversationNotFound(conversationID)
		}
		return types.StartChatResponse{}, err
	}

	if _, err := p.store.CreateMessage(ctx, conversationID, "user", message); err != nil {
		return types.StartChatResponse{}, err
	}

	history, err := p.store.ListMessages(ctx, conversationID)
	if err != nil {
		return types.StartChatResponse{}, err
	}
	prompt := BuildPrompt(history)

	maxTokens := p.budget.MaxResponseTokens(prompt)
	if maxTokens < minPracticalResponseTokens {
		p.log.Warn().
			Int64("conversation_id", conversationID).
			Int("max_response_tokens", maxTokens).
			Msg("response budget below practical minimum, proceeding anyway")
	}

	messageID, err := p.store.CreateMessage(ctx, conversationID, "assistant", "")
	if err != nil {
		return types.StartChatResponse{}, err
	}

	s := p.registry.Create(conversationID, messageID, prompt, maxTokens)
	p.log.Info().
		Str("session_id", s.ID).
		Int64("conversation_id", conversationID).
		Int64("message_id", messageID).
		Int("max_response_tokens", maxTokens).
		Msg("streaming session admitted")

	return types.StartChatResponse{
		SessionID:         s.ID,
		MessageID:         messageID,
		MaxResponseTokens: maxTokens,
	}, nil
}

// Run drives generation for an admitted session and emits events on sink
// until a terminal event (complete or error) is delivered. Every failure is
// translated into a structured error event; raw error text never reaches the
// sink. On return the session is retired, except when the sink itself failed
// before a terminal event could be written.
func (p *Pipeline) Run(ctx context.Context, sessionID string, sink EventSink) error {
	s, ok := p.registry.Get(sessionID)
	if !ok {
		_ = sink.Error(types.ErrorEvent{
			Error:     "session not found or expired",
			ErrorType: types.ErrorTypeValidation,
		})
		return nil
	}

	genCtx, cancelGen := context.WithCancel(ctx)
	defer cancelGen()
	go func() {
		select {
		case <-s.Done():
			cancelGen()
		case <-genCtx.Done():
		}
	}()

	start := time.Now()
	var content strings.Builder
	tokenCount := 0

	onToken := func(tok string) error {
		if s.CancelRequested() {
			return errCancelled
		}
		if err := sink.Token(types.TokenEvent{
			Token:     tok,
			MessageID: s.MessageID,
			SessionID: s.ID,
		}); err != nil {
			return errStreamClosed
		}
		// Accumulate only after delivery so the persisted partial never
		// contains a token the client did not receive.
		content.WriteString(tok)
		tokenCount++
		return nil
	}

	_, genErr := p.gen.Generate(genCtx, llm.Request{
		Prompt:    s.Prompt,
		MaxTokens: s.MaxResponseTokens,
		Stop:      p.cfg.StopSequences,
	}, onToken)

	elapsedMs := time.Since(start).Milliseconds()

	// A context error raised while blocked upstream is still a client
	// cancellation when the session's cancel signal fired.
	if genErr != nil && s.CancelRequested() {
		genErr = errCancelled
	}

	// Persist whatever was generated even when the request context is gone;
	// the client refetches the message as the authoritative final state.
	storeCtx := context.WithoutCancel(ctx)
	finalize := func() {
		if err := p.store.FinalizeMessage(storeCtx, s.MessageID, content.String(), tokenCount, elapsedMs); err != nil {
			p.log.Error().Err(err).
				Int64("message_id", s.MessageID).
				Msg("finalize message failed")
		}
	}

	switch {
	case genErr == nil:
		finalize()
		p.registry.Remove(s.ID)
		if err := sink.Complete(types.CompleteEvent{
			MessageID:        s.MessageID,
			TokenCount:       tokenCount,
			CompletionTimeMs: elapsedMs,
		}); err != nil {
			return err
		}
		p.log.Info().
			Str("session_id", s.ID).
			Int("token_count", tokenCount).
			Int64("completion_time_ms", elapsedMs).
			Msg("generation complete")
		return nil

	case errors.Is(genErr, errCancelled):
		finalize()
		p.registry.Remove(s.ID)
		_ = sink.Error(types.ErrorEvent{
			Error:     "generation cancelled",
			ErrorType: types.ErrorTypeCancelled,
		})
		p.log.Info().
			Str("session_id", s.ID).
			Int("token_count", tokenCount).
			Msg("generation cancelled by client")
		return nil

	case errors.Is(genErr, errStreamClosed):
		// Client went away mid-stream. Keep the partial content; the session
		// is finished either way.
		finalize()
		p.registry.Remove(s.ID)
		p.log.Warn().
			Str("session_id", s.ID).
			Int("token_count", tokenCount).
			Msg("event stream closed mid-generation")
		return errStreamClosed

	default:
		finalize()
		p.registry.Remove(s.ID)
		p.log.Error().Err(genErr).
			Str("session_id", s.ID).
			Msg("generation failed")
		_ = sink.Error(types.ErrorEvent{
			Error:     "generation service unavailable",
			ErrorType: types.ErrorTypeService,
		})
		return nil
	}
}

// Cancel requests cooperative cancellation of a live session. Returns false
// when the session is unknown or already finished.
func (p *Pipeline) Cancel(sessionID string) bool {
	cancelled := p.registry.Cancel(sessionID)
	if cancelled {
		p.log.Info().Str("session_id", sessionID).Msg("cancellation requested")
	}
	return cancelled
}
