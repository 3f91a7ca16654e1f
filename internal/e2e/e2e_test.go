package e2e

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"chatd/pkg/client"
	"chatd/pkg/types"
)

func TestE2E_FullExchange(t *testing.T) {
	env := newTestEnv(t, 0)
	c := client.New(env.srv.URL)
	ctx := context.Background()

	conv, err := c.CreateConversation(ctx, "e2e")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	resp, err := c.StartChat(ctx, conv.ID, "Say hello")
	if err != nil {
		t.Fatalf("start chat: %v", err)
	}
	if resp.MaxResponseTokens <= 0 {
		t.Fatalf("max_response_tokens = %d", resp.MaxResponseTokens)
	}

	var mu sync.Mutex
	var streamed []string
	var final types.Message
	done := make(chan struct{})
	cons := c.Consume(resp.SessionID, client.Handler{
		OnToken: func(e types.TokenEvent) {
			mu.Lock()
			streamed = append(streamed, e.Token)
			mu.Unlock()
		},
		OnComplete: func(m types.Message) {
			mu.Lock()
			final = m
			mu.Unlock()
			close(done)
		},
		OnError: func(e types.ErrorEvent) {
			t.Errorf("unexpected error event: %+v", e)
			close(done)
		},
	})
	cons.Start(ctx)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not complete")
	}

	mu.Lock()
	defer mu.Unlock()
	want := "Hello from the model"
	if got := strings.Join(streamed, ""); got != want {
		t.Fatalf("streamed %q, want %q", got, want)
	}
	if final.Content != want || final.Role != "assistant" {
		t.Fatalf("final message = %+v", final)
	}

	// Transcript holds the user turn and the finalized assistant turn.
	msgs, err := c.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != "user" || msgs[1].Content != want {
		t.Fatalf("transcript = %+v", msgs)
	}
}

func TestE2E_CancelMidStream(t *testing.T) {
	env := newTestEnv(t, 0)
	env.gen.mu.Lock()
	env.gen.tokens = []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	env.gen.perToken = 50 * time.Millisecond
	env.gen.mu.Unlock()

	c := client.New(env.srv.URL)
	ctx := context.Background()

	conv, err := c.CreateConversation(ctx, "")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	resp, err := c.StartChat(ctx, conv.ID, "go slow")
	if err != nil {
		t.Fatalf("start chat: %v", err)
	}

	gotErr := make(chan types.ErrorEvent, 1)
	seenToken := make(chan struct{}, 1)
	cons := c.Consume(resp.SessionID, client.Handler{
		OnToken: func(types.TokenEvent) {
			select {
			case seenToken <- struct{}{}:
			default:
			}
		},
		OnError: func(e types.ErrorEvent) { gotErr <- e },
		OnComplete: func(types.Message) {
			t.Error("stream completed despite cancellation")
		},
	})
	cons.Start(ctx)

	select {
	case <-seenToken:
	case <-time.After(5 * time.Second):
		t.Fatal("never saw a token")
	}
	if err := c.CancelChat(ctx, resp.SessionID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	select {
	case e := <-gotErr:
		if e.ErrorType != types.ErrorTypeCancelled {
			t.Fatalf("error_type = %q, want cancelled", e.ErrorType)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no cancelled event")
	}

	// Partial content is persisted.
	msg, err := c.GetMessage(ctx, resp.MessageID)
	if err != nil {
		t.Fatalf("get message: %v", err)
	}
	if msg.TokenCount >= 8 {
		t.Fatalf("expected partial generation, got %d tokens", msg.TokenCount)
	}
}

func TestE2E_SessionEviction(t *testing.T) {
	env := newTestEnv(t, 2)
	env.gen.mu.Lock()
	env.gen.tokens = []string{"x"}
	env.gen.mu.Unlock()

	c := client.New(env.srv.URL)
	ctx := context.Background()
	conv, err := c.CreateConversation(ctx, "")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	// Start three sessions without consuming; the cap is two.
	var sessions []string
	for i := 0; i < 3; i++ {
		resp, err := c.StartChat(ctx, conv.ID, "hello")
		if err != nil {
			t.Fatalf("start chat %d: %v", i, err)
		}
		sessions = append(sessions, resp.SessionID)
	}

	st, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(st.Sessions) != 2 {
		t.Fatalf("live sessions = %d, want 2", len(st.Sessions))
	}
	if st.EvictionsTotal != 1 {
		t.Fatalf("evictions = %d, want 1", st.EvictionsTotal)
	}
	for _, s := range st.Sessions {
		if s.SessionID == sessions[0] {
			t.Fatalf("oldest session %s survived eviction", sessions[0])
		}
	}
}

func TestE2E_ValidationErrors(t *testing.T) {
	env := newTestEnv(t, 0)
	c := client.New(env.srv.URL)
	ctx := context.Background()

	if _, err := c.StartChat(ctx, 12345, "hi"); !client.IsNotFound(err) {
		t.Fatalf("missing conversation: err = %v, want 404", err)
	}

	conv, err := c.CreateConversation(ctx, "")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if _, err := c.StartChat(ctx, conv.ID, "   "); err == nil {
		t.Fatal("blank message accepted")
	}
	if err := c.CancelChat(ctx, "not-a-session"); !client.IsNotFound(err) {
		t.Fatalf("cancel unknown session: err = %v, want 404", err)
	}
}
