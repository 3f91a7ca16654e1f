package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "chatd.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConversationRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, "budget talk")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if conv.ID == 0 {
		t.Fatal("expected non-zero conversation id")
	}
	got, err := s.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if got.Title != "budget talk" {
		t.Fatalf("expected title round trip, got %q", got.Title)
	}
}

func TestCreateConversationDefaultsTitle(t *testing.T) {
	s := openTestStore(t)
	conv, err := s.CreateConversation(context.Background(), "")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if conv.Title != "New Chat" {
		t.Fatalf("expected default title, got %q", conv.Title)
	}
}

func TestMessageLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	conv, err := s.CreateConversation(ctx, "")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	userID, err := s.CreateMessage(ctx, conv.ID, "user", "hello there")
	if err != nil {
		t.Fatalf("create user message: %v", err)
	}
	asstID, err := s.CreateMessage(ctx, conv.ID, "assistant", "")
	if err != nil {
		t.Fatalf("create placeholder: %v", err)
	}
	if asstID <= userID {
		t.Fatalf("expected increasing ids, got %d then %d", userID, asstID)
	}

	if err := s.FinalizeMessage(ctx, asstID, "general kenobi", 4, 1234); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	m, err := s.GetMessage(ctx, asstID)
	if err != nil {
		t.Fatalf("get message: %v", err)
	}
	if m.Content != "general kenobi" || m.TokenCount != 4 || m.CompletionTimeMs != 1234 {
		t.Fatalf("unexpected finalized message: %+v", m)
	}

	msgs, err := s.ListMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages got %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Fatalf("expected creation order, got %s then %s", msgs[0].Role, msgs[1].Role)
	}
}

func TestFinalizeUnknownMessage(t *testing.T) {
	s := openTestStore(t)
	err := s.FinalizeMessage(context.Background(), 9999, "x", 1, 1)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows got %v", err)
	}
}

func TestListMessagesEmptyConversation(t *testing.T) {
	s := openTestStore(t)
	msgs, err := s.ListMessages(context.Background(), 42)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected no messages got %d", len(msgs))
	}
}
