package client

import (
	"context"
	"io"
	"strings"
	"testing"
)

// chunkedReader returns its parts one Read at a time to exercise frame
// reassembly across reads.
type chunkedReader struct {
	parts []string
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if len(c.parts) == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.parts[0])
	if n < len(c.parts[0]) {
		c.parts[0] = c.parts[0][n:]
	} else {
		c.parts = c.parts[1:]
	}
	return n, nil
}

func TestReadSSE(t *testing.T) {
	input := "event: token\ndata: {\"token\":\"hi\"}\n\nevent: complete\ndata: {\"message_id\":1}\n\n"
	var got []sseEvent
	err := readSSE(context.Background(), strings.NewReader(input), func(ev sseEvent) {
		got = append(got, ev)
	})
	if err != nil {
		t.Fatalf("readSSE: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].name != "token" || string(got[0].data) != `{"token":"hi"}` {
		t.Fatalf("event 0 = %+v", got[0])
	}
	if got[1].name != "complete" {
		t.Fatalf("event 1 = %+v", got[1])
	}
}

func TestReadSSESplitAcrossReads(t *testing.T) {
	r := &chunkedReader{parts: []string{
		"event: tok", "en\nda", "ta: {\"token\":\"a\"}", "\n\n",
	}}
	var got []sseEvent
	if err := readSSE(context.Background(), r, func(ev sseEvent) { got = append(got, ev) }); err != nil {
		t.Fatalf("readSSE: %v", err)
	}
	if len(got) != 1 || got[0].name != "token" || string(got[0].data) != `{"token":"a"}` {
		t.Fatalf("events = %+v", got)
	}
}

func TestReadSSEHandlesCRLF(t *testing.T) {
	input := "event: token\r\ndata: {\"token\":\"x\"}\r\n\r\n"
	var got []sseEvent
	if err := readSSE(context.Background(), strings.NewReader(input), func(ev sseEvent) { got = append(got, ev) }); err != nil {
		t.Fatalf("readSSE: %v", err)
	}
	if len(got) != 1 || got[0].name != "token" {
		t.Fatalf("events = %+v", got)
	}
}

func TestReadSSECancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := readSSE(ctx, strings.NewReader("event: token\n"), func(sseEvent) {})
	if err == nil {
		t.Fatalf("expected context error")
	}
}
