package e2e

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"chatd/internal/budget"
	"chatd/internal/httpapi"
	"chatd/internal/llm"
	"chatd/internal/store"
	"chatd/internal/stream"
)

// scriptedGenerator replays tokens with an optional delay per token so tests
// can cancel mid-stream deterministically.
type scriptedGenerator struct {
	mu       sync.Mutex
	tokens   []string
	perToken time.Duration
	err      error
}

func (g *scriptedGenerator) Generate(ctx context.Context, _ llm.Request, onToken func(string) error) (llm.Result, error) {
	g.mu.Lock()
	tokens := append([]string(nil), g.tokens...)
	delay := g.perToken
	genErr := g.err
	g.mu.Unlock()

	var b strings.Builder
	for _, tok := range tokens {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return llm.Result{}, ctx.Err()
			}
		}
		if err := onToken(tok); err != nil {
			return llm.Result{}, err
		}
		b.WriteString(tok)
	}
	if genErr != nil {
		return llm.Result{}, genErr
	}
	return llm.Result{Content: b.String(), FinishReason: "stop", TokenCount: len(tokens)}, nil
}

type testEnv struct {
	srv   *httptest.Server
	store *store.Store
	gen   *scriptedGenerator
	reg   *stream.Registry
}

// newTestEnv stands up the full stack on a temporary SQLite database:
// store, budget, registry, pipeline, service and HTTP mux.
func newTestEnv(t *testing.T, maxSessions int) *testEnv {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	gen := &scriptedGenerator{tokens: []string{"Hello", " from", " the", " model"}}
	log := zerolog.Nop()
	reg := stream.NewRegistry(maxSessions, log)
	calc := budget.New(0, 0, 0, log)
	pipe := stream.NewPipeline(stream.Config{Logger: log}, reg, st, calc, gen)
	svc := stream.NewService(pipe, st)

	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: st, gen: gen, reg: reg}
}
