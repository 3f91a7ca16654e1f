package blackbox

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"chatd/pkg/client"
	"chatd/pkg/types"
)

// findFreePort picks an available TCP port on localhost.
func findFreePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	var port int
	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	fmt.Sscanf(portStr, "%d", &port)
	return port
}

func projectRootFromThisFile(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file: <root>/tests/blackbox/blackbox_test.go
	bbDir := filepath.Dir(thisFile)
	return filepath.Dir(filepath.Dir(bbDir))
}

func buildBinary(t *testing.T) string {
	t.Helper()
	root := projectRootFromThisFile(t)
	binPath := filepath.Join(t.TempDir(), "chatd")
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/chatd")
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(out))
	}
	return binPath
}

// fakeCompletionServer speaks just enough of the OpenAI completions
// streaming API to feed the daemon tokens.
func fakeCompletionServer(t *testing.T, tokens []string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/completions") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		f, _ := w.(http.Flusher)
		for _, tok := range tokens {
			fmt.Fprintf(w, "data: {\"id\":\"cmpl-1\",\"object\":\"text_completion\",\"choices\":[{\"text\":%q,\"index\":0}]}\n\n", tok)
			if f != nil {
				f.Flush()
			}
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		if f != nil {
			f.Flush()
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func waitHealthy(t *testing.T, baseURL string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(baseURL + "/healthz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("server never became healthy")
}

func startDaemon(t *testing.T, upstreamURL string) string {
	t.Helper()
	bin := buildBinary(t)
	port := findFreePort(t)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	dbPath := filepath.Join(t.TempDir(), "chat.db")

	cmd := exec.Command(bin,
		"--addr", addr,
		"--db", dbPath,
		"--llm-base-url", upstreamURL+"/v1",
		"--llm-model", "test-model",
	)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("start daemon: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})

	baseURL := "http://" + addr
	waitHealthy(t, baseURL)
	return baseURL
}

func TestBlackbox_StreamingExchange(t *testing.T) {
	if testing.Short() {
		t.Skip("blackbox test builds and spawns the daemon")
	}
	upstream := fakeCompletionServer(t, []string{"Hi", " there", "!"})
	baseURL := startDaemon(t, upstream.URL)

	c := client.New(baseURL)
	ctx := context.Background()

	conv, err := c.CreateConversation(ctx, "blackbox")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	resp, err := c.StartChat(ctx, conv.ID, "greet me")
	if err != nil {
		t.Fatalf("start chat: %v", err)
	}

	var mu sync.Mutex
	var tokens []string
	var final *types.Message
	done := make(chan struct{})
	cons := c.Consume(resp.SessionID, client.Handler{
		OnToken: func(e types.TokenEvent) {
			mu.Lock()
			tokens = append(tokens, e.Token)
			mu.Unlock()
		},
		OnComplete: func(m types.Message) {
			mu.Lock()
			final = &m
			mu.Unlock()
			close(done)
		},
		OnError: func(e types.ErrorEvent) {
			t.Errorf("error event: %+v", e)
			close(done)
		},
	})
	cons.Start(ctx)
	select {
	case <-done:
	case <-time.After(15 * time.Second):
		t.Fatal("stream did not complete")
	}

	mu.Lock()
	defer mu.Unlock()
	if got := strings.Join(tokens, ""); got != "Hi there!" {
		t.Fatalf("streamed %q", got)
	}
	if final == nil || final.Content != "Hi there!" {
		t.Fatalf("final = %+v", final)
	}

	// Status shows no lingering sessions.
	st, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(st.Sessions) != 0 {
		t.Fatalf("lingering sessions: %+v", st.Sessions)
	}
}

func TestBlackbox_ValidationAndNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("blackbox test builds and spawns the daemon")
	}
	upstream := fakeCompletionServer(t, []string{"x"})
	baseURL := startDaemon(t, upstream.URL)

	c := client.New(baseURL)
	ctx := context.Background()

	if _, err := c.StartChat(ctx, 999, "hi"); !client.IsNotFound(err) {
		t.Fatalf("expected 404 for unknown conversation, got %v", err)
	}
	if _, err := c.GetMessage(ctx, 12345); !client.IsNotFound(err) {
		t.Fatalf("expected 404 for unknown message, got %v", err)
	}
}
