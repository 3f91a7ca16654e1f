package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"chatd/pkg/types"
)

// sseWriter emits server-sent events on an HTTP response. It implements
// stream.EventSink; every frame is flushed immediately so tokens reach the
// client as they are generated, not when a buffer fills.
type sseWriter struct {
	w     http.ResponseWriter
	flush func()
	debug bool
}

// newSSEWriter writes the SSE response headers and returns a writer bound to
// the connection. Headers must go out before the first event.
func newSSEWriter(w http.ResponseWriter, debug bool) *sseWriter {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	// Tell buffering reverse proxies (nginx) to pass frames through.
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	sw := &sseWriter{w: w, debug: debug}
	if f, ok := w.(http.Flusher); ok {
		sw.flush = f.Flush
	}
	return sw
}

func (s *sseWriter) writeEvent(name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	if s.debug {
		logSSEFrame(name, data)
	}
	if s.flush != nil {
		s.flush()
	}
	return nil
}

func (s *sseWriter) Token(e types.TokenEvent) error {
	tokensStreamedTotal.Inc()
	return s.writeEvent(types.EventToken, e)
}

func (s *sseWriter) Complete(e types.CompleteEvent) error {
	return s.writeEvent(types.EventComplete, e)
}

func (s *sseWriter) Error(e types.ErrorEvent) error {
	IncrementStreamError(e.ErrorType)
	return s.writeEvent(types.EventError, e)
}
