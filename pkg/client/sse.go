package client

import (
	"bytes"
	"context"
	"io"
	"strings"
)

// sseEvent is one decoded server-sent event.
type sseEvent struct {
	name string
	data []byte
}

// readSSE decodes server-sent events from r and passes each to emit until the
// stream ends or ctx is cancelled. A clean EOF returns nil; the caller
// decides whether the stream terminated properly.
func readSSE(ctx context.Context, r io.Reader, emit func(sseEvent)) error {
	buf := make([]byte, 0, 64*1024)
	tmp := make([]byte, 4096)
	var event string
	var data []byte
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := r.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
			for {
				idx := bytes.IndexByte(buf, '\n')
				if idx == -1 {
					break
				}
				line := string(bytes.TrimRight(buf[:idx], "\r"))
				buf = buf[idx+1:]
				if line == "" {
					if len(data) > 0 {
						emit(sseEvent{name: event, data: append([]byte(nil), data...)})
					}
					event = ""
					data = data[:0]
					continue
				}
				if strings.HasPrefix(line, "event:") {
					event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
					continue
				}
				if strings.HasPrefix(line, "data:") {
					payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
					data = append(data, payload...)
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
