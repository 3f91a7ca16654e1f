package httpapi

import (
	"context"
)

// serverBaseCtx is cancelled on daemon shutdown so that long-lived SSE
// streams stop instead of outliving the listener. Defaults to Background.
var serverBaseCtx = context.Background()

// SetBaseContext installs the shutdown context the streaming handlers watch.
// A nil ctx restores the Background default.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts derives a context that ends when either the shutdown context
// or the request context does, so a stream stops on client disconnect and on
// daemon shutdown alike. The cancel func must be called when the handler
// returns so the watcher goroutine exits.
func joinContexts(shutdown, request context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-shutdown.Done():
			cancel()
		case <-request.Done():
			cancel()
		}
	}()
	return ctx, cancel
}
