package client

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"chatd/pkg/types"
)

// Consumer connection states.
const (
	StateDisconnected = "disconnected"
	StateConnecting   = "connecting"
	StateConnected    = "connected"
	StateError        = "error"
)

// MaxRetries is how many reconnect attempts are made before the consumer
// gives up and enters the error state.
const MaxRetries = 5

// defaultBackoffBase is the first retry delay; each subsequent retry doubles
// it (1s, 2s, 4s, 8s, 16s).
const defaultBackoffBase = time.Second

// Handler receives stream callbacks. Nil fields are skipped. Callbacks are
// invoked from the consumer's goroutine, one at a time.
type Handler struct {
	OnToken func(types.TokenEvent)
	// OnComplete receives the authoritative persisted message, refetched
	// after the complete event; accumulated tokens can be discarded.
	OnComplete    func(types.Message)
	OnError       func(types.ErrorEvent)
	OnStateChange func(state string)
}

// Consumer drives one session's SSE stream with reconnect and backoff.
// Create with Client.Consume, then call Start once. Close is safe to call
// multiple times and concurrently with the stream goroutine.
type Consumer struct {
	client    *Client
	sessionID string
	handler   Handler

	// backoffBase is scaled down in tests.
	backoffBase time.Duration

	mu         sync.Mutex
	state      string
	retryCount int
	epoch      uint64
	timer      *time.Timer
	cancel     context.CancelFunc
	started    bool
	closed     bool

	doneOnce sync.Once
	done     chan struct{}
}

// Consume prepares a Consumer for a session's stream.
func (c *Client) Consume(sessionID string, h Handler) *Consumer {
	return &Consumer{
		client:      c,
		sessionID:   sessionID,
		handler:     h,
		backoffBase: defaultBackoffBase,
		state:       StateDisconnected,
		done:        make(chan struct{}),
	}
}

// Start begins consuming in a background goroutine. Calling Start more than
// once is a no-op.
func (c *Consumer) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()
	go c.run(ctx)
}

// Close tears the consumer down: it stops any pending retry timer, cancels
// the in-flight connection and marks the consumer finished. Idempotent and
// safe from any goroutine; a retry timer that already fired observes the
// epoch change and abandons its attempt instead of reconnecting.
func (c *Consumer) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.epoch++
	if c.timer != nil {
		c.timer.Stop()
	}
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.finish(StateDisconnected)
}

// Done is closed when the consumer has reached a terminal state.
func (c *Consumer) Done() <-chan struct{} { return c.done }

// State returns the current connection state.
func (c *Consumer) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RetryCount returns how many consecutive failed connection attempts have
// occurred since the last successful connect.
func (c *Consumer) RetryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retryCount
}

func (c *Consumer) run(ctx context.Context) {
	for {
		c.setState(StateConnecting)
		resp, err := c.client.openStream(ctx, c.sessionID)
		if err != nil {
			if ctx.Err() != nil {
				c.finish(StateDisconnected)
				return
			}
			if !c.waitRetry(ctx) {
				return
			}
			continue
		}

		c.setState(StateConnected)
		c.mu.Lock()
		c.retryCount = 0
		c.mu.Unlock()

		terminal := false
		_ = readSSE(ctx, resp.Body, func(ev sseEvent) {
			if c.dispatch(ctx, ev) {
				terminal = true
			}
		})
		resp.Body.Close()

		if terminal {
			c.finish(StateDisconnected)
			return
		}
		if ctx.Err() != nil {
			c.finish(StateDisconnected)
			return
		}
		// Stream dropped without a terminal event; reconnect to the same
		// session.
		if !c.waitRetry(ctx) {
			return
		}
	}
}

// waitRetry sleeps out the backoff for the next attempt. It returns false
// when the consumer should stop: retries exhausted, closed, or context done.
func (c *Consumer) waitRetry(ctx context.Context) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.retryCount++
	if c.retryCount > MaxRetries {
		c.mu.Unlock()
		c.emitError(types.ErrorEvent{
			Error:     "connection failed after maximum retries",
			ErrorType: types.ErrorTypeService,
		})
		c.finish(StateError)
		return false
	}
	delay := c.backoffBase << (c.retryCount - 1)
	epoch := c.epoch
	t := time.NewTimer(delay)
	c.timer = t
	c.mu.Unlock()

	select {
	case <-t.C:
	case <-ctx.Done():
		t.Stop()
		c.finish(StateDisconnected)
		return false
	}

	// A Close that raced the timer firing bumps the epoch; honor it.
	c.mu.Lock()
	stale := c.closed || c.epoch != epoch
	c.mu.Unlock()
	return !stale
}

// dispatch handles one decoded event and reports whether it was terminal.
func (c *Consumer) dispatch(ctx context.Context, ev sseEvent) bool {
	switch ev.name {
	case types.EventToken:
		var tok types.TokenEvent
		if err := json.Unmarshal(ev.data, &tok); err != nil {
			return false
		}
		if c.handler.OnToken != nil {
			c.handler.OnToken(tok)
		}
		return false

	case types.EventComplete:
		var done types.CompleteEvent
		if err := json.Unmarshal(ev.data, &done); err != nil {
			return false
		}
		// The persisted message is the source of truth for the final
		// content; accumulated tokens may have missed frames across a
		// reconnect.
		msg, err := c.client.GetMessage(ctx, done.MessageID)
		if err != nil {
			c.emitError(types.ErrorEvent{
				Error:     "stream completed but final message fetch failed",
				ErrorType: types.ErrorTypeService,
			})
			return true
		}
		if c.handler.OnComplete != nil {
			c.handler.OnComplete(msg)
		}
		return true

	case types.EventError:
		var evErr types.ErrorEvent
		if err := json.Unmarshal(ev.data, &evErr); err != nil {
			return false
		}
		c.emitError(evErr)
		return true
	}
	return false
}

func (c *Consumer) emitError(ev types.ErrorEvent) {
	if c.handler.OnError != nil {
		c.handler.OnError(ev)
	}
}

func (c *Consumer) setState(state string) {
	c.mu.Lock()
	if c.closed || c.state == state {
		c.mu.Unlock()
		return
	}
	c.state = state
	c.mu.Unlock()
	if c.handler.OnStateChange != nil {
		c.handler.OnStateChange(state)
	}
}

// finish records the terminal state and releases Done waiters.
func (c *Consumer) finish(state string) {
	notify := false
	c.mu.Lock()
	if c.state != state {
		c.state = state
		notify = c.handler.OnStateChange != nil
	}
	c.mu.Unlock()
	if notify {
		c.handler.OnStateChange(state)
	}
	c.doneOnce.Do(func() { close(c.done) })
}
