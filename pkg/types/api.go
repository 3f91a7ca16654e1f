package types

// StartChatRequest initiates a streaming generation for a conversation.
type StartChatRequest struct {
	// Conversation that owns the new exchange.
	// example: 12
	ConversationID int64 `json:"conversation_id" example:"12"`
	// Required user message text.
	// example: Explain how SSE differs from WebSockets.
	Message string `json:"message" example:"Explain how SSE differs from WebSockets."`
}

// StartChatResponse returns the correlation ids for the two-phase protocol.
// The client opens the push channel addressed by SessionID to begin streaming.
type StartChatResponse struct {
	// Opaque session identifier for the push channel and cancellation.
	// example: 7b0c9c1e-8a4f-4b6e-9a2d-0f3d1c5e7a90
	SessionID string `json:"session_id" example:"7b0c9c1e-8a4f-4b6e-9a2d-0f3d1c5e7a90"`
	// ID of the placeholder assistant message this session will fill in.
	// example: 431
	MessageID int64 `json:"message_id" example:"431"`
	// Response-token cap computed for this request.
	// example: 22600
	MaxResponseTokens int `json:"max_response_tokens" example:"22600"`
}

// SSE event names carried on the push channel.
const (
	EventToken    = "token"
	EventComplete = "complete"
	EventError    = "error"
)

// Error types carried in ErrorEvent payloads.
const (
	ErrorTypeValidation = "validation_error"
	ErrorTypeService    = "service_error"
	ErrorTypeCancelled  = "cancelled"
)

// TokenEvent is the payload of an "event: token" frame.
type TokenEvent struct {
	Token     string `json:"token"`
	MessageID int64  `json:"message_id"`
	SessionID string `json:"session_id"`
}

// CompleteEvent is the payload of an "event: complete" frame.
type CompleteEvent struct {
	MessageID        int64 `json:"message_id"`
	TokenCount       int   `json:"token_count"`
	CompletionTimeMs int64 `json:"completion_time_ms"`
}

// ErrorEvent is the payload of an "event: error" frame. It is the only shape
// server-side failures take on the wire; raw errors never cross the boundary.
type ErrorEvent struct {
	Error     string `json:"error"`
	ErrorType string `json:"error_type"`
}

// Message is a persisted conversation message.
type Message struct {
	// example: 431
	ID int64 `json:"id" example:"431"`
	// example: 12
	ConversationID int64 `json:"conversation_id" example:"12"`
	// Role of the author: user or assistant.
	// example: assistant
	Role string `json:"role" example:"assistant"`
	Content string `json:"content"`
	// Number of tokens emitted while generating this message (assistant only).
	// example: 184
	TokenCount int `json:"token_count,omitempty" example:"184"`
	// Wall-clock generation time in milliseconds (assistant only).
	// example: 2150
	CompletionTimeMs int64 `json:"completion_time_ms,omitempty" example:"2150"`
	// Creation time in unix seconds.
	// example: 1700000000
	CreatedTs int64 `json:"created_ts" example:"1700000000"`
}

// Conversation groups messages under one chat thread.
type Conversation struct {
	// example: 12
	ID int64 `json:"id" example:"12"`
	// example: New Chat
	Title string `json:"title" example:"New Chat"`
	// example: 1700000000
	CreatedTs int64 `json:"created_ts" example:"1700000000"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// SessionStatus summarizes a live streaming session for /status.
type SessionStatus struct {
	// example: 7b0c9c1e-8a4f-4b6e-9a2d-0f3d1c5e7a90
	SessionID string `json:"session_id" example:"7b0c9c1e-8a4f-4b6e-9a2d-0f3d1c5e7a90"`
	// example: 12
	ConversationID int64 `json:"conversation_id" example:"12"`
	// example: 431
	MessageID int64 `json:"message_id" example:"431"`
	// Creation time in unix milliseconds; oldest-first eviction key.
	// example: 1700000000000
	CreatedAtUnixMs int64 `json:"created_at_unix_ms" example:"1700000000000"`
	// Whether cancellation has been requested for this session.
	// example: false
	CancelRequested bool `json:"cancel_requested" example:"false"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Live streaming sessions.
	Sessions []SessionStatus `json:"sessions"`
	// Per-conversation concurrency cap.
	// example: 10
	MaxSessionsPerConversation int `json:"max_sessions_per_conversation" example:"10"`
	// Total-token ceiling enforced per request.
	// example: 22800
	CeilingTokens int `json:"ceiling_tokens" example:"22800"`
	// Total sessions evicted to admit newer ones.
	// example: 3
	EvictionsTotal uint64 `json:"evictions_total" example:"3"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
