package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chatd/internal/stream"
	"chatd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	StartChat(ctx context.Context, conversationID int64, message string) (types.StartChatResponse, error)
	StreamChat(ctx context.Context, sessionID string, sink stream.EventSink) error
	CancelChat(sessionID string) bool
	CreateConversation(ctx context.Context, title string) (types.Conversation, error)
	GetMessage(ctx context.Context, id int64) (types.Message, error)
	ListMessages(ctx context.Context, conversationID int64) ([]types.Message, error)
	Status() types.StatusResponse
	Ready() bool
}

// NewMux builds the HTTP handler serving the chat streaming API.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/conversations", func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			var req struct {
				Title string `json:"title"`
			}
			// Empty body means default title.
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
				writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			conv, err := svc.CreateConversation(r.Context(), strings.TrimSpace(req.Title))
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, "failed to create conversation")
				return
			}
			writeJSON(w, http.StatusCreated, conv)
		})

		r.Get("/conversations/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
			id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid conversation id")
				return
			}
			msgs, err := svc.ListMessages(r.Context(), id)
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, "failed to list messages")
				return
			}
			if msgs == nil {
				msgs = []types.Message{}
			}
			writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
		})

		r.Get("/messages/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "invalid message id")
				return
			}
			msg, err := svc.GetMessage(r.Context(), id)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					writeJSONError(w, http.StatusNotFound, "message not found")
					return
				}
				writeJSONError(w, http.StatusInternalServerError, "failed to load message")
				return
			}
			writeJSON(w, http.StatusOK, msg)
		})

		r.Post("/chat/stream", func(w http.ResponseWriter, r *http.Request) { handleStartChat(svc, w, r) })
		r.Get("/chat/stream/{session_id}", func(w http.ResponseWriter, r *http.Request) { handleStreamChat(svc, w, r) })
		r.Post("/chat/stream/{session_id}/cancel", func(w http.ResponseWriter, r *http.Request) { handleCancelChat(svc, w, r) })
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not ready"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// handleStartChat runs the setup phase: validate, persist the user turn,
// admit a session, return the correlation ids. No tokens flow here.
func handleStartChat(svc Service, w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.StartChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSONError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.ConversationID <= 0 {
		writeJSONError(w, http.StatusBadRequest, "conversation_id is required")
		return
	}

	resp, err := svc.StartChat(r.Context(), req.ConversationID, req.Message)
	if err != nil {
		if stream.IsConversationNotFound(err) {
			writeJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		if he, ok := err.(HTTPError); ok {
			writeJSONError(w, he.StatusCode(), he.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "failed to start chat")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStreamChat opens the SSE push channel for an admitted session and
// drives generation until a terminal event.
func handleStreamChat(svc Service, w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	lvl := requestLogLevel(r)
	start := time.Now()

	if lvl >= LevelInfo {
		if zlog != nil {
			z := zlog.Info().Str("session_id", sessionID)
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Msg("stream start")
		} else {
			log.Printf("stream start session=%s", sessionID)
		}
	}

	// Join server base context with request context so shutdown cancels
	// in-flight generations too.
	joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	if streamTimeout > 0 {
		var tcancel context.CancelFunc
		joinedCtx, tcancel = context.WithTimeout(joinedCtx, time.Duration(streamTimeout)*time.Second)
		defer tcancel()
	}

	sink := newSSEWriter(w, lvl >= LevelDebug)
	err := svc.StreamChat(joinedCtx, sessionID, sink)

	if lvl >= LevelInfo {
		if zlog != nil {
			z := zlog.Info().Str("session_id", sessionID).Dur("dur", time.Since(start))
			if rid := middleware.GetReqID(r.Context()); rid != "" {
				z = z.Str("request_id", rid)
			}
			z.Err(err).Msg("stream end")
		} else {
			log.Printf("stream end session=%s dur=%s err=%v", sessionID, time.Since(start), err)
		}
	}
}

func handleCancelChat(svc Service, w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	if !svc.CancelChat(sessionID) {
		writeJSONError(w, http.StatusNotFound, "session not found or already finished")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cancelled": true, "session_id": sessionID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		if zlog != nil {
			zlog.Error().Err(err).Msg("encode response")
		}
	}
}
