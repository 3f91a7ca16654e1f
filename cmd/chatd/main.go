package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"chatd/internal/budget"
	"chatd/internal/config"
	"chatd/internal/httpapi"
	"chatd/internal/llm"
	"chatd/internal/store"
	"chatd/internal/stream"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated list, trimming whitespace and dropping
// empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	// Flags with environment variable defaults
	addr := flag.String("addr", envOr("CHATD_ADDR", ":8080"), "HTTP listen address, e.g. :8080")
	configPath := flag.String("config", os.Getenv("CHATD_CONFIG"), "Optional config file (.yaml/.json/.toml)")
	dbPath := flag.String("db", envOr("CHATD_DB", "chat.db"), "SQLite database path")
	ceiling := flag.Int("ceiling-tokens", 0, "Total token ceiling per request (0=default)")
	safetyBuffer := flag.Int("safety-buffer", 0, "Reserved token buffer under the ceiling (0=default)")
	minResponse := flag.Int("min-response", 0, "Minimum response token floor (0=default)")
	maxSessions := flag.Int("max-sessions", 0, "Max concurrent sessions per conversation (0=default)")
	llmBaseURL := flag.String("llm-base-url", envOr("CHATD_LLM_BASE_URL", "http://localhost:8081/v1"), "Base URL of the completion service")
	llmAPIKey := flag.String("llm-api-key", envOr("CHATD_LLM_API_KEY", os.Getenv("OPENAI_API_KEY")), "API key for the completion service")
	llmModel := flag.String("llm-model", os.Getenv("CHATD_LLM_MODEL"), "Model name passed to the completion service")
	corsOrigins := flag.String("cors-origins", os.Getenv("CHATD_CORS_ORIGINS"), "Comma-separated allowed CORS origins (empty disables CORS)")
	streamTimeout := flag.Int64("stream-timeout-sec", 0, "Max seconds a single stream may run (0=unlimited)")
	flag.Parse()

	// Config file fills anything the flags left at their zero default.
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config %s: %v", *configPath, err)
		}
		if cfg.Addr != "" && *addr == ":8080" {
			*addr = cfg.Addr
		}
		if cfg.DBPath != "" && *dbPath == "chat.db" {
			*dbPath = cfg.DBPath
		}
		if *ceiling == 0 {
			*ceiling = cfg.CeilingTokens
		}
		if *safetyBuffer == 0 {
			*safetyBuffer = cfg.SafetyBuffer
		}
		if *minResponse == 0 {
			*minResponse = cfg.MinimumResponse
		}
		if *maxSessions == 0 {
			*maxSessions = cfg.MaxSessions
		}
		if cfg.LLMBaseURL != "" {
			*llmBaseURL = cfg.LLMBaseURL
		}
		if cfg.LLMAPIKey != "" && *llmAPIKey == "" {
			*llmAPIKey = cfg.LLMAPIKey
		}
		if cfg.LLMModel != "" && *llmModel == "" {
			*llmModel = cfg.LLMModel
		}
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	st, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	gen := llm.NewOpenAIGenerator(llm.OpenAIConfig{
		BaseURL: *llmBaseURL,
		APIKey:  *llmAPIKey,
		Model:   *llmModel,
	})

	calc := budget.New(*ceiling, *safetyBuffer, *minResponse, logger)
	reg := stream.NewRegistry(*maxSessions, logger)
	pipe := stream.NewPipeline(stream.Config{Logger: logger}, reg, st, calc, gen)
	svc := stream.NewService(pipe, st)

	// Base context lets shutdown cancel in-flight generations.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)
	httpapi.SetLogger(logger)
	httpapi.SetStreamTimeoutSeconds(*streamTimeout)
	if origins := splitCSV(*corsOrigins); len(origins) > 0 {
		httpapi.SetCORSOptions(true, origins,
			[]string{"GET", "POST", "OPTIONS"},
			[]string{"Content-Type", "X-Log-Level"})
	}

	mux := httpapi.NewMux(svc)
	srv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		logger.Info().Str("addr", *addr).Str("db", *dbPath).Msg("chatd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}
