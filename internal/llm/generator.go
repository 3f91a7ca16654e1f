// Package llm defines the minimal interface over the upstream token
// generation service. Keep this surface small; prompt construction and budget
// decisions live with the callers.
package llm

import "context"

// Request carries one generation call.
type Request struct {
	// Prompt is the fully built prompt text.
	Prompt string
	// MaxTokens caps the number of new tokens the backend may emit.
	MaxTokens int
	// Stop sequences end generation when matched (e.g. a role boundary).
	Stop []string
}

// Result summarizes a finished generation.
type Result struct {
	Content      string
	FinishReason string
	TokenCount   int
}

// Generator streams tokens for a prompt. Implementations call onToken once
// per emitted token, in order; if onToken returns an error, generation stops
// immediately and that error is returned unwrapped so callers can recognize
// their own sentinel.
type Generator interface {
	Generate(ctx context.Context, req Request, onToken func(token string) error) (Result, error)
}
