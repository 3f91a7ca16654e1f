package llm

import (
	"context"
	"errors"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures the OpenAI-compatible backend. BaseURL may point at
// any server speaking the completions API (llama.cpp server, vLLM, Ollama).
type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// OpenAIGenerator implements Generator over the OpenAI completions streaming
// API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator constructs a streaming generator from cfg.
func NewOpenAIGenerator(cfg OpenAIConfig) *OpenAIGenerator {
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(c),
		model:  cfg.Model,
	}
}

// Generate streams completion chunks, forwarding each text delta to onToken.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request, onToken func(token string) error) (Result, error) {
	stream, err := g.client.CreateCompletionStream(ctx, openai.CompletionRequest{
		Model:     g.model,
		Prompt:    req.Prompt,
		MaxTokens: req.MaxTokens,
		Stop:      req.Stop,
		Stream:    true,
	})
	if err != nil {
		return Result{}, err
	}
	defer stream.Close()

	var b strings.Builder
	res := Result{}
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, err
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			res.FinishReason = choice.FinishReason
		}
		if choice.Text == "" {
			continue
		}
		if err := onToken(choice.Text); err != nil {
			return res, err
		}
		b.WriteString(choice.Text)
		res.TokenCount++
	}
	res.Content = b.String()
	if res.FinishReason == "" {
		res.FinishReason = "stop"
	}
	return res, nil
}
