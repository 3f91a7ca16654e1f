// Package budget computes response-token caps that keep every request under a
// fixed prompt+response token ceiling. Token counts are a character-based
// approximation; slightly overestimating is the safe direction since it only
// narrows the response cap.
package budget

import (
	"github.com/rs/zerolog"
)

// Defaults applied when corresponding Calculator fields are unset.
const (
	// DefaultSafeZoneTokens is the total-token ceiling (prompt + response +
	// buffer) chosen empirically to stay below the model's hard failure point.
	DefaultSafeZoneTokens = 22800
	// DefaultSafetyBuffer reserves room for stop sequences and formatting.
	DefaultSafetyBuffer = 100
	// DefaultMinimumResponse is the floor token allowance the calculator
	// tries to guarantee for a response.
	DefaultMinimumResponse = 500

	// charsPerToken is the approximation ratio. Conservative for English
	// prose and code alike.
	charsPerToken = 4
	// perMessageOverhead accounts for role labels and separators that a raw
	// character count misses.
	perMessageOverhead = 5
)

// EstimateTokens approximates the token count of text as ceil(len/4).
// Deterministic and pure.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// EstimateConversationTokens sums per-message estimates plus a small
// per-message overhead.
func EstimateConversationTokens(contents []string) int {
	total := 0
	for _, c := range contents {
		total += EstimateTokens(c) + perMessageOverhead
	}
	return total
}

// Calculator derives the maximum response-token count for a prompt under a
// fixed ceiling. The zero value is not usable; construct via New.
type Calculator struct {
	ceiling         int
	safetyBuffer    int
	minimumResponse int
	log             zerolog.Logger
}

// New constructs a Calculator, applying package defaults for unset fields.
func New(ceiling, safetyBuffer, minimumResponse int, log zerolog.Logger) *Calculator {
	if ceiling <= 0 {
		ceiling = DefaultSafeZoneTokens
	}
	if safetyBuffer <= 0 {
		safetyBuffer = DefaultSafetyBuffer
	}
	if minimumResponse <= 0 {
		minimumResponse = DefaultMinimumResponse
	}
	return &Calculator{
		ceiling:         ceiling,
		safetyBuffer:    safetyBuffer,
		minimumResponse: minimumResponse,
		log:             log,
	}
}

// Ceiling returns the configured total-token ceiling.
func (c *Calculator) Ceiling() int { return c.ceiling }

// MaxResponseTokens returns how many response tokens the prompt leaves room
// for. It is total: it never fails, it only narrows. Whenever a non-zero cap
// is returned, promptTokens + returned + safetyBuffer <= ceiling holds; a
// prompt that already breaches that bound gets a zero cap.
func (c *Calculator) MaxResponseTokens(prompt string) int {
	promptTokens := EstimateTokens(prompt)
	available := c.ceiling - promptTokens - c.safetyBuffer

	if available < 0 {
		c.log.Error().
			Int("prompt_tokens", promptTokens).
			Int("ceiling", c.ceiling).
			Int("safety_buffer", c.safetyBuffer).
			Msg("conversation history exceeds safe ceiling even before generating a response")
		return 0
	}

	if available < c.minimumResponse {
		if promptTokens+c.minimumResponse+c.safetyBuffer <= c.ceiling {
			return c.minimumResponse
		}
		c.log.Warn().
			Int("prompt_tokens", promptTokens).
			Int("available", available).
			Int("minimum_response", c.minimumResponse).
			Msg("cannot honor minimum response floor within the safe ceiling")
		return available
	}

	return available
}
