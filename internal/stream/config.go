package stream

import "github.com/rs/zerolog"

// Defaults applied when corresponding Config fields are unset.
const (
	// DefaultMaxSessionsPerConversation bounds concurrent generations per
	// conversation. Generous enough for multiple tabs and retries while
	// capping worst-case memory and compute.
	DefaultMaxSessionsPerConversation = 10

	// minPracticalResponseTokens is the cap below which a request is still
	// served but flagged: a very short valid response beats a refusal.
	minPracticalResponseTokens = 50
)

// defaultStopSequences end generation at the next user turn boundary.
var defaultStopSequences = []string{"\nUser:"}

// Config encapsulates tunables for the streaming pipeline. The session cap
// is not here: it belongs to the Registry, which NewRegistry configures.
type Config struct {
	// StopSequences handed to the generation backend.
	StopSequences []string
	Logger        zerolog.Logger
}

func (c Config) withDefaults() Config {
	if len(c.StopSequences) == 0 {
		c.StopSequences = defaultStopSequences
	}
	return c
}
