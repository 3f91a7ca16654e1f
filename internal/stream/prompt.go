package stream

import (
	"strings"

	"chatd/pkg/types"
)

// BuildPrompt renders a conversation transcript as a role-labelled text
// prompt ending with an open assistant turn. Messages with empty content
// (unfinalized placeholders) are skipped.
func BuildPrompt(messages []types.Message) string {
	var b strings.Builder
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		switch m.Role {
		case "assistant":
			b.WriteString("Assistant: ")
		default:
			b.WriteString("User: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("Assistant:")
	return b.String()
}
