// Package engine defines the generation-engine interface consumed by the
// transcript core: token-equivalent cost counting for an ordered list of
// turns, and summary generation. The Anthropic implementation lives here;
// tests substitute deterministic fakes.
package engine

import (
	"context"

	"github.com/convopg/convopg/types"
)

// Message is the {role, content} projection of a turn handed to the
// generation engine. Ordering matters; the engine expects user/model
// alternation starting with a user message.
type Message struct {
	Role    types.Role
	Content []types.ContentBlock
}

// GenerateResult contains a generated summary and the token-equivalent
// cost of the generated output as reported by the engine.
type GenerateResult struct {
	Text         string
	OutputTokens int
}

// Engine abstracts the text-generation engine.
type Engine interface {
	// CountTokens returns the token-equivalent cost of the given ordered
	// messages.
	CountTokens(ctx context.Context, messages []Message) (int, error)

	// Generate produces a condensed summary of the given ordered messages
	// and reports the output's token cost.
	Generate(ctx context.Context, messages []Message) (*GenerateResult, error)

	// MaxContextTokens reports the engine's maximum context window size.
	// The compaction trigger threshold is a fraction of this value.
	MaxContextTokens() int
}

// Project converts turns to engine messages, dropping turns with no
// content: the engine rejects empty messages.
func Project(turns []*types.Turn) []Message {
	messages := make([]Message, 0, len(turns))
	for _, turn := range turns {
		if !turn.HasContent() {
			continue
		}
		messages = append(messages, Message{Role: turn.Role, Content: turn.Content})
	}
	return messages
}
