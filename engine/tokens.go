package engine

import "github.com/convopg/convopg/types"

// ApproximateTokens estimates token count from character count.
// Uses the approximation of ~4 characters per token for English text.
func ApproximateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := (len(text) + 3) / 4
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// approximateMessageTokens estimates tokens for a single message using
// character approximation, plus a small per-message structural overhead.
func approximateMessageTokens(msg Message) int {
	// ~4 tokens of overhead for role and message framing
	total := 4

	for _, block := range msg.Content {
		switch block.Type {
		case types.ContentTypeText:
			total += ApproximateTokens(block.Text)
		case types.ContentTypeData:
			total += ApproximateTokens(string(block.Data))
		default:
			if block.Text != "" {
				total += ApproximateTokens(block.Text)
			}
		}
	}

	return total
}

// approximateMessagesTokens sums the per-message approximations.
func approximateMessagesTokens(messages []Message) int {
	total := 0
	for _, msg := range messages {
		total += approximateMessageTokens(msg)
	}
	return total
}
