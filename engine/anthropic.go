package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/convopg/convopg/types"
)

// Default configuration values for the Anthropic engine.
const (
	DefaultModel            = "claude-3-5-haiku-20241022"
	DefaultMaxContextTokens = 200000
	DefaultSummaryMaxTokens = 4096
)

// AnthropicConfig configures an AnthropicEngine.
type AnthropicConfig struct {
	// Model is the Claude model used for counting and summarization.
	// Default: DefaultModel
	Model string

	// MaxContextTokens is the model's context window size.
	// Default: DefaultMaxContextTokens
	MaxContextTokens int

	// SummaryMaxTokens caps the summarization response length.
	// Default: DefaultSummaryMaxTokens
	SummaryMaxTokens int

	// SystemPrompt overrides the summarization system prompt.
	// Default: SummarizationSystemPrompt
	SystemPrompt string

	// UseTokenCountingAPI selects Claude's token counting API for
	// CountTokens. When false, or after the API fails once, a
	// character-based approximation is used instead.
	// Default: true
	UseTokenCountingAPI bool
}

// ApplyDefaults fills in zero values with defaults.
func (c *AnthropicConfig) ApplyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxContextTokens == 0 {
		c.MaxContextTokens = DefaultMaxContextTokens
	}
	if c.SummaryMaxTokens == 0 {
		c.SummaryMaxTokens = DefaultSummaryMaxTokens
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = SummarizationSystemPrompt
	}
}

// AnthropicEngine implements Engine on the Anthropic API.
type AnthropicEngine struct {
	client   *anthropic.Client
	config   AnthropicConfig
	fallback bool // set once the counting API has failed
}

// NewAnthropicEngine creates an Engine backed by the given Anthropic client.
func NewAnthropicEngine(client *anthropic.Client, config AnthropicConfig) *AnthropicEngine {
	config.ApplyDefaults()
	return &AnthropicEngine{client: client, config: config}
}

// NewDefaultAnthropicEngine creates an Engine with default configuration.
// The token counting API is enabled.
func NewDefaultAnthropicEngine(client *anthropic.Client) *AnthropicEngine {
	return NewAnthropicEngine(client, AnthropicConfig{UseTokenCountingAPI: true})
}

// MaxContextTokens reports the configured context window size.
func (e *AnthropicEngine) MaxContextTokens() int {
	return e.config.MaxContextTokens
}

// CountTokens counts the tokens in the given messages via the Claude token
// counting API, falling back to character-based approximation if the API is
// disabled or unavailable.
func (e *AnthropicEngine) CountTokens(ctx context.Context, messages []Message) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	if e.config.UseTokenCountingAPI && e.client != nil && !e.fallback {
		count, err := e.countWithAPI(ctx, messages)
		if err == nil {
			return count, nil
		}
		e.fallback = true
	}

	return approximateMessagesTokens(messages), nil
}

func (e *AnthropicEngine) countWithAPI(ctx context.Context, messages []Message) (int, error) {
	anthropicMessages := convertMessages(messages)
	if len(anthropicMessages) == 0 {
		return 0, nil
	}

	result, err := e.client.Messages.CountTokens(ctx, anthropic.MessageCountTokensParams{
		Model:    anthropic.Model(e.config.Model),
		Messages: anthropicMessages,
	})
	if err != nil {
		return 0, fmt.Errorf("token counting failed: %w", err)
	}

	return int(result.InputTokens), nil
}

// Generate produces a summary of the given messages using the streaming API
// and reports the output token cost from the response usage.
func (e *AnthropicEngine) Generate(ctx context.Context, messages []Message) (*GenerateResult, error) {
	anthropicMessages := convertMessages(messages)
	if len(anthropicMessages) == 0 {
		return nil, fmt.Errorf("no content to summarize")
	}

	stream := e.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.config.Model),
		MaxTokens: int64(e.config.SummaryMaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: e.config.SystemPrompt},
		},
		Messages: anthropicMessages,
	})

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return nil, fmt.Errorf("failed to accumulate stream: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("summarization failed: %w", err)
	}

	var summary strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			summary.WriteString(text.Text)
		}
	}

	if summary.Len() == 0 {
		return nil, fmt.Errorf("empty response from summarizer")
	}

	outputTokens := int(message.Usage.OutputTokens)
	if outputTokens == 0 {
		outputTokens = ApproximateTokens(summary.String())
	}

	return &GenerateResult{
		Text:         summary.String(),
		OutputTokens: outputTokens,
	}, nil
}

// convertMessages converts engine messages to Anthropic message params.
// The transcript's "model" role maps to the API's "assistant"; structured
// data blocks are passed through as text so they still count against and
// inform the summary.
func convertMessages(messages []Message) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		role := anthropic.MessageParamRoleUser
		if msg.Role == types.RoleModel {
			role = anthropic.MessageParamRoleAssistant
		}

		content := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Content))
		for _, block := range msg.Content {
			switch block.Type {
			case types.ContentTypeText:
				if block.Text != "" {
					content = append(content, anthropic.NewTextBlock(block.Text))
				}
			case types.ContentTypeData:
				if len(block.Data) > 0 {
					content = append(content, anthropic.NewTextBlock(string(block.Data)))
				}
			}
		}

		if len(content) > 0 {
			result = append(result, anthropic.MessageParam{
				Role:    role,
				Content: content,
			})
		}
	}

	return result
}
