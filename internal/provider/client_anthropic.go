package provider

import (
	"context"
	"fmt"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"dialogic/internal/logging"
)

// AnthropicClient adapts the Anthropic messages API. Its native streaming
// shape is content-block deltas: typed events carrying text fragments.
type AnthropicClient struct {
	client anthropic.Client
	model  string
}

const (
	// DefaultAnthropicModel is the chat model used unless overridden.
	DefaultAnthropicModel = "claude-3-5-sonnet-latest"
	// anthropicValidationModel keeps the validation probe cheap.
	anthropicValidationModel = "claude-3-haiku-20240307"

	anthropicMaxTokens = 4096
)

// NewAnthropicClient creates an Anthropic adapter with the default model.
func NewAnthropicClient(apiKey string) *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  DefaultAnthropicModel,
	}
}

// SetModel changes the model used for completions.
func (c *AnthropicClient) SetModel(model string) {
	if model != "" {
		c.model = model
	}
}

// Validate issues a one-token message as a minimal authenticated call.
func (c *AnthropicClient) Validate(ctx context.Context) bool {
	_, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(anthropicValidationModel),
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("hi")),
		},
	})
	if err != nil {
		logging.GatewayWarn("[Anthropic] validation failed: %v", err)
		return false
	}
	return true
}

// StreamChat implements the Client contract over content-block-delta
// streaming.
func (c *AnthropicClient) StreamChat(ctx context.Context, messages []ChatMessage, systemInstruction string, onChunk ChunkFunc) (string, error) {
	msgs := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(block))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: anthropicMaxTokens,
		Messages:  msgs,
	}
	if systemInstruction != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemInstruction}}
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	acc := newAccumulator(onChunk)
	for stream.Next() {
		event := stream.Current()
		switch variant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := variant.Delta.AsAny().(anthropic.TextDelta); ok {
				acc.add(delta.Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("anthropic stream failed: %w", err)
	}

	logging.GatewayDebug("[Anthropic] stream complete: %d chars", len(acc.text()))
	return acc.text(), nil
}
