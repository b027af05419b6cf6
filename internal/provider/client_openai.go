package provider

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"dialogic/internal/logging"
)

// OpenAIClient adapts the OpenAI chat completions API. Its native streaming
// shape is delta tokens: each chunk carries only the newly generated text.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// DefaultOpenAIModel is the chat model used unless overridden.
const DefaultOpenAIModel = "gpt-4o"

// NewOpenAIClient creates an OpenAI adapter with the default model.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  DefaultOpenAIModel,
	}
}

// SetModel changes the model used for completions.
func (c *OpenAIClient) SetModel(model string) {
	if model != "" {
		c.model = model
	}
}

// Validate lists models as a cheap authenticated call.
func (c *OpenAIClient) Validate(ctx context.Context) bool {
	if _, err := c.client.ListModels(ctx); err != nil {
		logging.GatewayWarn("[OpenAI] validation failed: %v", err)
		return false
	}
	return true
}

// StreamChat implements the Client contract over delta-token streaming.
func (c *OpenAIClient) StreamChat(ctx context.Context, messages []ChatMessage, systemInstruction string, onChunk ChunkFunc) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemInstruction,
	})
	for _, m := range messages {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: msgs,
		Stream:   true,
	})
	if err != nil {
		return "", fmt.Errorf("openai stream request failed: %w", err)
	}
	defer stream.Close()

	acc := newAccumulator(onChunk)
	for {
		response, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", fmt.Errorf("openai stream failed: %w", err)
		}
		if len(response.Choices) == 0 {
			continue
		}
		acc.add(response.Choices[0].Delta.Content)
	}

	logging.GatewayDebug("[OpenAI] stream complete: %d chars", len(acc.text()))
	return acc.text(), nil
}
