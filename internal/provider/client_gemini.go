package provider

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"dialogic/internal/logging"
)

// GeminiClient adapts the Google Gemini API via the genai SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

const (
	// DefaultGeminiModel is the chat model used unless overridden.
	DefaultGeminiModel = "gemini-2.5-flash"
	// geminiValidationModel keeps the validation probe cheap.
	geminiValidationModel = "gemini-2.0-flash-lite"
)

// NewGeminiClient creates a Gemini adapter with the default model.
func NewGeminiClient(apiKey string) (*GeminiClient, error) {
	gc, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{client: gc, model: DefaultGeminiModel}, nil
}

// SetModel changes the model used for completions.
func (c *GeminiClient) SetModel(model string) {
	if model != "" {
		c.model = model
	}
}

// Validate issues a one-shot tiny generation as a minimal authenticated
// call.
func (c *GeminiClient) Validate(ctx context.Context) bool {
	_, err := c.client.Models.GenerateContent(ctx, geminiValidationModel, genai.Text("hi"), nil)
	if err != nil {
		logging.GatewayWarn("[Gemini] validation failed: %v", err)
		return false
	}
	return true
}

// StreamChat implements the Client contract over the genai streaming
// iterator. Assistant turns map to the vendor's "model" role.
func (c *GeminiClient) StreamChat(ctx context.Context, messages []ChatMessage, systemInstruction string, onChunk ChunkFunc) (string, error) {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	cfg := &genai.GenerateContentConfig{}
	if systemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		}
	}

	acc := newAccumulator(onChunk)
	for result, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, cfg) {
		if err != nil {
			return "", fmt.Errorf("gemini stream failed: %w", err)
		}
		acc.add(result.Text())
	}

	logging.GatewayDebug("[Gemini] stream complete: %d chars", len(acc.text()))
	return acc.text(), nil
}
