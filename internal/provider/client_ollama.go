package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dialogic/internal/logging"
)

// OllamaClient adapts a local Ollama host over its HTTP API. There is no
// vendor SDK; the wire protocol is newline-delimited JSON where each line
// carries a whole message fragment to accumulate.
type OllamaClient struct {
	host       string
	model      string
	httpClient *http.Client
}

// DefaultOllamaModel is the local model used unless overridden.
const DefaultOllamaModel = "llama3"

// NewOllamaClient creates an Ollama adapter for the given host URL.
func NewOllamaClient(host string) *OllamaClient {
	return &OllamaClient{
		host:  strings.TrimSuffix(host, "/"),
		model: DefaultOllamaModel,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute, // local models can be slow to load
		},
	}
}

// SetModel changes the model used for completions.
func (c *OllamaClient) SetModel(model string) {
	if model != "" {
		c.model = model
	}
}

// Validate checks host reachability by listing installed models.
func (c *OllamaClient) Validate(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		logging.GatewayWarn("[Ollama] validation failed: %v", err)
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.GatewayWarn("[Ollama] validation failed: %v", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		logging.GatewayWarn("[Ollama] validation failed: status %d", resp.StatusCode)
		return false
	}
	return true
}

// ollamaChatRequest is the /api/chat request body.
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ollamaChatChunk is one NDJSON line of a streamed /api/chat response.
type ollamaChatChunk struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error,omitempty"`
}

// StreamChat implements the Client contract over NDJSON streaming.
func (c *OllamaClient) StreamChat(ctx context.Context, messages []ChatMessage, systemInstruction string, onChunk ChunkFunc) (string, error) {
	msgs := make([]ollamaMessage, 0, len(messages)+1)
	msgs = append(msgs, ollamaMessage{Role: "system", Content: systemInstruction})
	for _, m := range messages {
		msgs = append(msgs, ollamaMessage{Role: m.Role, Content: m.Content})
	}

	jsonData, err := json.Marshal(ollamaChatRequest{
		Model:    c.model,
		Messages: msgs,
		Stream:   true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	acc := newAccumulator(onChunk)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ollamaChatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			return "", fmt.Errorf("ollama error: %s", chunk.Error)
		}
		acc.add(chunk.Message.Content)
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		// Scanner surfaces context cancellation from the body read; keep it
		// classifiable as an abort.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ollama stream failed: %w", err)
	}

	logging.GatewayDebug("[Ollama] stream complete: %d chars", len(acc.text()))
	return acc.text(), nil
}
