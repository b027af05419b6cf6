// Package provider normalizes four distinct LLM backend protocols into one
// streaming chat contract. Each backend's native incremental shape (delta
// tokens, content-block deltas, whole-text snapshots, whole-message
// accumulation) is adapted so callers always observe the cumulative text.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Provider identifies an LLM backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
	ProviderOllama    Provider = "ollama"
)

// All returns the closed set of supported providers.
func All() []Provider {
	return []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOllama}
}

// Parse validates a provider name from user input.
func Parse(name string) (Provider, error) {
	for _, p := range All() {
		if string(p) == name {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider: %s (valid: openai, anthropic, gemini, ollama)", name)
}

// CredentialKey is the storage key a provider's secret lives under.
func (p Provider) CredentialKey() string {
	return string(p) + "-key"
}

// ErrMissingCredential is returned before any network call when a remote
// provider has no secret configured.
var ErrMissingCredential = errors.New("missing API key")

// DefaultOllamaHost is used when no host URL has been configured for the
// local provider. For ollama the stored secret is the host URL, not a key.
const DefaultOllamaHost = "http://localhost:11434"

// ChatMessage is one turn of the ordered message list sent to a backend.
// Role is "user" or "assistant"; adapters translate to vendor role names.
type ChatMessage struct {
	Role    string
	Content string
}

// ChunkFunc receives the cumulative response text after each increment.
// It is never called with a bare fragment.
type ChunkFunc func(cumulative string)

// Client is the uniform contract all four backends are adapted to.
type Client interface {
	// Validate performs one minimal authenticated call and reports whether
	// it succeeded. It never returns an error: all failures are logged and
	// collapse to false.
	Validate(ctx context.Context) bool

	// StreamChat sends the ordered message list plus a system instruction,
	// invoking onChunk with the cumulative text as increments arrive, and
	// returns the final concatenated text. Failures propagate unretried;
	// turn-level recovery belongs to the caller.
	StreamChat(ctx context.Context, messages []ChatMessage, systemInstruction string, onChunk ChunkFunc) (string, error)
}

// New builds the adapter for a provider. secret is the API key, or for
// ollama the host URL (defaulted when empty). Remote providers reject an
// empty secret with ErrMissingCredential before any network I/O.
func New(p Provider, secret string) (Client, error) {
	if p != ProviderOllama && secret == "" {
		return nil, fmt.Errorf("%w for %s", ErrMissingCredential, p)
	}

	switch p {
	case ProviderOpenAI:
		return NewOpenAIClient(secret), nil
	case ProviderAnthropic:
		return NewAnthropicClient(secret), nil
	case ProviderGemini:
		return NewGeminiClient(secret)
	case ProviderOllama:
		host := secret
		if host == "" {
			host = DefaultOllamaHost
		}
		return NewOllamaClient(host), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", p)
	}
}

// ModelSetter is implemented by clients whose model can be overridden
// after construction.
type ModelSetter interface {
	SetModel(model string)
}

// SetModel applies a model override when the client supports one. An empty
// model keeps the client default.
func SetModel(c Client, model string) {
	if model == "" {
		return
	}
	if ms, ok := c.(ModelSetter); ok {
		ms.SetModel(model)
	}
}

// IsAbort reports whether err represents a user-triggered cancellation of
// an in-flight generation, so callers can show a neutral "cancelled" status
// instead of an error.
func IsAbort(err error) bool {
	return errors.Is(err, context.Canceled)
}

// accumulator folds incremental fragments into the cumulative text the
// ChunkFunc contract requires.
type accumulator struct {
	full    []byte
	onChunk ChunkFunc
}

func newAccumulator(onChunk ChunkFunc) *accumulator {
	return &accumulator{onChunk: onChunk}
}

func (a *accumulator) add(fragment string) {
	if fragment == "" {
		return
	}
	a.full = append(a.full, fragment...)
	if a.onChunk != nil {
		a.onChunk(string(a.full))
	}
}

func (a *accumulator) text() string {
	return string(a.full)
}
