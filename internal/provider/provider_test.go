package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// go.opencensus.io (pulled in by the genai SDK) starts a stats worker
	// at package init that never exits.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

func TestParse(t *testing.T) {
	for _, name := range []string{"openai", "anthropic", "gemini", "ollama"} {
		p, err := Parse(name)
		require.NoError(t, err)
		assert.Equal(t, Provider(name), p)
	}

	_, err := Parse("mistral")
	assert.Error(t, err)

	_, err = Parse("")
	assert.Error(t, err)
}

func TestNew_MissingCredential(t *testing.T) {
	for _, p := range []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGemini} {
		t.Run(string(p), func(t *testing.T) {
			_, err := New(p, "")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingCredential))
		})
	}
}

func TestNew_OllamaDefaultsHost(t *testing.T) {
	client, err := New(ProviderOllama, "")
	require.NoError(t, err)
	ollama, ok := client.(*OllamaClient)
	require.True(t, ok)
	assert.Equal(t, DefaultOllamaHost, ollama.host)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Provider("carrier-pigeon"), "key")
	assert.Error(t, err)
}

func TestCredentialKey(t *testing.T) {
	assert.Equal(t, "openai-key", ProviderOpenAI.CredentialKey())
	assert.Equal(t, "ollama-key", ProviderOllama.CredentialKey())
}

func TestAccumulator_CumulativeContract(t *testing.T) {
	var seen []string
	acc := newAccumulator(func(cumulative string) {
		seen = append(seen, cumulative)
	})

	acc.add("Hola")
	acc.add("")
	acc.add(", ¿cómo")
	acc.add(" estás?")

	// Every callback observes the full text so far; empty fragments are
	// swallowed.
	assert.Equal(t, []string{"Hola", "Hola, ¿cómo", "Hola, ¿cómo estás?"}, seen)
	assert.Equal(t, "Hola, ¿cómo estás?", acc.text())
}

func TestAccumulator_NilCallback(t *testing.T) {
	acc := newAccumulator(nil)
	assert.NotPanics(t, func() { acc.add("fragment") })
	assert.Equal(t, "fragment", acc.text())
}

func TestIsAbort(t *testing.T) {
	assert.True(t, IsAbort(context.Canceled))
	assert.True(t, IsAbort(fmt.Errorf("openai stream failed: %w", context.Canceled)))
	assert.False(t, IsAbort(errors.New("network down")))
	assert.False(t, IsAbort(context.DeadlineExceeded))
	assert.False(t, IsAbort(nil))
}
