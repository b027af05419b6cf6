package main

import (
	"fmt"

	"dialogic/internal/coach"
	"dialogic/internal/config"
	"dialogic/internal/provider"
	"dialogic/internal/store"
	"dialogic/internal/types"
)

// chatContext bundles everything the interactive UI needs. The store stays
// open for the lifetime of the program.
type chatContext struct {
	cfg      *config.Config
	store    *store.LocalStore
	session  *coach.Session
	provider provider.Provider
}

// newChatContext loads config, opens the store, resolves the active
// provider, and builds the session the TUI drives.
func newChatContext() (*chatContext, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	st, err := store.NewLocalStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	client, active, err := resolveClient(cfg, st)
	if err != nil {
		st.Close()
		return nil, err
	}

	profile, err := st.GetProfile()
	if err != nil {
		st.Close()
		return nil, err
	}

	return &chatContext{
		cfg:      cfg,
		store:    st,
		session:  coach.NewSession(st, client, profile),
		provider: active,
	}, nil
}

func (c *chatContext) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// resolveClient picks the active provider and builds its client. The stored
// credential wins; the provider's environment variable is the fallback so a
// .env file works without running auth connect.
func resolveClient(cfg *config.Config, st *store.LocalStore) (provider.Client, provider.Provider, error) {
	active, err := st.GetActiveProvider()
	if err != nil {
		return nil, "", err
	}
	if active == "" {
		return nil, "", fmt.Errorf("no provider configured; run 'dialogic auth connect <provider>' first")
	}

	secret, err := credentialFor(cfg, st, active)
	if err != nil {
		return nil, "", err
	}

	client, err := provider.New(active, secret)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", active, err)
	}
	provider.SetModel(client, cfg.ModelFor(active))

	return client, active, nil
}

// credentialFor resolves the secret for a provider: stored key, then
// environment, then for Ollama the configured host.
func credentialFor(cfg *config.Config, st *store.LocalStore, p provider.Provider) (string, error) {
	secret, err := st.GetProviderKey(p)
	if err != nil {
		return "", err
	}
	if secret == "" {
		secret = config.EnvCredential(p)
	}
	if secret == "" && p == provider.ProviderOllama {
		secret = cfg.Ollama.Host
	}
	return secret, nil
}

// profileLabel is the short header description of the learner profile.
func profileLabel(p types.UserProfile) string {
	language := p.Language
	if language == "" {
		language = "Spanish"
	}
	level := p.Level
	if level == "" {
		level = "B1"
	}
	return fmt.Sprintf("%s (%s)", language, level)
}
