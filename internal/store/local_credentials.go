package store

import (
	"fmt"
	"strings"

	"dialogic/internal/logging"
	"dialogic/internal/provider"
)

// Settings keys that are not per-provider credentials.
const (
	keyActiveProvider     = "active-provider"
	keyActiveConversation = "active-conversation"
)

// SetProviderKey stores the API credential for a provider.
func (s *LocalStore) SetProviderKey(p provider.Provider, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logging.StoreDebug("Storing credential for provider=%s", p)
	return s.setSetting(p.CredentialKey(), secret)
}

// GetProviderKey returns the stored credential for a provider, or "" when
// none has been saved.
func (s *LocalStore) GetProviderKey(p provider.Provider) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getSetting(p.CredentialKey())
}

// SetActiveProvider records which provider new scenarios should use.
func (s *LocalStore) SetActiveProvider(p provider.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logging.StoreDebug("Setting active provider=%s", p)
	return s.setSetting(keyActiveProvider, string(p))
}

// GetActiveProvider returns the active provider, or "" when none is set.
func (s *LocalStore) GetActiveProvider() (provider.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, err := s.getSetting(keyActiveProvider)
	if err != nil || value == "" {
		return "", err
	}
	p, err := provider.Parse(value)
	if err != nil {
		// A stale or hand-edited row should not wedge startup.
		logging.Get(logging.CategoryStore).Warnf("Ignoring unknown active provider %q", value)
		return "", nil
	}
	return p, nil
}

// SetActiveConversation records the conversation the chat UI resumes on
// startup. An empty id clears the pointer.
func (s *LocalStore) SetActiveConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setSetting(keyActiveConversation, id)
}

// GetActiveConversation returns the resumable conversation id, or "".
func (s *LocalStore) GetActiveConversation() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getSetting(keyActiveConversation)
}

// ClearAllCredentials removes every provider credential along with the
// active provider and conversation pointers, in a single transaction so a
// failed logout never leaves a partial wipe.
func (s *LocalStore) ClearAllCredentials() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(provider.All())+2)
	for _, p := range provider.All() {
		keys = append(keys, p.CredentialKey())
	}
	keys = append(keys, keyActiveProvider, keyActiveConversation)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin logout transaction: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	if _, err := tx.Exec("DELETE FROM settings WHERE key IN ("+placeholders+")", args...); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear credentials: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit logout: %w", err)
	}

	logging.StoreDebug("Cleared %d credential and session keys", len(keys))
	return nil
}
