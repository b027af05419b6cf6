package store

import (
	"encoding/json"
	"fmt"

	"dialogic/internal/logging"
	"dialogic/internal/types"
)

const keyUserProfile = "user-profile"

// SaveProfile persists the learner profile as JSON under a settings key.
func (s *LocalStore) SaveProfile(profile types.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to serialize profile: %w", err)
	}

	logging.StoreDebug("Saving learner profile: language=%s level=%s", profile.Language, profile.Level)
	return s.setSetting(keyUserProfile, string(data))
}

// GetProfile returns the stored learner profile. When none has been saved
// the zero profile is returned; callers fall back to defaults.
func (s *LocalStore) GetProfile() (types.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var profile types.UserProfile
	value, err := s.getSetting(keyUserProfile)
	if err != nil || value == "" {
		return profile, err
	}
	if err := json.Unmarshal([]byte(value), &profile); err != nil {
		return types.UserProfile{}, fmt.Errorf("failed to decode stored profile: %w", err)
	}
	return profile, nil
}
