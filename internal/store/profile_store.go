package store

import (
	"fmt"
	"path/filepath"
	"sync"

	"netauth/internal/domain"
)

const profilesFile = "profiles.json"

// ProfileFileStore persists per-server account profiles for the CLI.
type ProfileFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewProfileFileStore returns a ProfileFileStore rooted at dir.
func NewProfileFileStore(dir string) *ProfileFileStore {
	return &ProfileFileStore{dir: dir}
}

func (s *ProfileFileStore) load() (map[string]domain.AccountProfile, error) {
	profiles := make(map[string]domain.AccountProfile)
	if err := readJSON(filepath.Join(s.dir, profilesFile), &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// SaveAccountProfile stores or updates the given profile.
func (s *ProfileFileStore) SaveAccountProfile(profile domain.AccountProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.load()
	if err != nil {
		return err
	}
	profiles[profileKey(profile.ServerURL, profile.Username)] = profile
	return writeJSON(filepath.Join(s.dir, profilesFile), profiles, 0o600)
}

// LoadAccountProfile retrieves the profile for (serverURL, username).
func (s *ProfileFileStore) LoadAccountProfile(
	serverURL string,
	username domain.Username,
) (domain.AccountProfile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.load()
	if err != nil {
		return domain.AccountProfile{}, false, err
	}
	profile, ok := profiles[profileKey(serverURL, username)]
	return profile, ok, nil
}

// LastAccountProfile returns the most recently used profile for serverURL.
func (s *ProfileFileStore) LastAccountProfile(serverURL string) (domain.AccountProfile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.load()
	if err != nil {
		return domain.AccountProfile{}, false, err
	}
	var (
		last  domain.AccountProfile
		found bool
	)
	for _, p := range profiles {
		if p.ServerURL != serverURL {
			continue
		}
		if !found || p.LastLogin.After(last.LastLogin) {
			last, found = p, true
		}
	}
	return last, found, nil
}

func profileKey(serverURL string, username domain.Username) string {
	return fmt.Sprintf("%s|%s", serverURL, username.String())
}

// Compile-time assertion that ProfileFileStore implements domain.ProfileStore.
var _ domain.ProfileStore = (*ProfileFileStore)(nil)
