package interfaces

import domaintypes "netauth/internal/domain/types"

// ProfileStore persists the CLI's per-server account profiles.
type ProfileStore interface {
	SaveAccountProfile(profile domaintypes.AccountProfile) error
	LoadAccountProfile(
		serverURL string,
		username domaintypes.Username,
	) (domaintypes.AccountProfile, bool, error)
	LastAccountProfile(serverURL string) (domaintypes.AccountProfile, bool, error)
}
