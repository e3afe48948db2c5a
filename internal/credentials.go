package internal

import (
	"log/slog"
	"time"
)

// ExpirySkew is subtracted from a token's expiry when checking validity, so
// a token cannot expire mid-request.
const ExpirySkew = 30 * time.Second

// CredentialFor returns the cached credential for an account, or nil. API
// keys whose secret lives in the system keychain are filled in on read.
func (s *State) CredentialFor(accountID string) *Credential {
	c := s.Credentials[accountID]
	if c == nil {
		return nil
	}
	if c.Kind == CredentialAPIKey && c.APIKey == "" {
		key, err := keychainLookup(accountID)
		if err != nil || key == "" {
			slog.Debug("api key not present in keychain", "account", accountID)
			return nil
		}
		return &Credential{Kind: CredentialAPIKey, APIKey: key}
	}
	return c
}

// PutCredential replaces the account's credential atomically. On platforms
// with a keychain the API key secret is stored there and only a marker is
// kept in the state file; elsewhere the key stays in the file.
func (s *State) PutCredential(accountID string, c *Credential) {
	if s.Credentials == nil {
		s.Credentials = make(map[string]*Credential)
	}
	if c.Kind == CredentialAPIKey {
		if err := keychainStore(accountID, c.APIKey); err == nil {
			c = &Credential{Kind: CredentialAPIKey}
		} else {
			slog.Debug("keychain unavailable, keeping api key in config file", "err", err)
		}
	}
	s.Credentials[accountID] = c
	s.MarkDirty()
}

// InvalidateCredential clears a cached session token but preserves a
// long-lived API key if one is stored.
func (s *State) InvalidateCredential(accountID string) {
	c := s.Credentials[accountID]
	if c == nil {
		return
	}
	if c.Kind == CredentialAPIKey {
		return
	}
	delete(s.Credentials, accountID)
	s.MarkDirty()
}

// ForgetCredential removes the credential entirely, API key included, and
// clears any keychain entry. Used by explicit logout.
func ForgetCredential(s *State, accountID string) {
	if c := s.Credentials[accountID]; c != nil && c.Kind == CredentialAPIKey {
		keychainDelete(accountID)
	}
	delete(s.Credentials, accountID)
	s.MarkDirty()
}

// IsValid reports whether a credential is usable at the given instant. API
// keys are always valid from the store's perspective; their validity is
// decided remotely at dispatch time. A session token is valid while now is
// before expiresAt minus the skew.
func IsValid(c *Credential, now time.Time) bool {
	if c == nil {
		return false
	}
	switch c.Kind {
	case CredentialAPIKey:
		return c.APIKey != ""
	case CredentialSession:
		if c.Token == nil || c.Token.Bearer == "" {
			return false
		}
		return now.Before(c.Token.ExpiresAt.Add(-ExpirySkew))
	}
	return false
}

// canRefresh reports whether a session credential carries a refresh token.
// The refresh path is preferred over a full re-login so the user is not
// re-prompted for a password.
func canRefresh(c *Credential) bool {
	return c != nil && c.Kind == CredentialSession && c.Token != nil && c.Token.RefreshToken != ""
}
