package internal

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AuthMethod tags how an account authenticates against its endpoint.
type AuthMethod string

const (
	AuthPassword AuthMethod = "password"
	AuthAPIKey   AuthMethod = "api-key"
	AuthDevice   AuthMethod = "device"
)

// ConnectionProfile is a named server endpoint with its accounts.
// Exactly one profile may be the process-wide default.
type ConnectionProfile struct {
	Name               string     `json:"name"`
	Endpoint           string     `json:"endpoint"`
	InsecureSkipVerify bool       `json:"insecureSkipVerify,omitempty"`
	Default            bool       `json:"default"`
	Accounts           []*Account `json:"accounts,omitempty"`
}

// BaseURL returns the endpoint without a trailing slash.
func (p *ConnectionProfile) BaseURL() string {
	return strings.TrimRight(p.Endpoint, "/")
}

// AccountByLabel finds an account by its local label.
func (p *ConnectionProfile) AccountByLabel(label string) *Account {
	for _, a := range p.Accounts {
		if a.Label == label {
			return a
		}
	}
	return nil
}

// DefaultAccount returns the account marked default, or nil.
func (p *ConnectionProfile) DefaultAccount() *Account {
	for _, a := range p.Accounts {
		if a.Default {
			return a
		}
	}
	return nil
}

// Account belongs to exactly one ConnectionProfile. The ID is issued by the
// platform and stable across logins; the label is chosen locally.
type Account struct {
	ID         uuid.UUID  `json:"accountId"`
	Label      string     `json:"label"`
	AuthMethod AuthMethod `json:"authMethod"`
	Username   string     `json:"username,omitempty"`
	Default    bool       `json:"default"`
}

// CredentialKind discriminates the credential union.
type CredentialKind string

const (
	CredentialAPIKey  CredentialKind = "apiKey"
	CredentialSession CredentialKind = "session"
)

// Credential is the secret material for one account: either a long-lived API
// key or a short-lived session token. An account holds at most one.
type Credential struct {
	Kind   CredentialKind `json:"kind"`
	APIKey string         `json:"apiKey,omitempty"`
	Token  *SessionToken  `json:"token,omitempty"`
}

// SessionToken is a bearer token obtained from a login or refresh exchange.
type SessionToken struct {
	Bearer       string    `json:"bearer"`
	IssuedAt     time.Time `json:"issuedAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
	RefreshToken string    `json:"refreshToken,omitempty"`
}

// ActiveContext is the resolved (profile, account, valid credential) triple a
// command runs against. Request-scoped, never persisted.
type ActiveContext struct {
	Profile    *ConnectionProfile
	Account    *Account
	Credential *Credential
	BaseURL    string
	AuthHeader string
}

// State is the persisted registry plus cached credentials, loaded once per
// invocation and passed explicitly into every command. Credentials are keyed
// by account ID.
type State struct {
	Connections []*ConnectionProfile   `json:"connections"`
	Credentials map[string]*Credential `json:"credentials,omitempty"`

	dirty bool
}

// Dirty reports whether the state has unsaved mutations.
func (s *State) Dirty() bool { return s.dirty }

// MarkDirty flags the state for persistence.
func (s *State) MarkDirty() { s.dirty = true }
