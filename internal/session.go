package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
)

// PasswordFunc supplies a password when a full interactive login is needed.
// The command layer wires this to a terminal prompt; leaving it nil makes
// password re-login fail instead of hanging a non-interactive run.
type PasswordFunc func(username string) (string, error)

// DeviceNotifyFunc tells the user where to complete a device-flow login.
type DeviceNotifyFunc func(verificationURI, userCode string)

// Manager resolves the active context and keeps its credential valid,
// acquiring or refreshing session tokens as needed. A command calls
// AcquireContext once per run, so no internal locking is required;
// multi-process races on the state file resolve last-writer-wins on save.
type Manager struct {
	State    *State
	Password PasswordFunc
	Notify   DeviceNotifyFunc

	now func() time.Time
}

func NewManager(state *State) *Manager {
	return &Manager{State: state, now: time.Now}
}

// AcquireContext returns a ready-to-use authenticated context for the
// resolved connection/account, logging in or refreshing when the cached
// credential is missing or expired. Credential writes only happen after a
// complete successful acquisition, never speculatively.
func (m *Manager) AcquireContext(ctx context.Context, connOverride, acctOverride string) (*ActiveContext, error) {
	profile, account, err := m.State.Resolve(connOverride, acctOverride)
	if err != nil {
		return nil, err
	}
	return m.acquireFor(ctx, profile, account)
}

// Reacquire discards the stale credential behind an *Unauthorized dispatch
// result and performs a fresh acquisition for the same context. The command
// layer calls this at most once per invocation.
func (m *Manager) Reacquire(ctx context.Context, active *ActiveContext) (*ActiveContext, error) {
	m.State.InvalidateCredential(active.Account.ID.String())
	return m.acquireFor(ctx, active.Profile, active.Account)
}

func (m *Manager) acquireFor(ctx context.Context, profile *ConnectionProfile, account *Account) (*ActiveContext, error) {
	accountID := account.ID.String()
	cred := m.State.CredentialFor(accountID)
	if IsValid(cred, m.now()) {
		return activeContext(profile, account, cred), nil
	}

	slog.Debug("acquiring credential", "connection", profile.Name, "account", account.Label,
		"method", account.AuthMethod)

	fresh, err := m.acquire(ctx, profile, account, cred)
	if err != nil {
		if errors.Is(err, ErrAuthenticationFailed) {
			// Credentials are bad; a stale token would never work again.
			m.State.InvalidateCredential(accountID)
		}
		// Transport failures leave stored credential state untouched.
		return nil, err
	}

	m.State.PutCredential(accountID, fresh)
	return activeContext(profile, account, m.State.CredentialFor(accountID)), nil
}

func (m *Manager) acquire(ctx context.Context, profile *ConnectionProfile, account *Account, stale *Credential) (*Credential, error) {
	switch account.AuthMethod {
	case AuthAPIKey:
		// The key itself is the auth header; nothing to exchange. If it is
		// gone the user has to re-add it.
		return nil, fmt.Errorf("%w: connection %q account %q has no API key stored",
			ErrNoCredential, profile.Name, account.Label)

	case AuthPassword:
		return m.acquirePassword(ctx, profile, account.Username, stale)

	case AuthDevice:
		return m.acquireDevice(ctx, profile, stale)
	}
	return nil, fmt.Errorf("%w: connection %q account %q: unknown auth method %q",
		ErrAuthenticationFailed, profile.Name, account.Label, account.AuthMethod)
}

// Login performs an initial acquisition for a profile before any account
// exists locally. Used by "connection add" to bootstrap the first session.
func (m *Manager) Login(ctx context.Context, profile *ConnectionProfile, method AuthMethod, username, apiKey string) (*Credential, error) {
	switch method {
	case AuthAPIKey:
		if apiKey == "" {
			return nil, fmt.Errorf("%w: connection %q: no API key given", ErrNoCredential, profile.Name)
		}
		return &Credential{Kind: CredentialAPIKey, APIKey: apiKey}, nil
	case AuthPassword:
		return m.acquirePassword(ctx, profile, username, nil)
	case AuthDevice:
		return m.acquireDevice(ctx, profile, nil)
	}
	return nil, fmt.Errorf("%w: connection %q: unknown auth method %q",
		ErrAuthenticationFailed, profile.Name, method)
}

func (m *Manager) acquirePassword(ctx context.Context, profile *ConnectionProfile, username string, stale *Credential) (*Credential, error) {
	client := NewAuthClient(profile)

	if canRefresh(stale) {
		token, err := client.Refresh(ctx, stale.Token.RefreshToken)
		if err == nil {
			return &Credential{Kind: CredentialSession, Token: token}, nil
		}
		if !errors.Is(err, ErrAuthenticationFailed) {
			return nil, err
		}
		slog.Debug("refresh token rejected, falling back to login",
			"connection", profile.Name, "username", username)
	}

	if m.Password == nil {
		return nil, fmt.Errorf("%w: connection %q user %q requires an interactive login",
			ErrAuthenticationFailed, profile.Name, username)
	}
	password, err := m.Password(username)
	if err != nil {
		return nil, fmt.Errorf("%w: reading password: %v", ErrAuthenticationFailed, err)
	}
	token, err := client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return &Credential{Kind: CredentialSession, Token: token}, nil
}

func (m *Manager) acquireDevice(ctx context.Context, profile *ConnectionProfile, stale *Credential) (*Credential, error) {
	client := NewAuthClient(profile)
	cfg, err := client.OAuthConfig(ctx)
	if err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID: cfg.ClientID,
		Scopes:   cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:       cfg.AuthorizeEndpoint,
			TokenURL:      cfg.TokenEndpoint,
			DeviceAuthURL: cfg.DeviceEndpoint,
		},
	}
	httpCtx := context.WithValue(ctx, oauth2.HTTPClient, httpClientFor(profile))

	if canRefresh(stale) {
		token, err := oauthCfg.TokenSource(httpCtx, &oauth2.Token{
			RefreshToken: stale.Token.RefreshToken,
		}).Token()
		if err == nil {
			return &Credential{Kind: CredentialSession, Token: m.fromOAuthToken(token)}, nil
		}
		if classified := m.classifyOAuthErr(profile, err); !errors.Is(classified, ErrAuthenticationFailed) {
			return nil, classified
		}
		slog.Debug("oauth refresh rejected, restarting device flow", "connection", profile.Name)
	}

	auth, err := oauthCfg.DeviceAuth(httpCtx)
	if err != nil {
		return nil, m.classifyOAuthErr(profile, err)
	}
	if m.Notify != nil {
		uri := auth.VerificationURI
		if auth.VerificationURIComplete != "" {
			uri = auth.VerificationURIComplete
		}
		m.Notify(uri, auth.UserCode)
	}
	token, err := oauthCfg.DeviceAccessToken(httpCtx, auth)
	if err != nil {
		return nil, m.classifyOAuthErr(profile, err)
	}
	return &Credential{Kind: CredentialSession, Token: m.fromOAuthToken(token)}, nil
}

func (m *Manager) fromOAuthToken(token *oauth2.Token) *SessionToken {
	issued := m.now()
	expires := token.Expiry
	if expires.IsZero() {
		expires = issued.Add(24 * time.Hour)
	}
	return &SessionToken{
		Bearer:       token.AccessToken,
		IssuedAt:     issued,
		ExpiresAt:    expires,
		RefreshToken: token.RefreshToken,
	}
}

// classifyOAuthErr separates "the grant was rejected" from "the server was
// unreachable"; the distinction drives whether stored state is invalidated.
func (m *Manager) classifyOAuthErr(profile *ConnectionProfile, err error) error {
	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		return fmt.Errorf("%w: connection %q rejected the OAuth exchange: %v",
			ErrAuthenticationFailed, profile.Name, retrieve.ErrorCode)
	}
	return fmt.Errorf("%w: connection %q: %v", ErrConnectionUnavailable, profile.Name, err)
}

// BootstrapContext builds an authenticated context for a profile before its
// accounts are known locally. Used by "connection add" to call /whoami.
func BootstrapContext(profile *ConnectionProfile, cred *Credential) *ActiveContext {
	return activeContext(profile, nil, cred)
}

func activeContext(profile *ConnectionProfile, account *Account, cred *Credential) *ActiveContext {
	header := ""
	switch cred.Kind {
	case CredentialAPIKey:
		header = "Bearer " + cred.APIKey
	case CredentialSession:
		header = "Bearer " + cred.Token.Bearer
	}
	return &ActiveContext{
		Profile:    profile,
		Account:    account,
		Credential: cred,
		BaseURL:    profile.BaseURL(),
		AuthHeader: header,
	}
}
