package internal

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

const loginTimeout = 30 * time.Second

// httpClientFor builds an HTTP client honoring the profile's TLS settings.
func httpClientFor(p *ConnectionProfile) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if p.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{Transport: transport}
}

// decorate sets the headers every request to the platform carries.
func decorate(req *http.Request) {
	req.Header.Set("User-Agent", UserAgent())
	if host, err := os.Hostname(); err == nil {
		req.Header.Set("x-ls-hostname", host)
	}
}

// TokenGrant is the wire shape of a successful login or refresh exchange.
type TokenGrant struct {
	Token        string `json:"token"`
	ExpiresIn    int64  `json:"expiresIn"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// OAuthConfig is the device-flow configuration advertised by the server.
type OAuthConfig struct {
	ClientID          string   `json:"clientId"`
	AuthorizeEndpoint string   `json:"authorizeEndpoint"`
	DeviceEndpoint    string   `json:"deviceEndpoint"`
	TokenEndpoint     string   `json:"tokenEndpoint"`
	Scopes            []string `json:"scopes"`
}

// AuthClient speaks the platform's login protocol for one profile. It is the
// only place credentials are exchanged; all other traffic goes through the
// Dispatcher with an already-acquired session.
type AuthClient struct {
	profile *ConnectionProfile
	http    *http.Client
	now     func() time.Time
}

func NewAuthClient(p *ConnectionProfile) *AuthClient {
	return &AuthClient{profile: p, http: httpClientFor(p), now: time.Now}
}

// Login exchanges a username/password for a session token.
func (c *AuthClient) Login(ctx context.Context, username, password string) (*SessionToken, error) {
	body := map[string]string{"username": username, "password": password}
	return c.tokenExchange(ctx, "/auth/token", body)
}

// Refresh exchanges a refresh token for a fresh session token.
func (c *AuthClient) Refresh(ctx context.Context, refreshToken string) (*SessionToken, error) {
	body := map[string]string{"refreshToken": refreshToken}
	return c.tokenExchange(ctx, "/auth/refresh", body)
}

func (c *AuthClient) tokenExchange(ctx context.Context, path string, body any) (*SessionToken, error) {
	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.profile.BaseURL()+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	decorate(req)

	slog.Debug("token exchange", "connection", c.profile.Name, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: connection %q: %v", ErrConnectionUnavailable, c.profile.Name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: connection %q rejected the login (HTTP %d)",
			ErrAuthenticationFailed, c.profile.Name, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: connection %q: unexpected HTTP %d from %s",
			ErrConnectionUnavailable, c.profile.Name, resp.StatusCode, path)
	}

	var grant TokenGrant
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&grant); err != nil {
		return nil, fmt.Errorf("%w: connection %q: malformed token response: %v",
			ErrConnectionUnavailable, c.profile.Name, err)
	}
	if grant.Token == "" {
		return nil, fmt.Errorf("%w: connection %q: token response carried no token",
			ErrAuthenticationFailed, c.profile.Name)
	}

	issued := c.now()
	expires := issued.Add(time.Duration(grant.ExpiresIn) * time.Second)
	if grant.ExpiresIn <= 0 {
		// Servers that omit expiry issue day-scoped tokens.
		expires = issued.Add(24 * time.Hour)
	}
	return &SessionToken{
		Bearer:       grant.Token,
		IssuedAt:     issued,
		ExpiresAt:    expires,
		RefreshToken: grant.RefreshToken,
	}, nil
}

// OAuthConfig fetches the server's device-flow configuration. A 204 means
// OAuth is not configured for this server.
func (c *AuthClient) OAuthConfig(ctx context.Context) (*OAuthConfig, error) {
	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.profile.BaseURL()+"/auth/oauth", nil)
	if err != nil {
		return nil, err
	}
	decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: connection %q: %v", ErrConnectionUnavailable, c.profile.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, fmt.Errorf("%w: connection %q does not have OAuth configured",
			ErrAuthenticationFailed, c.profile.Name)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: connection %q: unexpected HTTP %d from /auth/oauth",
			ErrConnectionUnavailable, c.profile.Name, resp.StatusCode)
	}

	var cfg OAuthConfig
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: connection %q: malformed OAuth config: %v",
			ErrConnectionUnavailable, c.profile.Name, err)
	}
	return &cfg, nil
}
