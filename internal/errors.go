package internal

import (
	"errors"
	"fmt"
)

// Sentinel errors for the registry, resolver and session layers. Callers
// match these with errors.Is; messages carry the connection/account context.
var (
	// ErrDuplicateName indicates a connection with the same name already exists.
	ErrDuplicateName = errors.New("connection name already exists")

	// ErrNotFound indicates the named connection or account is not registered.
	ErrNotFound = errors.New("not found")

	// ErrInvalidEndpoint indicates the endpoint URL failed to parse or lacks a scheme.
	ErrInvalidEndpoint = errors.New("invalid endpoint URL")

	// ErrNoActiveContext indicates no connection/account could be resolved.
	// The user has to configure a default or pass an explicit override.
	ErrNoActiveContext = errors.New("no active connection")

	// ErrNoCredential indicates the account has no stored credential.
	ErrNoCredential = errors.New("no credential stored")

	// ErrAuthenticationFailed indicates the remote rejected the credentials
	// (bad password, revoked API key, expired refresh token).
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrConnectionUnavailable indicates the endpoint could not be reached
	// during credential acquisition. Stored credentials are left untouched.
	ErrConnectionUnavailable = errors.New("server unavailable")

	// ErrConfig indicates the persisted state file is unreadable or malformed.
	ErrConfig = errors.New("configuration error")
)

// Unauthorized is returned by the dispatcher on HTTP 401/403. The dispatcher
// never retries it; the command layer re-acquires the session exactly once.
type Unauthorized struct {
	Status int
}

func (e *Unauthorized) Error() string {
	return fmt.Sprintf("unauthorized (HTTP %d)", e.Status)
}

// ClientError is a non-auth HTTP 4xx response. Never retried.
type ClientError struct {
	Status int
	Body   string
}

func (e *ClientError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("request failed (HTTP %d): %s", e.Status, e.Body)
	}
	return fmt.Sprintf("request failed (HTTP %d)", e.Status)
}

// ServerError is an HTTP 5xx response, surfaced after the retry budget for
// idempotent requests is exhausted, or immediately for non-idempotent ones.
type ServerError struct {
	Status   int
	Body     string
	Attempts int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (HTTP %d) after %d attempt(s)", e.Status, e.Attempts)
}

// TransportError is a network-level failure (refused, DNS, timeout) surfaced
// after the retry budget for idempotent requests is exhausted.
type TransportError struct {
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
