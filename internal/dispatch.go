package internal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Default bounded timeouts per request class.
const (
	QueryTimeout  = 30 * time.Second
	UploadTimeout = 5 * time.Minute
)

// Request describes one HTTP call against the active context. Idempotent
// requests (queries, reads) may be retried on transport failures and 5xx;
// non-idempotent ones (uploads) never are, since a blind retry of a partial
// upload could duplicate data.
type Request struct {
	Method          string
	Path            string
	Body            []byte
	ContentType     string
	ContentEncoding string
	Idempotent      bool
	Timeout         time.Duration
}

// Response is a successful dispatch outcome.
type Response struct {
	Status int
	Body   []byte
}

// Dispatcher executes authenticated requests with the retry policy applied.
// It never re-authenticates: a 401/403 is surfaced as *Unauthorized so the
// command layer can re-acquire the session exactly once.
type Dispatcher struct {
	Policy RetryPolicy

	// sleep is swapped in tests to avoid real backoff waits.
	sleep func(time.Duration)
}

func NewDispatcher(policy RetryPolicy) *Dispatcher {
	return &Dispatcher{Policy: policy, sleep: time.Sleep}
}

// Execute issues the request. Terminal outcomes are exactly one of: a
// *Response, *Unauthorized, *ClientError, *ServerError, or *TransportError.
func (d *Dispatcher) Execute(ctx context.Context, active *ActiveContext, req Request) (*Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = QueryTimeout
	}
	client := httpClientFor(active.Profile)

	maxAttempts := d.Policy.MaxAttempts
	if maxAttempts < 1 || !req.Idempotent {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		resp, retryable, err := d.attempt(ctx, client, active, req, timeout, attempt)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable || attempt >= maxAttempts || ctx.Err() != nil {
			return nil, lastErr
		}

		delay := d.Policy.Delay(attempt)
		slog.Debug("retrying request", "connection", active.Profile.Name,
			"path", req.Path, "attempt", attempt, "delay", delay, "err", err)
		d.sleep(delay)
	}
}

// attempt runs one HTTP round trip and classifies the outcome. The second
// return value reports whether the failure class is retryable at all; the
// idempotency gate is applied by Execute.
func (d *Dispatcher) attempt(ctx context.Context, client *http.Client, active *ActiveContext,
	req Request, timeout time.Duration, attempt int) (*Response, bool, error) {

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(callCtx, req.Method, active.BaseURL+req.Path, body)
	if err != nil {
		return nil, false, fmt.Errorf("building request for %q: %w", req.Path, err)
	}
	httpReq.Header.Set("Authorization", active.AuthHeader)
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if req.ContentEncoding != "" {
		httpReq.Header.Set("Content-Encoding", req.ContentEncoding)
	}
	decorate(httpReq)

	resp, err := client.Do(httpReq)
	if err != nil {
		// A user interrupt is not a transport failure; surface it as-is so
		// nothing downstream mutates credential state.
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, &TransportError{Attempts: attempt, Err: err}
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if readErr != nil {
		return nil, true, &TransportError{Attempts: attempt, Err: readErr}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return &Response{Status: resp.StatusCode, Body: respBody}, false, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, &Unauthorized{Status: resp.StatusCode}
	case resp.StatusCode >= 500:
		return nil, true, &ServerError{Status: resp.StatusCode, Body: string(respBody), Attempts: attempt}
	default:
		return nil, false, &ClientError{Status: resp.StatusCode, Body: string(respBody)}
	}
}
