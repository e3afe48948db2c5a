package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/logship-io/logsh/internal"
	"github.com/logship-io/logsh/internal/ui"
	"golang.org/x/term"
)

// commandContext is cancelled on Ctrl-C so an in-flight network call aborts
// without committing a partial credential write.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadState reads the persisted registry once per invocation.
func loadState() (*internal.State, error) {
	return internal.LoadState()
}

// saveIfDirty persists the state only when a command mutated it.
func saveIfDirty(state *internal.State) error {
	if !state.Dirty() {
		return nil
	}
	return internal.SaveState(state)
}

// newManager wires the session manager to the terminal prompts.
func newManager(state *internal.State) *internal.Manager {
	m := internal.NewManager(state)
	m.Password = readPassword
	m.Notify = func(uri, code string) {
		fmt.Fprintf(os.Stderr, "Open this URL in your browser: %s\nEnter the following code: %s\n", uri, code)
	}
	return m
}

// readPassword reads a password without echo when attached to a terminal,
// falling back to the bubbles prompt otherwise.
func readPassword(username string) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		fmt.Fprintf(os.Stderr, "Password for %s: ", username)
		b, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	return ui.Prompt(fmt.Sprintf("Password for %s", username), true)
}

// withReauth runs fn with an acquired context, and on an Unauthorized
// dispatch result re-acquires the session exactly once and retries. A second
// authentication failure is surfaced, never retried again.
func withReauth(ctx context.Context, mgr *internal.Manager, fn func(*internal.ActiveContext) error) error {
	active, err := mgr.AcquireContext(ctx, flagConnection, flagAccount)
	if err != nil {
		return err
	}
	err = fn(active)

	var unauth *internal.Unauthorized
	if !errors.As(err, &unauth) {
		return err
	}

	active, reErr := mgr.Reacquire(ctx, active)
	if reErr != nil {
		return reErr
	}
	err = fn(active)
	if errors.As(err, &unauth) {
		return fmt.Errorf("%w: connection %q account %q still rejects the renewed session",
			internal.ErrAuthenticationFailed, active.Profile.Name, active.Account.Label)
	}
	return err
}
