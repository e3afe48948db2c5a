package internal

import (
	"fmt"
	"os"
)

// Environment overrides for the active connection and account. A flag passed
// by the command wins over these; these win over the persisted defaults.
const (
	EnvConnection = "LOGSH_CONNECTION"
	EnvAccount    = "LOGSH_ACCOUNT"
)

// Resolve determines the active (profile, account) pair for an invocation.
// Precedence, first match wins: explicit override argument, environment
// variable, persisted default. Resolution never guesses between candidates:
// if nothing is configured, or a named override does not match, it fails
// with ErrNoActiveContext.
func (s *State) Resolve(connOverride, acctOverride string) (*ConnectionProfile, *Account, error) {
	if len(s.Connections) == 0 {
		return nil, nil, fmt.Errorf("%w: no connections configured, run \"logsh connection add\"", ErrNoActiveContext)
	}

	profile, err := s.ResolveConnection(connOverride)
	if err != nil {
		return nil, nil, err
	}
	account, err := resolveAccount(profile, acctOverride)
	if err != nil {
		return nil, nil, err
	}
	return profile, account, nil
}

// ResolveConnection applies the same precedence to the connection alone, for
// commands that operate on a profile without needing an account.
func (s *State) ResolveConnection(override string) (*ConnectionProfile, error) {
	name := override
	if name == "" {
		name = os.Getenv(EnvConnection)
	}
	if name != "" {
		p := s.Connection(name)
		if p == nil {
			return nil, fmt.Errorf("%w: connection %q is not registered", ErrNoActiveContext, name)
		}
		return p, nil
	}
	if p := s.DefaultConnection(); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("%w: no default connection set, run \"logsh connection default <name>\"", ErrNoActiveContext)
}

func resolveAccount(p *ConnectionProfile, override string) (*Account, error) {
	label := override
	if label == "" {
		label = os.Getenv(EnvAccount)
	}
	if label != "" {
		a := p.AccountByLabel(label)
		if a == nil {
			return nil, fmt.Errorf("%w: connection %q has no account %q", ErrNoActiveContext, p.Name, label)
		}
		return a, nil
	}
	if a := p.DefaultAccount(); a != nil {
		return a, nil
	}
	return nil, fmt.Errorf("%w: connection %q has no default account, run \"logsh account default <label>\"", ErrNoActiveContext, p.Name)
}
