package internal

import (
	"fmt"
	"iter"
	"net/url"
	"sort"
)

// AddOptions carries the optional settings for AddConnection.
type AddOptions struct {
	InsecureSkipVerify bool
	SetDefault         bool
}

// AddConnection registers a new named endpoint. Fails with ErrDuplicateName
// if the name is taken and ErrInvalidEndpoint if the URL does not parse or
// lacks a scheme. The first registered connection becomes the default.
func (s *State) AddConnection(name, endpoint string, opts AddOptions) (*ConnectionProfile, error) {
	if s.Connection(name) != nil {
		return nil, fmt.Errorf("connection %q: %w", name, ErrDuplicateName)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidEndpoint, endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q: missing scheme or host", ErrInvalidEndpoint, endpoint)
	}

	p := &ConnectionProfile{
		Name:               name,
		Endpoint:           endpoint,
		InsecureSkipVerify: opts.InsecureSkipVerify,
	}
	s.Connections = append(s.Connections, p)
	if opts.SetDefault || len(s.Connections) == 1 {
		s.setDefaultProfile(p)
	}
	s.MarkDirty()
	return p, nil
}

// RemoveConnection drops the named profile and cascades removal of its
// accounts and their cached credentials.
func (s *State) RemoveConnection(name string) error {
	for i, p := range s.Connections {
		if p.Name != name {
			continue
		}
		for _, a := range p.Accounts {
			delete(s.Credentials, a.ID.String())
		}
		s.Connections = append(s.Connections[:i], s.Connections[i+1:]...)
		s.MarkDirty()
		return nil
	}
	return fmt.Errorf("connection %q: %w", name, ErrNotFound)
}

// Connection looks up a profile by name. Names are case-sensitive.
func (s *State) Connection(name string) *ConnectionProfile {
	for _, p := range s.Connections {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// DefaultConnection returns the profile marked default, or nil.
func (s *State) DefaultConnection() *ConnectionProfile {
	for _, p := range s.Connections {
		if p.Default {
			return p
		}
	}
	return nil
}

// List yields the registered profiles ordered by name ascending. The
// sequence is restartable.
func (s *State) List() iter.Seq[*ConnectionProfile] {
	return func(yield func(*ConnectionProfile) bool) {
		sorted := make([]*ConnectionProfile, len(s.Connections))
		copy(sorted, s.Connections)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
		for _, p := range sorted {
			if !yield(p) {
				return
			}
		}
	}
}

// SetDefaultConnection atomically flips the default flag to the named
// profile. On ErrNotFound the previous default is left unchanged.
func (s *State) SetDefaultConnection(name string) error {
	p := s.Connection(name)
	if p == nil {
		return fmt.Errorf("connection %q: %w", name, ErrNotFound)
	}
	s.setDefaultProfile(p)
	s.MarkDirty()
	return nil
}

func (s *State) setDefaultProfile(target *ConnectionProfile) {
	for _, p := range s.Connections {
		p.Default = p == target
	}
}

// SetDefaultAccount marks the labeled account as the profile default.
func (s *State) SetDefaultAccount(connName, label string) error {
	p := s.Connection(connName)
	if p == nil {
		return fmt.Errorf("connection %q: %w", connName, ErrNotFound)
	}
	target := p.AccountByLabel(label)
	if target == nil {
		return fmt.Errorf("connection %q account %q: %w", connName, label, ErrNotFound)
	}
	for _, a := range p.Accounts {
		a.Default = a == target
	}
	s.MarkDirty()
	return nil
}
