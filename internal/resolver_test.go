package internal

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoConnectionState builds "prod" and "dev" profiles with "dev" as the
// default connection, each with a default account.
func twoConnectionState(t *testing.T) *State {
	t.Helper()
	s := newState()
	for _, name := range []string{"prod", "dev"} {
		_, err := s.AddConnection(name, "https://"+name+".example.com", AddOptions{})
		require.NoError(t, err)
		s.Connection(name).Accounts = []*Account{
			{ID: uuid.New(), Label: name + "-main", Default: true},
			{ID: uuid.New(), Label: name + "-alt"},
		}
	}
	require.NoError(t, s.SetDefaultConnection("dev"))
	return s
}

func TestResolveUsesPersistedDefault(t *testing.T) {
	s := twoConnectionState(t)

	profile, account, err := s.Resolve("", "")
	require.NoError(t, err)
	assert.Equal(t, "dev", profile.Name)
	assert.Equal(t, "dev-main", account.Label)
}

func TestResolveFlagOverridesDefault(t *testing.T) {
	s := twoConnectionState(t)

	profile, account, err := s.Resolve("prod", "")
	require.NoError(t, err)
	assert.Equal(t, "prod", profile.Name)
	assert.Equal(t, "prod-main", account.Label, "override connection brings its own default account")
}

func TestResolveEnvOverridesDefault(t *testing.T) {
	s := twoConnectionState(t)
	t.Setenv(EnvConnection, "prod")
	t.Setenv(EnvAccount, "prod-alt")

	profile, account, err := s.Resolve("", "")
	require.NoError(t, err)
	assert.Equal(t, "prod", profile.Name)
	assert.Equal(t, "prod-alt", account.Label)
}

func TestResolveFlagBeatsEnv(t *testing.T) {
	s := twoConnectionState(t)
	t.Setenv(EnvConnection, "dev")

	profile, _, err := s.Resolve("prod", "")
	require.NoError(t, err)
	assert.Equal(t, "prod", profile.Name)
}

func TestResolveAccountOverride(t *testing.T) {
	s := twoConnectionState(t)

	_, account, err := s.Resolve("dev", "dev-alt")
	require.NoError(t, err)
	assert.Equal(t, "dev-alt", account.Label)
}

func TestResolveEmptyRegistry(t *testing.T) {
	s := newState()
	_, _, err := s.Resolve("", "")
	assert.ErrorIs(t, err, ErrNoActiveContext)
}

func TestResolveUnknownOverride(t *testing.T) {
	s := twoConnectionState(t)

	_, _, err := s.Resolve("staging", "")
	assert.ErrorIs(t, err, ErrNoActiveContext)

	_, _, err = s.Resolve("dev", "nope")
	assert.ErrorIs(t, err, ErrNoActiveContext)
}

func TestResolveNoDefaultNeverGuesses(t *testing.T) {
	s := newState()
	_, err := s.AddConnection("a", "https://a.example.com", AddOptions{})
	require.NoError(t, err)
	_, err = s.AddConnection("b", "https://b.example.com", AddOptions{})
	require.NoError(t, err)
	for _, p := range s.Connections {
		p.Default = false
	}

	_, _, err2 := s.Resolve("", "")
	assert.ErrorIs(t, err2, ErrNoActiveContext, "multiple candidates must not be guessed between")
}

func TestResolveNoDefaultAccount(t *testing.T) {
	s := newState()
	_, err := s.AddConnection("prod", "https://logs.example.com", AddOptions{})
	require.NoError(t, err)
	s.Connection("prod").Accounts = []*Account{
		{ID: uuid.New(), Label: "one"},
		{ID: uuid.New(), Label: "two"},
	}

	_, _, err = s.Resolve("prod", "")
	assert.ErrorIs(t, err, ErrNoActiveContext)
}
