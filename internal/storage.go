package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// EnvConfigPath overrides the location of the persisted state file.
const EnvConfigPath = "LOGSH_CONFIG_PATH"

// ConfigPath resolves the state file location: the LOGSH_CONFIG_PATH
// environment variable if set, otherwise the per-user config directory.
func ConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: cannot determine config directory: %v", ErrConfig, err)
	}
	return filepath.Join(dir, "logsh", "config.json"), nil
}

// LoadState reads the persisted registry and credential cache. A missing
// file is an empty registry, never an error; a malformed file is ErrConfig.
func LoadState() (*State, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("no config file, starting with empty registry", "path", path)
		return newState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrConfig, path, err)
	}

	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrConfig, path, err)
	}
	if s.Credentials == nil {
		s.Credentials = make(map[string]*Credential)
	}
	slog.Debug("loaded config", "path", path, "connections", len(s.Connections))
	return &s, nil
}

// SaveState persists the state with a write-to-temp-then-rename so a crash
// mid-write cannot corrupt the file. Expired session tokens without a usable
// refresh token are dropped before writing; API keys persist long-term.
// Cross-process races resolve last-writer-wins.
func SaveState(s *State) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrConfig, filepath.Dir(path), err)
	}

	pruneExpired(s, time.Now())

	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding state: %v", ErrConfig, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.json")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing %s: %v", ErrConfig, tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: replacing %s: %v", ErrConfig, path, err)
	}

	s.dirty = false
	slog.Debug("saved config", "path", path)
	return nil
}

func newState() *State {
	return &State{Credentials: make(map[string]*Credential)}
}

// pruneExpired drops session tokens that are past expiry and cannot be
// refreshed. They would never validate again, so persisting them only leaks
// stale secrets to disk.
func pruneExpired(s *State, now time.Time) {
	for id, c := range s.Credentials {
		if c == nil {
			delete(s.Credentials, id)
			continue
		}
		if c.Kind == CredentialSession && (c.Token == nil ||
			(now.After(c.Token.ExpiresAt) && c.Token.RefreshToken == "")) {
			delete(s.Credentials, id)
		}
	}
}
