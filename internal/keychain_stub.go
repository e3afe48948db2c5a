//go:build !darwin

package internal

import "errors"

var errNoKeychain = errors.New("keychain integration is only supported on macOS")

// On platforms without a keychain, API keys stay in the config file.

func keychainStore(accountID, key string) error { return errNoKeychain }

func keychainLookup(accountID string) (string, error) { return "", errNoKeychain }

func keychainDelete(accountID string) error { return errNoKeychain }
