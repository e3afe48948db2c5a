//go:build darwin

package internal

import (
	"fmt"

	"github.com/keybase/go-keychain"
)

const keychainService = "logsh"

// keychainStore saves an account's API key in the macOS keychain so the
// secret never lands in the config file.
func keychainStore(accountID, key string) error {
	item := keychain.NewItem()
	item.SetSecClass(keychain.SecClassGenericPassword)
	item.SetService(keychainService)
	item.SetAccount(accountID)
	item.SetLabel("logsh API key")
	item.SetData([]byte(key))
	item.SetSynchronizable(keychain.SynchronizableNo)
	item.SetAccessible(keychain.AccessibleWhenUnlocked)

	keychain.DeleteItem(item)
	if err := keychain.AddItem(item); err != nil {
		return fmt.Errorf("keychain add: %w", err)
	}
	return nil
}

func keychainLookup(accountID string) (string, error) {
	query := keychain.NewItem()
	query.SetSecClass(keychain.SecClassGenericPassword)
	query.SetService(keychainService)
	query.SetAccount(accountID)
	query.SetMatchLimit(keychain.MatchLimitOne)
	query.SetReturnData(true)

	results, err := keychain.QueryItem(query)
	if err != nil {
		return "", err
	}
	if len(results) != 1 {
		return "", fmt.Errorf("api key not found in keychain")
	}
	return string(results[0].Data), nil
}

func keychainDelete(accountID string) error {
	item := keychain.NewItem()
	item.SetSecClass(keychain.SecClassGenericPassword)
	item.SetService(keychainService)
	item.SetAccount(accountID)
	return keychain.DeleteItem(item)
}
