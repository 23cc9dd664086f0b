package config

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the portal password in the OS keychain.
const KeyringService = "profilekeeper"

// LookupPassword reads the portal password stored for account. A missing
// entry is not an error; it yields an empty password so the action reports
// the usual missing-credential ConfigError.
func LookupPassword(account string) (string, error) {
	pw, err := keyring.Get(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return pw, nil
}

// StorePassword saves the portal password for account in the OS keychain.
func StorePassword(account, password string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, account, password)
}

// DeletePassword removes the portal password for account.
func DeletePassword(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}
