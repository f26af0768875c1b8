package credentials

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// ErrSecretNotFound is returned by a Store when no value is stored.
var ErrSecretNotFound = errors.New("secret not found")

// Store persists secrets by service and user name.
type Store interface {
	Get(service, user string) (string, error)
	Set(service, user, value string) error
	Delete(service, user string) error
}

// KeyringStore stores secrets in the OS keychain.
type KeyringStore struct{}

// Get reads a secret from the keychain.
func (KeyringStore) Get(service, user string) (string, error) {
	v, err := keyring.Get(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrSecretNotFound
	}
	return v, err
}

// Set writes a secret to the keychain.
func (KeyringStore) Set(service, user, value string) error {
	return keyring.Set(service, user, value)
}

// Delete removes a secret; a missing secret is not an error.
func (KeyringStore) Delete(service, user string) error {
	err := keyring.Delete(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
