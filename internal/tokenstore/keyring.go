package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringStore provides OS-native secure credential storage for the artifact.
// Uses macOS Keychain, Windows Credential Manager, or Linux Secret Service.
type KeyringStore struct {
	service string
	user    string
}

// Compile-time check to ensure KeyringStore implements TokenStore
var _ TokenStore = (*KeyringStore)(nil)

// NewKeyringStore creates a KeyringStore using the given service and user
// identifiers.
func NewKeyringStore(service, user string) (*KeyringStore, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}
	if user == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}

	return &KeyringStore{
		service: service,
		user:    user,
	}, nil
}

// Read returns the artifact payload from the system keyring. Returns
// ErrNotFound if no entry exists.
func (k *KeyringStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	payload, err := keyring.Get(k.service, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w: keyring entry %s/%s", ErrNotFound, k.service, k.user)
	}
	if err != nil {
		return "", err
	}

	if payload == "" {
		return "", fmt.Errorf("empty token in keyring for service %s, user %s", k.service, k.user)
	}

	return payload, nil
}

// Write persists the artifact payload to the system keyring, overwriting any
// existing value. The keyring replaces entries atomically.
func (k *KeyringStore) Write(ctx context.Context, payload string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return keyring.Set(k.service, k.user, payload)
}

// Delete removes the keyring entry. An absent entry is not an error.
func (k *KeyringStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := keyring.Delete(k.service, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
