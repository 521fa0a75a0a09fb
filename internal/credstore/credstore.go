// Package credstore persists the portal bearer token on the operating
// system keyring so the sync core can obtain a credential on demand.
package credstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/campusdesk/campusdesk/pkg/portal"
)

// Function variables so tests can stub the OS keyring.
var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
)

// Keyring stores the bearer token under a service/account pair on the
// OS keyring. It implements portal.TokenSource.
type Keyring struct {
	Service string
	Account string
}

// New returns the default campusdesk keyring store.
func New() *Keyring {
	return &Keyring{
		Service: "campusdesk",
		Account: "token",
	}
}

// Save stores the token, replacing any previous one.
func (k *Keyring) Save(token string) error {
	if token == "" {
		return fmt.Errorf("credstore: refusing to store empty token")
	}
	if err := keyringSet(k.Service, k.Account, token); err != nil {
		return fmt.Errorf("credstore: %w", err)
	}
	return nil
}

// Token returns the stored credential. A missing entry maps to
// portal.ErrNoToken so the sync engine can degrade to placeholder
// data.
func (k *Keyring) Token() (string, error) {
	token, err := keyringGet(k.Service, k.Account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", portal.ErrNoToken
		}
		return "", fmt.Errorf("credstore: %w", err)
	}
	return token, nil
}

// Delete removes the stored credential. Deleting a missing entry is
// not an error.
func (k *Keyring) Delete() error {
	if err := keyringDelete(k.Service, k.Account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("credstore: %w", err)
	}
	return nil
}

var _ portal.TokenSource = (*Keyring)(nil)
