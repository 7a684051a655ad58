package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "email-classifier"

// ErrNotFound is returned when the keyring holds no item for a key.
var ErrNotFound = errors.New("credential not found")

// Store reads and writes secrets by key
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Keyring is a Store backed by the operating system keyring
type Keyring struct {
	open func() (keyring.Keyring, error)
}

// NewKeyring returns a Store that opens the system keyring on each use.
func NewKeyring() *Keyring {
	return &Keyring{open: openKeyring}
}

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/email-classifier/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("email-classifier-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key.
func (k *Keyring) Get(key string) (string, error) {
	ring, err := k.open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("getting credential %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key.
func (k *Keyring) Set(key, value string) error {
	ring, err := k.open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:         key,
		Data:        []byte(value),
		Label:       serviceName + " " + key,
		Description: "Mailbox application password",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key.
func (k *Keyring) Delete(key string) error {
	ring, err := k.open()
	if err != nil {
		return err
	}

	if err := ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
