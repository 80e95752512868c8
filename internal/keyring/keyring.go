// Package keyring keeps secrets that must not live in the config file (the
// PostgreSQL connection string, a credentialed NATS URL) in the OS keyring.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/daystreak/internal/constants"
)

// Keys under the application's keyring service.
const (
	ConnectionKey = constants.DefaultKeyringUser
	NATSKey       = "nats-url"
)

var (
	// ErrNotFound is returned when no secret is stored under the key
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Get reads the secret stored under key.
func Get(key string) (string, error) {
	value, err := keyring.Get(constants.AppName, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func Set(key, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", key)
	}
	if err := keyring.Set(constants.AppName, key, value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", key, err)
	}
	return nil
}

// Delete removes the secret stored under key.
func Delete(key string) error {
	if err := keyring.Delete(constants.AppName, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", key, err)
	}
	return nil
}

func GetConnectionString() (string, error) {
	return Get(ConnectionKey)
}

func SetConnectionString(connStr string) error {
	return Set(ConnectionKey, connStr)
}

func DeleteConnectionString() error {
	return Delete(ConnectionKey)
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check: a read of a key that never exists succeeds
// with ErrNotFound on a working keyring.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
