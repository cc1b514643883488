package keyring

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/gradually/internal/constants"
)

var (
	// ErrNotFound is returned when no credentials are found in the keyring
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Source records where a resolved secret came from
type Source string

const (
	SourceEnv     Source = "env"
	SourceKeyring Source = "keyring"
	SourceFlag    Source = "flag"
)

func get(key string) (string, error) {
	value, err := keyring.Get(constants.AppName, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		// Wrap other keyring errors as unavailable
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return value, nil
}

func set(key, value, what string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	if err := keyring.Set(constants.AppName, key, value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", what, err)
	}
	return nil
}

func del(key, what string) error {
	if err := keyring.Delete(constants.AppName, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", what, err)
	}
	return nil
}

// GetConnectionString retrieves the database connection string from the OS keyring.
// Returns ErrNotFound if no credentials are stored.
func GetConnectionString() (string, error) {
	return get(constants.DefaultKeyringUser)
}

// SetConnectionString stores the database connection string in the OS keyring.
func SetConnectionString(connStr string) error {
	return set(constants.DefaultKeyringUser, connStr, "connection string")
}

// DeleteConnectionString removes the database connection string from the OS keyring.
func DeleteConnectionString() error {
	return del(constants.DefaultKeyringUser, "connection string")
}

// GetAPIToken retrieves the HTTP API bearer token from the OS keyring.
func GetAPIToken() (string, error) {
	return get(constants.APITokenKeyringKey)
}

// SetAPIToken stores the HTTP API bearer token in the OS keyring.
func SetAPIToken(token string) error {
	return set(constants.APITokenKeyringKey, strings.TrimSpace(token), "API token")
}

// DeleteAPIToken removes the HTTP API bearer token from the OS keyring.
func DeleteAPIToken() error {
	return del(constants.APITokenKeyringKey, "API token")
}

// ResolveConnectionString picks the database target in priority order:
// the environment variable, then the keyring, then the --config value.
// A missing or unavailable keyring falls through to the flag.
func ResolveConnectionString(flagValue string) (string, Source) {
	if v := strings.TrimSpace(os.Getenv(constants.DBConnectionEnvVar)); v != "" {
		return v, SourceEnv
	}
	if v, err := GetConnectionString(); err == nil && v != "" {
		return v, SourceKeyring
	}
	return flagValue, SourceFlag
}

// ResolveAPIToken returns the API token from the environment or the keyring.
// An empty result means no token is configured and the API cannot serve.
func ResolveAPIToken() (string, Source) {
	if v := strings.TrimSpace(os.Getenv(constants.APITokenEnvVar)); v != "" {
		return v, SourceEnv
	}
	if v, err := GetAPIToken(); err == nil && v != "" {
		return v, SourceKeyring
	}
	return "", ""
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	// Try to perform a read operation to test availability
	// We don't care about the result, just whether the operation succeeds or fails
	_, err := keyring.Get(constants.AppName, "test-availability")
	// If the error is ErrNotFound, the keyring is available but empty
	// Any other error likely indicates the keyring is not available
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
