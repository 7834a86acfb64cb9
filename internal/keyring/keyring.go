// Package keyring stores the hosted-mode API keys in the system keychain.
package keyring

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const serviceName = "moodtales"

// APIKey represents a named API key stored in the keychain.
type APIKey string

const (
	// OpenAI is the keychain entry for the OpenAI API key.
	OpenAI APIKey = "openai-api-key"
	// Anthropic is the keychain entry for the Anthropic API key.
	Anthropic APIKey = "anthropic-api-key"
)

// ErrNotFound is returned when a key is neither in the environment nor the keychain.
var ErrNotFound = errors.New("api key not found")

// AllAPIKeys returns all known API key types for iteration.
func AllAPIKeys() []APIKey {
	return []APIKey{OpenAI, Anthropic}
}

// DisplayName returns a human-readable name for the API key.
func (k APIKey) DisplayName() string {
	switch k {
	case OpenAI:
		return "openai"
	case Anthropic:
		return "anthropic"
	default:
		return string(k)
	}
}

// EnvVar is the environment variable that overrides the keychain entry.
func (k APIKey) EnvVar() string {
	switch k {
	case OpenAI:
		return "OPENAI_API_KEY"
	case Anthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return strings.ToUpper(strings.ReplaceAll(string(k), "-", "_"))
	}
}

// Get retrieves an API key value from the system keychain.
func Get(apiKey APIKey) (string, error) {
	value, err := keyring.Get(serviceName, string(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to get %s from keychain: %w", apiKey.DisplayName(), err)
	}

	return value, nil
}

// Set stores an API key value in the system keychain.
func Set(apiKey APIKey, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("refusing to store an empty %s key", apiKey.DisplayName())
	}

	if err := keyring.Set(serviceName, string(apiKey), value); err != nil {
		return fmt.Errorf("failed to set %s in keychain: %w", apiKey.DisplayName(), err)
	}

	return nil
}

// Delete removes an API key from the keychain.
func Delete(apiKey APIKey) error {
	if err := keyring.Delete(serviceName, string(apiKey)); err != nil {
		return fmt.Errorf("failed to delete %s from keychain: %w", apiKey.DisplayName(), err)
	}

	return nil
}

// IsSet checks if an API key exists in the keychain.
func IsSet(apiKey APIKey) bool {
	_, err := keyring.Get(serviceName, string(apiKey))

	return err == nil
}

// Resolve returns explicit when non-empty, then the environment variable,
// then the keychain entry.
func Resolve(apiKey APIKey, explicit string) (string, error) {
	if v := strings.TrimSpace(explicit); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(os.Getenv(apiKey.EnvVar())); v != "" {
		return v, nil
	}

	value, err := Get(apiKey)
	if err != nil {
		return "", fmt.Errorf("%w: set %s or run `moodtales config set-key %s`",
			ErrNotFound, apiKey.EnvVar(), apiKey.DisplayName())
	}

	return value, nil
}

// APIKeyFromServiceName maps a service name (e.g., "openai") to an APIKey.
func APIKeyFromServiceName(name string) (APIKey, error) {
	switch strings.ToLower(name) {
	case "openai":
		return OpenAI, nil
	case "anthropic":
		return Anthropic, nil
	default:
		return "", fmt.Errorf("unknown service: %s", name)
	}
}
