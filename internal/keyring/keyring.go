// Package keyring provides access to the system keychain for storing API keys.
package keyring

import (
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "intake"

// APIKey represents a named secret stored in the keychain.
type APIKey string

const (
	// OpenAI is the keychain entry for the OpenAI API key used by the
	// transcription backend.
	OpenAI APIKey = "openai-api-key"
	// Anthropic is the keychain entry for the Anthropic API key used by the
	// extraction backend.
	Anthropic APIKey = "anthropic-api-key"
	// BackendToken is the keychain entry for the intake backend auth token.
	BackendToken APIKey = "backend-token"
)

// AllAPIKeys returns all known key types for iteration.
func AllAPIKeys() []APIKey {
	return []APIKey{OpenAI, Anthropic, BackendToken}
}

// DisplayName returns a human-readable name for the key.
func (k APIKey) DisplayName() string {
	switch k {
	case OpenAI:
		return "openai"
	case Anthropic:
		return "anthropic"
	case BackendToken:
		return "backend"
	default:
		return string(k)
	}
}

// Get retrieves a key value from the system keychain.
func Get(apiKey APIKey) (string, error) {
	value, err := keyring.Get(serviceName, string(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to get %s from keychain: %w", apiKey.DisplayName(), err)
	}

	return value, nil
}

// Set stores a key value in the system keychain.
func Set(apiKey APIKey, value string) error {
	if err := keyring.Set(serviceName, string(apiKey), value); err != nil {
		return fmt.Errorf("failed to set %s in keychain: %w", apiKey.DisplayName(), err)
	}

	return nil
}

// IsSet checks if a key exists in the keychain.
func IsSet(apiKey APIKey) bool {
	_, err := keyring.Get(serviceName, string(apiKey))

	return err == nil
}

// APIKeyFromServiceName maps a service name (e.g., "openai") to an APIKey.
func APIKeyFromServiceName(name string) (APIKey, error) {
	switch name {
	case "openai":
		return OpenAI, nil
	case "anthropic":
		return Anthropic, nil
	case "backend":
		return BackendToken, nil
	default:
		return "", fmt.Errorf("unknown service: %s", name)
	}
}
