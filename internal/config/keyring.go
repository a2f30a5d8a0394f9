package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name in the OS keychain.
	KeyringService = "Refine"

	// KeyringUser is the user identifier for stored secrets.
	KeyringUser = "default"

	KeyringJiraTokenItem  = "jira-api-token"
	KeyringTempoTokenItem = "tempo-api-token"
	KeyringOpenAIKeyItem  = "openai-api-key"
)

// KeyringManager stores API tokens in the OS keychain:
// macOS Keychain, Windows Credential Manager, or Linux Secret Service.
type KeyringManager struct {
	logger *slog.Logger
}

// NewKeyringManager creates a new keyring manager.
func NewKeyringManager() *KeyringManager {
	return &KeyringManager{
		logger: slog.Default().With("component", "keyring"),
	}
}

// SetSecret stores a named secret in the keychain.
func (km *KeyringManager) SetSecret(item, value string) error {
	if value == "" {
		return fmt.Errorf("secret cannot be empty")
	}
	if err := keyring.Set(KeyringService, item, value); err != nil {
		km.logger.Error("failed to save secret to keychain", "item", item, "error", err)
		return fmt.Errorf("failed to save to OS keychain: %w", err)
	}
	km.logger.Info("secret saved to keychain", "item", item)
	return nil
}

// GetSecret retrieves a named secret. An unset secret is not an error; it
// returns "".
func (km *KeyringManager) GetSecret(item string) (string, error) {
	value, err := keyring.Get(KeyringService, item)
	if err == keyring.ErrNotFound {
		return "", nil
	}
	if err != nil {
		km.logger.Error("failed to read secret from keychain", "item", item, "error", err)
		return "", fmt.Errorf("failed to read from OS keychain: %w", err)
	}
	return value, nil
}

// DeleteSecret removes a named secret. Deleting an absent secret is a no-op.
func (km *KeyringManager) DeleteSecret(item string) error {
	err := keyring.Delete(KeyringService, item)
	if err == keyring.ErrNotFound {
		return nil
	}
	if err != nil {
		km.logger.Error("failed to delete secret from keychain", "item", item, "error", err)
		return fmt.Errorf("failed to delete from OS keychain: %w", err)
	}
	km.logger.Info("secret deleted from keychain", "item", item)
	return nil
}

// IsAvailable probes whether an OS keychain backend is usable. Headless CI
// environments usually have none.
func (km *KeyringManager) IsAvailable() bool {
	if os.Getenv("REFINE_NO_KEYRING") != "" {
		return false
	}
	probe := "availability-probe"
	if err := keyring.Set(KeyringService, probe, "ok"); err != nil {
		return false
	}
	keyring.Delete(KeyringService, probe)
	return true
}
