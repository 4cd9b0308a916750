package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CredentialPolicyConfig represents the password credential policy enforced
// by the Auth Service's PasswordProvider (C9). It's loaded from YAML so the
// policy can be tightened operationally without a rebuild.
type CredentialPolicyConfig struct {
	Credentials struct {
		MinPasswordLength int      `yaml:"min_password_length"`
		WeakPasswords     []string `yaml:"weak_passwords"`
	} `yaml:"credentials"`
}

// LoadCredentialPolicy loads the credential policy from a YAML file.
// The path parameter is expected to come from a trusted source (an
// environment variable set by the deployer, not user input).
func LoadCredentialPolicy(path string) (*CredentialPolicyConfig, error) {
	// #nosec G304 -- path is provided by trusted source (env var or hardcoded default), not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config CredentialPolicyConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateCredentialPolicy(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// validateCredentialPolicy validates the loaded configuration.
func validateCredentialPolicy(config *CredentialPolicyConfig) error {
	if config.Credentials.MinPasswordLength <= 0 {
		return fmt.Errorf("min_password_length must be positive")
	}

	if config.Credentials.MinPasswordLength < 8 {
		return fmt.Errorf("min_password_length must be at least 8")
	}

	return nil
}

// GetMinPasswordLength returns the minimum password length requirement.
func (c *CredentialPolicyConfig) GetMinPasswordLength() int {
	return c.Credentials.MinPasswordLength
}

// GetWeakPasswords returns the list of rejected weak passwords.
func (c *CredentialPolicyConfig) GetWeakPasswords() []string {
	return c.Credentials.WeakPasswords
}
