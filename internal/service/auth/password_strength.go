package auth

import (
	"fmt"
	"strings"
)

// DefaultWeakPasswords seeds CredentialRequirements.WeakPasswords,
// carried over from the teacher's validator.go admin-credential guard.
var DefaultWeakPasswords = []string{
	"admin", "password", "123456", "secret", "admin123", "password123",
	"123456789", "12345678", "qwerty", "abc123", "letmein", "welcome",
}

// ValidatePasswordStrength enforces req against a plaintext password.
// Adapted from the teacher's ValidateAdminCredentials, which ran once at
// startup against a single env-seeded admin password; here it's a plain
// function any account-provisioning path can call before hashing.
func ValidatePasswordStrength(password string, req CredentialRequirements) error {
	if len(password) < req.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", req.MinPasswordLength)
	}
	lower := strings.ToLower(password)
	for _, weak := range req.WeakPasswords {
		if lower == weak || strings.HasPrefix(lower, weak) {
			return fmt.Errorf("password is too weak")
		}
	}
	return nil
}
