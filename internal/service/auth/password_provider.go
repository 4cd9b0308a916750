package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"feedstream/internal/domain/entity"
	"feedstream/internal/repository"
)

// PasswordProvider validates email/password credentials against the
// Store's Users table, generalizing the teacher's MultiUserAuthProvider
// (env-var admin/demo identities, plaintext constant-time compare) to an
// arbitrary number of Store-backed users with bcrypt-hashed passwords.
type PasswordProvider struct {
	users        repository.UserRepository
	requirements CredentialRequirements
}

// NewPasswordProvider builds a PasswordProvider with the given password
// policy, enforced by ValidatePasswordStrength wherever a password is set.
func NewPasswordProvider(users repository.UserRepository, requirements CredentialRequirements) *PasswordProvider {
	return &PasswordProvider{users: users, requirements: requirements}
}

func (p *PasswordProvider) ValidateCredentials(ctx context.Context, creds Credentials) error {
	if creds.Username == "" || creds.Password == "" {
		return ErrInvalidCredentials
	}
	user, err := p.users.GetByEmail(ctx, normalizeEmail(creds.Username))
	if err != nil {
		return ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// ResolveUser looks up the user these credentials belong to. Only
// meaningful after ValidateCredentials has already succeeded.
func (p *PasswordProvider) ResolveUser(ctx context.Context, creds Credentials) (*entity.User, error) {
	return p.users.GetByEmail(ctx, normalizeEmail(creds.Username))
}

func (p *PasswordProvider) GetRequirements() CredentialRequirements {
	return p.requirements
}

func (p *PasswordProvider) Name() string {
	return "password"
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword hashes a plaintext password for storage in
// entity.User.PasswordHash. Used wherever a user account is provisioned
// (operator seed script, admin bootstrap) — there is no self-service
// signup endpoint in spec.md's GReader surface.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
