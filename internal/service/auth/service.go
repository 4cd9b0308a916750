// Package auth implements C9: credential validation kept separate from
// token mechanics, the way the teacher's AuthService/AuthProvider split
// did, generalized from a single env-seeded admin identity to per-user
// rows in the Store and from a signed JWT to a 64-hex bearer capability
// issued by TokenIssuer and looked up in AuthTokenRepository (spec.md
// §4.9's Open Question: GReader clients send `GoogleLogin auth=<token>`,
// not a `Bearer` JWT, and expect an `SID=`/`Auth=` response body a JWT
// library doesn't produce).
package auth

import (
	"context"
	"strings"

	"feedstream/internal/domain/entity"
)

// Credentials represents authentication credentials.
type Credentials struct {
	Username string
	Password string
}

// CredentialRequirements defines password policy requirements.
type CredentialRequirements struct {
	MinPasswordLength int
	WeakPasswords     []string
}

// AuthProvider defines the interface for authentication providers.
// This interface is framework-agnostic and can be implemented by various authentication mechanisms.
type AuthProvider interface {
	// ValidateCredentials validates user credentials.
	ValidateCredentials(ctx context.Context, creds Credentials) error

	// GetRequirements returns the credential requirements for this provider.
	GetRequirements() CredentialRequirements

	// Name returns the name of this provider.
	Name() string
}

// CredentialResolver extends AuthProvider with the lookup ClientLogin
// needs once ValidateCredentials has confirmed the password: which user
// do these credentials belong to. Generalizes the teacher's
// MultiUserAuthProvider.IdentifyUser (env-var admin/viewer lookup) to a
// Store-backed multi-user lookup.
type CredentialResolver interface {
	AuthProvider
	ResolveUser(ctx context.Context, creds Credentials) (*entity.User, error)
}

// AuthService handles authentication business logic: validating
// credentials, resolving the matched user, and issuing/checking bearer
// tokens. Framework-agnostic — the HTTP wire layer lives in
// internal/handler/http/greader/auth.
type AuthService struct {
	resolver        CredentialResolver
	tokens          *TokenIssuer
	publicEndpoints []string
}

// NewAuthService creates a new authentication service.
func NewAuthService(resolver CredentialResolver, tokens *TokenIssuer, publicEndpoints []string) *AuthService {
	return &AuthService{
		resolver:        resolver,
		tokens:          tokens,
		publicEndpoints: publicEndpoints,
	}
}

// ValidateCredentials validates user credentials via the configured resolver.
func (s *AuthService) ValidateCredentials(ctx context.Context, creds Credentials) error {
	return s.resolver.ValidateCredentials(ctx, creds)
}

// Login implements spec.md §4.9's Client login: validate, resolve the
// user, and issue a fresh AuthToken.
func (s *AuthService) Login(ctx context.Context, creds Credentials) (*entity.AuthToken, error) {
	if err := s.resolver.ValidateCredentials(ctx, creds); err != nil {
		return nil, err
	}
	user, err := s.resolver.ResolveUser(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s.tokens.Issue(ctx, user.ID)
}

// ActionToken issues the fixed-length token GET /reader/api/0/token
// returns for an already-authenticated request.
func (s *AuthService) ActionToken() (string, error) {
	return s.tokens.ActionToken()
}

// Authenticate resolves a bearer token (the value following
// "GoogleLogin auth=") to the user it belongs to, or an error if the
// token is unknown or expired.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	return s.tokens.Resolve(ctx, token)
}

// IsPublicEndpoint checks if a path is publicly accessible.
// Returns true if the path matches any configured public endpoint prefix.
func (s *AuthService) IsPublicEndpoint(path string) bool {
	for _, endpoint := range s.publicEndpoints {
		if strings.HasPrefix(path, endpoint) {
			return true
		}
	}
	return false
}

// GetResolver returns the current credential resolver.
func (s *AuthService) GetResolver() CredentialResolver {
	return s.resolver
}
