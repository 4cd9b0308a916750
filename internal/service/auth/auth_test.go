package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedstream/internal/domain/entity"
	"feedstream/internal/service/auth"
)

type stubUserRepo struct {
	byEmail map[string]*entity.User
	byID    map[int64]*entity.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: map[string]*entity.User{}, byID: map[int64]*entity.User{}}
}

func (s *stubUserRepo) seed(u *entity.User) {
	s.byEmail[u.Email] = u
	s.byID[u.ID] = u
}

func (s *stubUserRepo) Get(ctx context.Context, id int64) (*entity.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return u, nil
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return u, nil
}

func (s *stubUserRepo) Create(ctx context.Context, u *entity.User) error {
	s.seed(u)
	return nil
}

type stubTokenRepo struct {
	byToken map[string]*entity.AuthToken
	nextID  int64
}

func newStubTokenRepo() *stubTokenRepo {
	return &stubTokenRepo{byToken: map[string]*entity.AuthToken{}}
}

func (s *stubTokenRepo) Create(ctx context.Context, t *entity.AuthToken) error {
	s.nextID++
	t.ID = s.nextID
	s.byToken[t.Token] = t
	return nil
}

func (s *stubTokenRepo) GetByToken(ctx context.Context, token string) (*entity.AuthToken, error) {
	t, ok := s.byToken[token]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return t, nil
}

func (s *stubTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var n int64
	now := time.Now()
	for k, t := range s.byToken {
		if t.ExpiresAt != nil && t.ExpiresAt.Before(now) {
			delete(s.byToken, k)
			n++
		}
	}
	return n, nil
}

func newTestUser(users *stubUserRepo, email, password string) *entity.User {
	hash, _ := auth.HashPassword(password)
	u := &entity.User{ID: 1, Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	users.seed(u)
	return u
}

func requirements() auth.CredentialRequirements {
	return auth.CredentialRequirements{MinPasswordLength: 8, WeakPasswords: auth.DefaultWeakPasswords}
}

func TestPasswordProvider_ValidateCredentials(t *testing.T) {
	users := newStubUserRepo()
	newTestUser(users, "a@b.com", "correct horse battery")
	provider := auth.NewPasswordProvider(users, requirements())

	t.Run("correct password", func(t *testing.T) {
		err := provider.ValidateCredentials(context.Background(), auth.Credentials{Username: "a@b.com", Password: "correct horse battery"})
		assert.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		err := provider.ValidateCredentials(context.Background(), auth.Credentials{Username: "a@b.com", Password: "wrong"})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		err := provider.ValidateCredentials(context.Background(), auth.Credentials{Username: "nobody@b.com", Password: "whatever"})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("case-insensitive email", func(t *testing.T) {
		err := provider.ValidateCredentials(context.Background(), auth.Credentials{Username: "A@B.COM", Password: "correct horse battery"})
		assert.NoError(t, err)
	})
}

func TestTokenIssuer_IssueAndResolve(t *testing.T) {
	users := newStubUserRepo()
	user := newTestUser(users, "a@b.com", "correct horse battery")
	tokens := newStubTokenRepo()
	issuer := auth.NewTokenIssuer(tokens, users)

	issued, err := issuer.Issue(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, issued.Token, 64)

	resolved, err := issuer.Resolve(context.Background(), issued.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestTokenIssuer_ResolveExpired(t *testing.T) {
	users := newStubUserRepo()
	user := newTestUser(users, "a@b.com", "correct horse battery")
	tokens := newStubTokenRepo()
	issuer := auth.NewTokenIssuer(tokens, users)

	issued, err := issuer.Issue(context.Background(), user.ID)
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	tokens.byToken[issued.Token].ExpiresAt = &past

	_, err = issuer.Resolve(context.Background(), issued.Token)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestTokenIssuer_ResolveUnknown(t *testing.T) {
	users := newStubUserRepo()
	tokens := newStubTokenRepo()
	issuer := auth.NewTokenIssuer(tokens, users)

	_, err := issuer.Resolve(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenIssuer_ActionTokenLength(t *testing.T) {
	issuer := auth.NewTokenIssuer(newStubTokenRepo(), newStubUserRepo())
	token, err := issuer.ActionToken()
	require.NoError(t, err)
	assert.Len(t, token, 57)
}

func TestAuthService_Login(t *testing.T) {
	users := newStubUserRepo()
	user := newTestUser(users, "a@b.com", "correct horse battery")
	tokens := newStubTokenRepo()
	issuer := auth.NewTokenIssuer(tokens, users)
	provider := auth.NewPasswordProvider(users, requirements())
	svc := auth.NewAuthService(provider, issuer, nil)

	token, err := svc.Login(context.Background(), auth.Credentials{Username: "a@b.com", Password: "correct horse battery"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, token.UserID)

	resolved, err := svc.Authenticate(context.Background(), token.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestAuthService_LoginBadPassword(t *testing.T) {
	users := newStubUserRepo()
	newTestUser(users, "a@b.com", "correct horse battery")
	tokens := newStubTokenRepo()
	issuer := auth.NewTokenIssuer(tokens, users)
	provider := auth.NewPasswordProvider(users, requirements())
	svc := auth.NewAuthService(provider, issuer, nil)

	_, err := svc.Login(context.Background(), auth.Credentials{Username: "a@b.com", Password: "nope"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestValidatePasswordStrength(t *testing.T) {
	req := requirements()

	assert.NoError(t, auth.ValidatePasswordStrength("a perfectly fine passphrase", req))
	assert.Error(t, auth.ValidatePasswordStrength("short", req))
	assert.Error(t, auth.ValidatePasswordStrength("password123", req))
}

func TestIsPublicEndpoint(t *testing.T) {
	svc := auth.NewAuthService(nil, nil, []string{"/accounts/ClientLogin"})
	assert.True(t, svc.IsPublicEndpoint("/accounts/ClientLogin"))
	assert.False(t, svc.IsPublicEndpoint("/reader/api/0/token"))
}
