package auth

import (
	"context"
	"net/http"
	"strings"

	"feedstream/internal/domain/entity"
	"feedstream/internal/handler/http/respond"
	authsvc "feedstream/internal/service/auth"
)

type ctxKey string

const ctxUser ctxKey = "greader_user"

const googleLoginPrefix = "GoogleLogin auth="

// UserFromContext returns the authenticated user attached by RequireAuth.
func UserFromContext(ctx context.Context) (*entity.User, bool) {
	u, ok := ctx.Value(ctxUser).(*entity.User)
	return u, ok
}

// RequireAuth resolves "Authorization: GoogleLogin auth=<token>" to a
// user via svc, rejecting the request with 401 on a missing, unknown, or
// expired token (spec.md §4.9). The login endpoint itself must be
// registered outside this middleware's scope.
func RequireAuth(svc *authsvc.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublicEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token := parseGoogleLogin(r.Header.Get("Authorization"))
			if token == "" {
				RecordAuthRequest("failure")
				respond.Error(w, http.StatusUnauthorized, errUnauthorized)
				return
			}

			user, err := svc.Authenticate(r.Context(), token)
			if err != nil {
				RecordAuthRequest("failure")
				respond.Error(w, http.StatusUnauthorized, errUnauthorized)
				return
			}

			RecordAuthRequest("success")
			ctx := context.WithValue(r.Context(), ctxUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseGoogleLogin(header string) string {
	if !strings.HasPrefix(header, googleLoginPrefix) {
		return ""
	}
	return strings.TrimPrefix(header, googleLoginPrefix)
}
