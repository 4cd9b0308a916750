package auth

import (
	"net/http"

	"feedstream/internal/handler/http/respond"
	authsvc "feedstream/internal/service/auth"
)

// TokenHandler implements GET /reader/api/0/token: the fixed-length
// token string GReader clients attach to subsequent POST requests.
// RequireAuth has already rejected unauthenticated callers by the time
// this runs.
func TokenHandler(svc *authsvc.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			respond.Error(w, http.StatusUnauthorized, errUnauthorized)
			return
		}

		token, err := svc.ActionToken()
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, err)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(token))
	}
}
