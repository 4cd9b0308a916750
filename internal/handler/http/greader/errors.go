package greader

import (
	"errors"
	"net/http"

	greaderauth "feedstream/internal/handler/http/greader/auth"
	"feedstream/internal/handler/http/respond"
	"feedstream/internal/usecase/streamengine"
)

var errUnauthenticated = errors.New("unauthenticated")

// currentUserID resolves the caller attached by greaderauth.RequireAuth, or
// writes a 401 and reports !ok if somehow absent (RequireAuth always runs
// first for every route Register wires up).
func currentUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	user, ok := greaderauth.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, errUnauthenticated)
		return 0, false
	}
	return user.ID, true
}

// writeEngineError maps the Stream Engine's sentinel errors to the HTTP
// status codes spec.md §6's endpoint table specifies, falling back to 500
// for anything unexpected.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, streamengine.ErrFeedNotFound),
		errors.Is(err, streamengine.ErrUnknownAction),
		errors.Is(err, streamengine.ErrNoAccessibleArticles),
		errors.Is(err, streamengine.ErrInvalidFeed):
		respond.SafeError(w, http.StatusBadRequest, err)
	case errors.Is(err, streamengine.ErrForbidden):
		respond.SafeError(w, http.StatusForbidden, err)
	default:
		respond.SafeError(w, http.StatusInternalServerError, err)
	}
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
