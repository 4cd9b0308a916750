package greader

import (
	"net/http"

	"feedstream/internal/handler/http/respond"
)

// PreferenceListHandler implements GET preference/list. Returns an empty
// structure for client compatibility only (spec.md §4.8); this system has
// no user preference store.
type PreferenceListHandler struct{}

func (h PreferenceListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUserID(w, r); !ok {
		return
	}
	respond.JSON(w, http.StatusOK, preferenceListResponse{Prefs: []any{}})
}

// StreamPreferenceListHandler implements GET preference/stream/list, same
// compatibility-only contract as PreferenceListHandler.
type StreamPreferenceListHandler struct{}

func (h StreamPreferenceListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUserID(w, r); !ok {
		return
	}
	respond.JSON(w, http.StatusOK, streamPreferenceListResponse{StreamPrefs: map[string]any{}})
}
