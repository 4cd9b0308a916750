// Package greader wires the Stream Engine (C8) to the GReader HTTP surface
// (spec.md §6). Handler shape follows the teacher's internal/handler/http/article
// package: one struct per endpoint implementing http.Handler, registered
// against a router by a single Register function.
package greader

import (
	"github.com/go-chi/chi/v5"

	greaderauth "feedstream/internal/handler/http/greader/auth"
	"feedstream/internal/usecase/streamengine"
	authsvc "feedstream/internal/service/auth"
)

// Register mounts the GReader endpoint table under r. Every route except
// ClientLogin passes through greaderauth.RequireAuth.
func Register(r chi.Router, engine *streamengine.Engine, auth *authsvc.AuthService) {
	r.Post("/accounts/ClientLogin", greaderauth.ClientLogin(auth))

	r.Group(func(r chi.Router) {
		r.Use(greaderauth.RequireAuth(auth))

		r.Get("/reader/api/0/token", greaderauth.TokenHandler(auth))
		r.Get("/reader/api/0/subscription/list", SubscriptionListHandler{Engine: engine})
		r.Post("/reader/api/0/subscription/edit", SubscriptionEditHandler{Engine: engine})
		r.Post("/reader/api/0/subscription/quickadd", QuickAddHandler{Engine: engine})
		r.Get("/reader/api/0/tag/list", TagListHandler{Engine: engine})
		r.Post("/reader/api/0/edit-tag", EditTagHandler{Engine: engine})
		r.Get("/reader/api/0/stream/items/ids", StreamItemIDsHandler{Engine: engine})
		r.Post("/reader/api/0/mark-all-as-read", MarkAllAsReadHandler{Engine: engine})
		r.Get("/reader/api/0/preference/list", PreferenceListHandler{})
		r.Get("/reader/api/0/preference/stream/list", StreamPreferenceListHandler{})
	})
}
