package greader

import (
	"net/http"

	"feedstream/internal/handler/http/respond"
	"feedstream/internal/usecase/streamengine"
)

// SubscriptionListHandler implements GET subscription/list (spec.md §4.8).
type SubscriptionListHandler struct{ Engine *streamengine.Engine }

func (h SubscriptionListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	result, err := h.Engine.SubscriptionList(r.Context(), userID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	out := subscriptionListResponse{Subscriptions: make([]subscriptionDTO, len(result.Subscriptions))}
	for i, sub := range result.Subscriptions {
		dto := subscriptionDTO{
			ID:      sub.ID,
			Title:   sub.Title,
			URL:     sub.URL,
			HTMLURL: sub.HTMLURL,
			IconURL: sub.IconURL,
		}
		for _, c := range sub.Categories {
			dto.Categories = append(dto.Categories, categoryDTO{ID: c.ID, Label: c.Label})
		}
		out.Subscriptions[i] = dto
	}
	respond.JSON(w, http.StatusOK, out)
}

// SubscriptionEditHandler implements POST subscription/edit (spec.md §4.8):
// form fields s, ac, t?, a?, r?.
type SubscriptionEditHandler struct{ Engine *streamengine.Engine }

func (h SubscriptionEditHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	params := streamengine.SubscriptionEditParams{
		Stream:      r.PostForm.Get("s"),
		Action:      r.PostForm.Get("ac"),
		Title:       r.PostForm.Get("t"),
		AddLabel:    r.PostForm.Get("a"),
		RemoveLabel: r.PostForm.Get("r"),
	}

	if err := h.Engine.SubscriptionEdit(r.Context(), userID, params); err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w)
}

// QuickAddHandler implements POST subscription/quickadd (spec.md §4.8):
// form field quickadd.
type QuickAddHandler struct{ Engine *streamengine.Engine }

func (h QuickAddHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.Engine.QuickAdd(r.Context(), userID, r.PostForm.Get("quickadd"))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, quickAddResponse{
		NumResults: result.NumResults,
		Query:      result.Query,
		StreamID:   result.StreamID,
		StreamName: result.StreamName,
	})
}
