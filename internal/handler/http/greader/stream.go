package greader

import (
	"net/http"
	"strconv"

	"feedstream/internal/handler/http/respond"
	"feedstream/internal/usecase/streamengine"
)

// StreamItemIDsHandler implements GET stream/items/ids (spec.md §4.8).
type StreamItemIDsHandler struct{ Engine *streamengine.Engine }

func (h StreamItemIDsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	params := streamengine.StreamParams{
		Scope:        q.Get("s"),
		ExcludeTags:  q["xt"],
		IncludeTags:  q["it"],
		Reverse:      q.Get("r") == "o",
		Continuation: q.Get("c"),
	}
	if n := q.Get("n"); n != "" {
		limit, err := strconv.Atoi(n)
		if err != nil {
			respond.SafeError(w, http.StatusBadRequest, err)
			return
		}
		params.Limit = limit
	}
	if ot := q.Get("ot"); ot != "" {
		v, err := strconv.ParseInt(ot, 10, 64)
		if err != nil {
			respond.SafeError(w, http.StatusBadRequest, err)
			return
		}
		params.OlderThan = &v
	}
	if nt := q.Get("nt"); nt != "" {
		v, err := strconv.ParseInt(nt, 10, 64)
		if err != nil {
			respond.SafeError(w, http.StatusBadRequest, err)
			return
		}
		params.NewerThan = &v
	}

	result, err := h.Engine.StreamItemIDs(r.Context(), userID, params)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	out := streamItemIDsResponse{
		ItemRefs:     make([]itemRefDTO, len(result.ItemRefs)),
		Continuation: result.Continuation,
	}
	for i, ref := range result.ItemRefs {
		out.ItemRefs[i] = itemRefDTO{ID: ref.ID}
	}
	respond.JSON(w, http.StatusOK, out)
}

// MarkAllAsReadHandler implements POST mark-all-as-read (spec.md §4.8):
// form fields s, ts?.
type MarkAllAsReadHandler struct{ Engine *streamengine.Engine }

func (h MarkAllAsReadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	var ts *int64
	if raw := r.PostForm.Get("ts"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respond.SafeError(w, http.StatusBadRequest, err)
			return
		}
		ts = &v
	}

	if err := h.Engine.MarkAllAsRead(r.Context(), userID, r.PostForm.Get("s"), ts); err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w)
}
