package greader

import (
	"net/http"
	"strconv"

	"feedstream/internal/handler/http/respond"
	"feedstream/internal/usecase/streamengine"
)

// TagListHandler implements GET tag/list (spec.md §4.8).
type TagListHandler struct{ Engine *streamengine.Engine }

func (h TagListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	result, err := h.Engine.TagList(r.Context(), userID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	out := tagListResponse{Tags: make([]tagDTO, len(result.Tags))}
	for i, tag := range result.Tags {
		out.Tags[i] = tagDTO{ID: tag.ID}
	}
	respond.JSON(w, http.StatusOK, out)
}

// EditTagHandler implements POST edit-tag (spec.md §4.8): repeated form
// field i (article ids), optional a/r (tag to add/remove).
type EditTagHandler struct{ Engine *streamengine.Engine }

func (h EditTagHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	ids := make([]int64, 0, len(r.PostForm["i"]))
	for _, raw := range r.PostForm["i"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respond.SafeError(w, http.StatusBadRequest, err)
			return
		}
		ids = append(ids, id)
	}

	if err := h.Engine.EditTag(r.Context(), userID, ids, r.PostForm.Get("a"), r.PostForm.Get("r")); err != nil {
		writeEngineError(w, err)
		return
	}
	writeOK(w)
}
