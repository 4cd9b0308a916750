package streamengine

import "errors"

var (
	// ErrFeedNotFound means the "s"/"feed/<id>" part of a request did not
	// resolve to any Feed row (spec.md §4.8 subscription_edit HTTP 400).
	ErrFeedNotFound = errors.New("feed not found")

	// ErrForbidden means the resolved Feed belongs to a different user
	// (spec.md §4.8 subscription_edit HTTP 403).
	ErrForbidden = errors.New("cannot modify other users' feeds")

	// ErrNoAccessibleArticles means none of the requested article ids in
	// an edit-tag request resolved to an article visible to the caller
	// (spec.md §4.8 edit_tag HTTP 400).
	ErrNoAccessibleArticles = errors.New("no accessible articles found")

	// ErrUnknownAction means subscription_edit's "ac" value was not one of
	// subscribe/unsubscribe/edit.
	ErrUnknownAction = errors.New("unknown subscription action")

	// ErrInvalidFeed means a new URL-identified feed failed
	// entity.ValidateURL (malformed, non-HTTP(S), or resolving to a
	// private/metadata address — SSRF guard, spec.md §4.8 subscribe/quickadd).
	ErrInvalidFeed = errors.New("invalid feed url")
)
