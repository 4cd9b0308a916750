// Package streamengine implements the Stream Engine (C8): translating the
// GReader stream/tag query grammar into repository.ArticleFilter reads and
// repository.StatePatch writes. Grounded on original_source's
// core/tests/test_greader_{stream,subscription,tag}.py for exact wire
// semantics — article ids are the database Article.ID stringified, ot/nt
// are UNIX-second windows, it=starred intersects rather than unions.
package streamengine

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	feedPrefix  = "feed/"
	labelPrefix = "user/-/label/"
	statePrefix = "user/-/state/com.google/"
)

// ScopeKind classifies a parsed "s" stream-scope parameter.
type ScopeKind int

const (
	// ScopeReadingList is the default scope: every article visible to the user.
	ScopeReadingList ScopeKind = iota
	ScopeFeed
	ScopeLabel
	ScopeRead
	ScopeStarred
)

// Scope is a parsed stream-scope string (spec.md §4.8).
type Scope struct {
	Kind   ScopeKind
	FeedID int64  // set when Kind == ScopeFeed
	Label  string // set when Kind == ScopeLabel
}

// ParseScope parses the stream-scope grammar: feed/<id>,
// user/-/label/<name>, or user/-/state/com.google/{read,starred,
// reading-list}. An empty string is the default reading-list scope.
func ParseScope(s string) (Scope, error) {
	if s == "" {
		return Scope{Kind: ScopeReadingList}, nil
	}
	switch {
	case strings.HasPrefix(s, feedPrefix):
		id, err := strconv.ParseInt(strings.TrimPrefix(s, feedPrefix), 10, 64)
		if err != nil {
			return Scope{}, fmt.Errorf("invalid feed scope %q: %w", s, err)
		}
		return Scope{Kind: ScopeFeed, FeedID: id}, nil
	case strings.HasPrefix(s, labelPrefix):
		name := strings.TrimPrefix(s, labelPrefix)
		if name == "" {
			return Scope{}, fmt.Errorf("invalid label scope %q", s)
		}
		return Scope{Kind: ScopeLabel, Label: name}, nil
	case strings.HasPrefix(s, statePrefix):
		switch strings.TrimPrefix(s, statePrefix) {
		case "read":
			return Scope{Kind: ScopeRead}, nil
		case "starred":
			return Scope{Kind: ScopeStarred}, nil
		case "reading-list":
			return Scope{Kind: ScopeReadingList}, nil
		default:
			return Scope{}, fmt.Errorf("unknown state scope %q", s)
		}
	default:
		return Scope{}, fmt.Errorf("unrecognized stream scope %q", s)
	}
}

// TagKind distinguishes the read/starred axis behind xt/it/a/r values.
type TagKind int

const (
	TagUnknown TagKind = iota
	TagRead
	TagStarred
)

// ParseTag parses one xt/it/a/r tag value, e.g.
// "user/-/state/com.google/read".
func ParseTag(tag string) TagKind {
	switch strings.TrimPrefix(tag, statePrefix) {
	case "read":
		return TagRead
	case "starred":
		return TagStarred
	default:
		return TagUnknown
	}
}
