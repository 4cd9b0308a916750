package streamengine

import (
	"context"
	"time"

	"feedstream/internal/repository"
)

// Engine is the Stream Engine (C8): it holds no state of its own and reads
// everything through the Store's Feed/FeedGroup/Article repositories,
// mirroring how the teacher's usecase services take repositories by
// interface rather than a concrete database handle.
type Engine struct {
	Feeds    repository.FeedRepository
	Groups   repository.FeedGroupRepository
	Articles repository.ArticleRepository
}

func New(feeds repository.FeedRepository, groups repository.FeedGroupRepository, articles repository.ArticleRepository) *Engine {
	return &Engine{Feeds: feeds, Groups: groups, Articles: articles}
}

const defaultPageSize = 20

// StreamParams is the parsed form of stream/items/ids' query parameters
// (spec.md §4.8), also reused by MarkAllAsRead's "s"/"ts" scope resolution.
type StreamParams struct {
	Scope        string   // "s"
	ExcludeTags  []string // "xt", ANDed
	IncludeTags  []string // "it", ANDed
	Limit        int      // "n", default 20
	Reverse      bool     // "r" == "o"
	OlderThan    *int64   // "ot", UNIX seconds
	NewerThan    *int64   // "nt", UNIX seconds
	Continuation string   // "c"
}

// buildFilter resolves a StreamParams into the repository-level
// ArticleFilter, looking up a label scope's FeedGroup by name along the way.
func (e *Engine) buildFilter(ctx context.Context, userID int64, p StreamParams) (repository.ArticleFilter, error) {
	scope, err := ParseScope(p.Scope)
	if err != nil {
		return repository.ArticleFilter{}, err
	}

	filter := repository.ArticleFilter{UserID: userID}

	switch scope.Kind {
	case ScopeFeed:
		filter.FeedIDs = []int64{scope.FeedID}
	case ScopeLabel:
		group, err := e.Groups.GetByName(ctx, userID, scope.Label)
		if err != nil {
			return repository.ArticleFilter{}, err
		}
		filter.GroupID = &group.ID
	case ScopeRead:
		applyTagConstraint(&filter, TagRead, true)
	case ScopeStarred:
		applyTagConstraint(&filter, TagStarred, true)
	case ScopeReadingList:
		// no constraint: every article visible to the user
	}

	for _, xt := range p.ExcludeTags {
		applyTagConstraint(&filter, ParseTag(xt), false)
	}
	for _, it := range p.IncludeTags {
		applyTagConstraint(&filter, ParseTag(it), true)
	}

	if p.OlderThan != nil {
		t := time.Unix(*p.OlderThan, 0).UTC()
		filter.OlderThan = &t
	}
	if p.NewerThan != nil {
		t := time.Unix(*p.NewerThan, 0).UTC()
		filter.NewerThan = &t
	}

	filter.Order = repository.OrderNewestFirst
	if p.Reverse {
		filter.Order = repository.OrderOldestFirst
	}

	filter.Limit = p.Limit
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}

	if date, id, ok := DecodeCursor(p.Continuation); ok {
		filter.CursorDate = date
		filter.CursorID = id
	}

	return filter, nil
}

func applyTagConstraint(filter *repository.ArticleFilter, kind TagKind, value bool) {
	switch kind {
	case TagRead:
		filter.OnlyRead = &value
	case TagStarred:
		filter.OnlyStarred = &value
	}
}

func boolPtr(b bool) *bool { return &b }
