package streamengine

import (
	"context"
	"time"

	"feedstream/internal/repository"
)

// Tag is one entry of tag/list's tags array.
type Tag struct {
	ID string
}

// TagListResult is the full response shape for tag/list.
type TagListResult struct {
	Tags []Tag
}

// TagList implements GET tag/list (spec.md §4.8): the three built-in state
// tags plus one user/-/label/<name> per FeedGroup the user owns.
func (e *Engine) TagList(ctx context.Context, userID int64) (*TagListResult, error) {
	groups, err := e.Groups.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	tags := []Tag{
		{ID: statePrefix + "starred"},
		{ID: statePrefix + "read"},
		{ID: statePrefix + "reading-list"},
	}
	for _, g := range groups {
		tags = append(tags, Tag{ID: labelPrefix + g.Name})
	}
	return &TagListResult{Tags: tags}, nil
}

// EditTag implements POST edit-tag (spec.md §4.8): mutate read/starred
// state for every requested article id that is visible to the user, in a
// single BulkSetState transaction. Ids that don't resolve to a visible
// article are silently dropped; if none remain, ErrNoAccessibleArticles is
// returned instead of mutating anything.
func (e *Engine) EditTag(ctx context.Context, userID int64, articleIDs []int64, add, remove string) error {
	visible, err := e.Articles.VisibleToUser(ctx, userID, articleIDs)
	if err != nil {
		return err
	}

	accessible := make([]int64, 0, len(articleIDs))
	for _, id := range articleIDs {
		if visible[id] {
			accessible = append(accessible, id)
		}
	}
	if len(accessible) == 0 {
		return ErrNoAccessibleArticles
	}

	return e.Articles.BulkSetState(ctx, userID, accessible, statePatchFromTags(add, remove))
}

func statePatchFromTags(add, remove string) repository.StatePatch {
	var patch repository.StatePatch
	if add != "" {
		switch ParseTag(add) {
		case TagRead:
			patch.IsRead = boolPtr(true)
		case TagStarred:
			patch.IsSaved = boolPtr(true)
		}
	}
	if remove != "" {
		switch ParseTag(remove) {
		case TagRead:
			patch.IsRead = boolPtr(false)
		case TagStarred:
			patch.IsSaved = boolPtr(false)
		}
	}
	return patch
}

func articleStateReadPatch() repository.StatePatch {
	return repository.StatePatch{IsRead: boolPtr(true)}
}

func unixToUTC(seconds int64) time.Time {
	return time.Unix(seconds, 0).UTC()
}
