package streamengine

import (
	"context"
	"strconv"
)

// ItemRef is one entry of stream/items/ids' itemRefs array.
type ItemRef struct {
	ID string
}

// StreamItemIDsResult is the full response shape for stream/items/ids.
type StreamItemIDsResult struct {
	ItemRefs     []ItemRef
	Continuation string // empty when there are no further pages
}

// StreamItemIDs implements GET stream/items/ids (spec.md §4.8): resolve the
// stream scope plus read/starred/date constraints to a page of article ids,
// newest-first unless r=o, honoring the opaque continuation cursor.
func (e *Engine) StreamItemIDs(ctx context.Context, userID int64, p StreamParams) (*StreamItemIDsResult, error) {
	filter, err := e.buildFilter(ctx, userID, p)
	if err != nil {
		return nil, err
	}

	ids, nextCursor, err := e.Articles.FindArticles(ctx, filter)
	if err != nil {
		return nil, err
	}

	refs := make([]ItemRef, len(ids))
	for i, id := range ids {
		refs[i] = ItemRef{ID: strconv.FormatInt(id, 10)}
	}

	result := &StreamItemIDsResult{ItemRefs: refs}
	if nextCursor != nil {
		result.Continuation = *nextCursor
	}
	return result, nil
}

// markAllPageSize bounds each FindArticles round inside MarkAllAsRead;
// pages are exhausted via the same cursor mechanism stream/items/ids uses.
const markAllPageSize = 500

// MarkAllAsRead implements POST mark-all-as-read (spec.md §4.8): every
// Article in the resolved stream with Date before ts (if given), owned by
// the user, is marked read in one or more BulkSetState transactions.
func (e *Engine) MarkAllAsRead(ctx context.Context, userID int64, stream string, ts *int64) error {
	filter, err := e.buildFilter(ctx, userID, StreamParams{Scope: stream, Limit: markAllPageSize})
	if err != nil {
		return err
	}
	if ts != nil {
		t := unixToUTC(*ts)
		filter.OlderThan = &t
	}

	for {
		ids, nextCursor, err := e.Articles.FindArticles(ctx, filter)
		if err != nil {
			return err
		}
		if len(ids) > 0 {
			if err := e.Articles.BulkSetState(ctx, userID, ids, articleStateReadPatch()); err != nil {
				return err
			}
		}
		if nextCursor == nil || *nextCursor == "" {
			return nil
		}
		date, id, ok := DecodeCursor(*nextCursor)
		if !ok {
			return nil
		}
		filter.CursorDate = date
		filter.CursorID = id
	}
}
