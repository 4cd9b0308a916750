package streamengine

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"feedstream/internal/aggregator/genericrss"
	"feedstream/internal/aggregator/reddit"
	"feedstream/internal/domain/entity"
)

// Category is one entry of a Subscription's categories array, backing both
// FeedGroup labels and the synthetic per-aggregator categories (Reddit,
// YouTube).
type Category struct {
	ID    string
	Label string
}

// Subscription is one entry of subscription/list's subscriptions array.
type Subscription struct {
	ID         string
	Title      string
	URL        string
	HTMLURL    string
	IconURL    string
	Categories []Category
}

// SubscriptionListResult is the full response shape for subscription/list.
type SubscriptionListResult struct {
	Subscriptions []Subscription
}

// SubscriptionList implements GET subscription/list (spec.md §4.8).
func (e *Engine) SubscriptionList(ctx context.Context, userID int64) (*SubscriptionListResult, error) {
	feeds, err := e.Feeds.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	groupNames := map[int64]string{}
	result := &SubscriptionListResult{Subscriptions: make([]Subscription, 0, len(feeds))}

	for _, f := range feeds {
		feedURL, htmlURL := deriveFeedURLs(f)
		sub := Subscription{
			ID:      fmt.Sprintf("feed/%d", f.ID),
			Title:   f.Name,
			URL:     feedURL,
			HTMLURL: htmlURL,
			IconURL: f.Icon,
		}

		if f.GroupID != nil {
			name, ok := groupNames[*f.GroupID]
			if !ok {
				if g, err := e.Groups.Get(ctx, *f.GroupID); err == nil && g != nil {
					name = g.Name
					groupNames[*f.GroupID] = name
				}
			}
			if name != "" {
				sub.Categories = append(sub.Categories, Category{ID: labelPrefix + name, Label: name})
			}
		}

		if cat := syntheticCategory(f.AggregatorID); cat != "" {
			sub.Categories = append(sub.Categories, Category{ID: labelPrefix + cat, Label: cat})
		}

		result.Subscriptions = append(result.Subscriptions, sub)
	}
	return result, nil
}

// syntheticCategory adds a client-visible grouping for aggregator types
// whose identifier isn't itself a browsable URL (spec.md §4.8).
func syntheticCategory(aggregatorID string) string {
	switch aggregatorID {
	case reddit.ID:
		return "Reddit"
	case "youtube":
		return "YouTube"
	default:
		return ""
	}
}

func deriveFeedURLs(f *entity.Feed) (feedURL, htmlURL string) {
	switch f.AggregatorID {
	case reddit.ID:
		name := reddit.NormalizeSubreddit(f.Identifier)
		return "https://www.reddit.com/r/" + name, "https://reddit.com/r/" + name
	case "youtube":
		return "https://www.youtube.com/channel/" + f.Identifier, "https://www.youtube.com/channel/" + f.Identifier
	default:
		return f.Identifier, deriveHTMLURL(f.Identifier)
	}
}

// deriveHTMLURL reduces a feed's RSS/Atom URL to its site root, used as
// subscription/list's htmlUrl when the aggregator doesn't supply one.
func deriveHTMLURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}

// SubscriptionEditParams is the parsed form of subscription/edit's POST body.
type SubscriptionEditParams struct {
	Stream      string // "s"
	Action      string // "ac": subscribe, unsubscribe, edit
	Title       string // "t"
	AddLabel    string // "a"
	RemoveLabel string // "r"
}

// SubscriptionEdit implements POST subscription/edit (spec.md §4.8).
func (e *Engine) SubscriptionEdit(ctx context.Context, userID int64, p SubscriptionEditParams) error {
	switch p.Action {
	case "subscribe":
		return e.subscribe(ctx, userID, p)
	case "unsubscribe":
		return e.setEnabled(ctx, userID, p.Stream, false)
	case "edit":
		return e.edit(ctx, userID, p)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, p.Action)
	}
}

func (e *Engine) subscribe(ctx context.Context, userID int64, p SubscriptionEditParams) error {
	ref := strings.TrimPrefix(p.Stream, feedPrefix)

	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		feed, ferr := e.resolveOwnedFeed(ctx, userID, id)
		if ferr != nil {
			return ferr
		}
		return e.Feeds.SetEnabled(ctx, feed.ID, true)
	}

	if existing, err := e.Feeds.GetByIdentifier(ctx, userID, genericrss.ID, ref); err == nil && existing != nil {
		return e.Feeds.SetEnabled(ctx, existing.ID, true)
	}

	if err := entity.ValidateURL(ref); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFeed, err)
	}

	name := p.Title
	if name == "" {
		name = ref
	}
	return e.Feeds.Create(ctx, &entity.Feed{
		UserID:       &userID,
		Name:         name,
		AggregatorID: genericrss.ID,
		Identifier:   ref,
		Enabled:      true,
	})
}

func (e *Engine) setEnabled(ctx context.Context, userID int64, stream string, enabled bool) error {
	feed, err := e.resolveOwnedFeedFromScope(ctx, userID, stream)
	if err != nil {
		return err
	}
	return e.Feeds.SetEnabled(ctx, feed.ID, enabled)
}

func (e *Engine) edit(ctx context.Context, userID int64, p SubscriptionEditParams) error {
	feed, err := e.resolveOwnedFeedFromScope(ctx, userID, p.Stream)
	if err != nil {
		return err
	}

	if p.Title != "" {
		feed.Name = p.Title
	}
	if p.AddLabel != "" {
		name := strings.TrimPrefix(p.AddLabel, labelPrefix)
		group, gerr := e.Groups.GetOrCreate(ctx, userID, name)
		if gerr != nil {
			return gerr
		}
		feed.GroupID = &group.ID
	}
	if p.RemoveLabel != "" {
		name := strings.TrimPrefix(p.RemoveLabel, labelPrefix)
		if feed.GroupID != nil {
			if group, gerr := e.Groups.Get(ctx, *feed.GroupID); gerr == nil && group != nil && group.Name == name {
				feed.GroupID = nil
			}
		}
	}

	return e.Feeds.Update(ctx, feed)
}

// resolveOwnedFeedFromScope parses a "feed/<id>" scope and checks
// ownership, distinguishing "no such feed" (400) from "not yours" (403).
func (e *Engine) resolveOwnedFeedFromScope(ctx context.Context, userID int64, stream string) (*entity.Feed, error) {
	ref := strings.TrimPrefix(stream, feedPrefix)
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrFeedNotFound, stream)
	}
	return e.resolveOwnedFeed(ctx, userID, id)
}

func (e *Engine) resolveOwnedFeed(ctx context.Context, userID, id int64) (*entity.Feed, error) {
	feed, err := e.Feeds.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrFeedNotFound, id)
	}
	if feed.UserID == nil || *feed.UserID != userID {
		return nil, ErrForbidden
	}
	return feed, nil
}

// QuickAddResult is the full response shape for subscription/quickadd.
type QuickAddResult struct {
	NumResults int
	Query      string
	StreamID   string
	StreamName string
}

// QuickAdd implements POST subscription/quickadd (spec.md §4.8).
func (e *Engine) QuickAdd(ctx context.Context, userID int64, quickadd string) (*QuickAddResult, error) {
	ref := strings.TrimPrefix(quickadd, feedPrefix)

	feed, err := e.Feeds.GetByIdentifier(ctx, userID, genericrss.ID, ref)
	if err != nil || feed == nil {
		if verr := entity.ValidateURL(ref); verr != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFeed, verr)
		}
		feed = &entity.Feed{
			UserID:       &userID,
			Name:         ref,
			AggregatorID: genericrss.ID,
			Identifier:   ref,
			Enabled:      true,
		}
		if cerr := e.Feeds.Create(ctx, feed); cerr != nil {
			return nil, cerr
		}
	} else if !feed.Enabled {
		if serr := e.Feeds.SetEnabled(ctx, feed.ID, true); serr != nil {
			return nil, serr
		}
	}

	return &QuickAddResult{
		NumResults: 1,
		Query:      quickadd,
		StreamID:   fmt.Sprintf("feed/%d", feed.ID),
		StreamName: feed.Name,
	}, nil
}
