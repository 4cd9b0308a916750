// Package youtube implements the social aggregator for YouTube channels,
// backed by the official google.golang.org/api/youtube/v3 client instead of
// the teacher's RSS/scraping approach. Grounded on
// original_source/legacy_backend/aggregators/youtube.py, which replaces
// YouTube's RSS feed entirely with channels.list/playlistItems.list/
// videos.list Data API v3 calls.
package youtube

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"feedstream/internal/aggregator"
	"feedstream/internal/aggregator/base"
	"feedstream/internal/domain/entity"

	"google.golang.org/api/option"
	youtubeapi "google.golang.org/api/youtube/v3"
)

const ID = "youtube"

func init() {
	aggregator.Register(ID, func() aggregator.Aggregator { return New(nil) })
}

type Aggregator struct {
	Base *base.Base
}

func New(b *base.Base) *Aggregator { return &Aggregator{Base: b} }

func (a *Aggregator) SetBase(b any) {
	if bb, ok := b.(*base.Base); ok {
		a.Base = bb
	}
}

func (a *Aggregator) Metadata() aggregator.Metadata {
	return aggregator.Metadata{
		ID:                    ID,
		Type:                  aggregator.TypeSocial,
		Name:                  "YouTube Channel",
		Description:           "Videos from a YouTube channel, via the YouTube Data API v3. Requires the YOUTUBE_API_KEY environment variable.",
		ExampleURL:            "https://www.youtube.com/@mkbhd",
		IdentifierType:        aggregator.IdentifierString,
		IdentifierLabel:       "Channel",
		IdentifierDescription: "Channel handle (e.g. @mkbhd), channel ID (UC...), or channel URL.",
		IdentifierPlaceholder: "@mkbhd",
		IdentifierEditable:    true,
	}
}

func newClient(ctx context.Context) (*youtubeapi.Service, error) {
	apiKey := os.Getenv("YOUTUBE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("YOUTUBE_API_KEY is not set")
	}
	return youtubeapi.NewService(ctx, option.WithAPIKey(apiKey))
}

var handleURLPattern = regexp.MustCompile(`youtube\.com/(@[\w-]+)`)

// resolveChannelID turns a handle, channel URL, or channel ID into a
// channel ID, searching via search.list when given a handle, mirroring
// resolve_channel_id's handle-to-ID resolution.
func resolveChannelID(ctx context.Context, svc *youtubeapi.Service, identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)

	if strings.HasPrefix(identifier, "UC") && len(identifier) >= 24 {
		return identifier, nil
	}

	handle := identifier
	if m := handleURLPattern.FindStringSubmatch(identifier); len(m) == 2 {
		handle = m[1]
	}
	if !strings.HasPrefix(handle, "@") {
		return "", fmt.Errorf("could not parse channel identifier %q", identifier)
	}

	resp, err := svc.Search.List([]string{"snippet"}).Q(handle).Type("channel").MaxResults(10).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("resolve channel handle %q: %w", handle, err)
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("channel handle not found: %s", handle)
	}

	normalizedHandle := strings.ToLower(strings.TrimPrefix(handle, "@"))
	for _, item := range resp.Items {
		customURL := strings.ToLower(item.Snippet.CustomUrl)
		customURL = strings.TrimPrefix(customURL, "@")
		customURL = strings.ReplaceAll(customURL, "youtube.com/", "")
		customURL = strings.TrimPrefix(customURL, "/")
		if customURL != "" && customURL == normalizedHandle {
			return item.Id.ChannelId, nil
		}
	}
	for _, item := range resp.Items {
		title := strings.ToLower(item.Snippet.Title)
		if strings.Contains(title, normalizedHandle) {
			return item.Id.ChannelId, nil
		}
	}
	return resp.Items[0].Id.ChannelId, nil
}

func (a *Aggregator) Fetch(ctx context.Context, feed *entity.Feed) ([]aggregator.RawEntry, error) {
	svc, err := newClient(ctx)
	if err != nil {
		return nil, err
	}

	channelID, err := resolveChannelID(ctx, svc, feed.Identifier)
	if err != nil {
		return nil, err
	}

	maxResults := int64(50)
	if feed.DailyLimit > 0 && feed.DailyLimit > 10 {
		maxResults = int64(feed.DailyLimit)
	}

	channelsResp, err := svc.Channels.List([]string{"contentDetails"}).Id(channelID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get channel %s: %w", channelID, err)
	}
	if len(channelsResp.Items) == 0 {
		return nil, fmt.Errorf("channel not found: %s", channelID)
	}
	uploadsPlaylistID := channelsResp.Items[0].ContentDetails.RelatedPlaylists.Uploads
	if uploadsPlaylistID == "" {
		return nil, fmt.Errorf("channel %s has no uploads playlist", channelID)
	}

	videoIDs, err := a.collectUploadedVideoIDs(ctx, svc, uploadsPlaylistID, maxResults)
	if err != nil {
		return nil, err
	}
	if len(videoIDs) == 0 {
		return nil, nil
	}

	videosResp, err := svc.Videos.List([]string{"snippet"}).Id(strings.Join(videoIDs, ",")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get video details: %w", err)
	}

	entries := make([]aggregator.RawEntry, 0, len(videosResp.Items))
	for _, v := range videosResp.Items {
		entries = append(entries, videoToEntry(v))
	}
	return entries, nil
}

func (a *Aggregator) collectUploadedVideoIDs(ctx context.Context, svc *youtubeapi.Service, playlistID string, maxResults int64) ([]string, error) {
	var videoIDs []string
	pageToken := ""
	for int64(len(videoIDs)) < maxResults {
		call := svc.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(min64(50, maxResults-int64(len(videoIDs)))).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list uploads playlist %s: %w", playlistID, err)
		}
		for _, item := range resp.Items {
			videoIDs = append(videoIDs, item.ContentDetails.VideoId)
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return videoIDs, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func videoToEntry(v *youtubeapi.Video) aggregator.RawEntry {
	videoURL := "https://www.youtube.com/watch?v=" + v.Id
	published := ""
	if v.Snippet != nil && v.Snippet.PublishedAt != "" {
		if t, err := time.Parse(time.RFC3339, v.Snippet.PublishedAt); err == nil {
			published = t.Format(time.RFC3339)
		}
	}

	thumbnail := ""
	if v.Snippet != nil && v.Snippet.Thumbnails != nil {
		t := v.Snippet.Thumbnails
		switch {
		case t.Maxres != nil:
			thumbnail = t.Maxres.Url
		case t.Standard != nil:
			thumbnail = t.Standard.Url
		case t.High != nil:
			thumbnail = t.High.Url
		case t.Medium != nil:
			thumbnail = t.Medium.Url
		case t.Default != nil:
			thumbnail = t.Default.Url
		}
	}

	title, description := "Untitled", ""
	if v.Snippet != nil {
		if v.Snippet.Title != "" {
			title = v.Snippet.Title
		}
		description = v.Snippet.Description
	}

	return aggregator.RawEntry{
		Identifier: v.Id,
		URL:        videoURL,
		Title:      title,
		Date:       published,
		Content:    description,
		MediaURL:   videoURL,
		MediaType:  "video/youtube",
		IconURL:    thumbnail,
	}
}

// Process embeds the video player instead of fetching a page: there is no
// article HTML to extract, only the video description as body copy.
func (a *Aggregator) Process(ctx context.Context, feed *entity.Feed, entry aggregator.RawEntry) (*entity.Article, error) {
	date := time.Now()
	if entry.Date != "" {
		if parsed, err := time.Parse(time.RFC3339, entry.Date); err == nil {
			date = parsed
		}
	}

	embedded := entry
	embedded.Content = embedPlayerHTML(entry) + "<p>" + entry.Content + "</p>"

	stage := base.StageConfig{FetchMode: base.ModeNone}
	article, err := a.Base.ProcessEntry(ctx, feed, embedded, date, false, stage)
	if err != nil {
		return nil, err
	}
	if entry.IconURL != "" {
		article.IconURL = entry.IconURL
		article.ThumbnailURL = entry.IconURL
	}
	return article, nil
}

func embedPlayerHTML(entry aggregator.RawEntry) string {
	return fmt.Sprintf(
		`<iframe width="560" height="315" src="https://www.youtube.com/embed/%s" frameborder="0" allowfullscreen></iframe>`,
		entry.Identifier,
	)
}

var (
	_ aggregator.Aggregator     = (*Aggregator)(nil)
	_ aggregator.BaseInjectable = (*Aggregator)(nil)
)
