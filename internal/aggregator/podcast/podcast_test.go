package podcast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"feedstream/internal/aggregator"
	"feedstream/internal/aggregator/base"
	"feedstream/internal/domain/entity"
)

const samplePodcastRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
<channel>
  <title>Test Podcast</title>
  <item>
    <title>Episode One</title>
    <link>https://example.com/ep1</link>
    <description>episode summary</description>
    <enclosure url="https://example.com/ep1.mp3" type="audio/mpeg" length="123456"/>
    <itunes:duration>01:02:03</itunes:duration>
    <itunes:image href="https://example.com/art.jpg"/>
    <pubDate>Mon, 02 Jan 2006 15:04:05 +0000</pubDate>
  </item>
  <item>
    <title>No Audio Episode</title>
    <link>https://example.com/ep2</link>
    <description>skip me</description>
  </item>
</channel>
</rss>`

func TestFetch_ParsesEnclosureAndSkipsAudiolessItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(samplePodcastRSS))
	}))
	defer srv.Close()

	a := New(nil)
	feed := &entity.Feed{Identifier: srv.URL}

	entries, err := a.Fetch(context.Background(), feed)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry (the audioless item skipped), got %d", len(entries))
	}
	e := entries[0]
	if e.MediaURL != "https://example.com/ep1.mp3" {
		t.Errorf("expected media URL from enclosure, got %q", e.MediaURL)
	}
	if e.MediaType != "audio/mpeg" {
		t.Errorf("expected media type 'audio/mpeg', got %q", e.MediaType)
	}
	if e.Duration != 3723 {
		t.Errorf("expected duration 3723s (01:02:03), got %d", e.Duration)
	}
	if e.IconURL != "https://example.com/art.jpg" {
		t.Errorf("expected iTunes image as icon, got %q", e.IconURL)
	}
}

func TestParseDurationToSeconds(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		want     int
		wantOK   bool
	}{
		{"plain seconds", "90", 90, true},
		{"mm:ss", "01:30", 90, true},
		{"hh:mm:ss", "01:02:03", 3723, true},
		{"empty", "", 0, false},
		{"garbage", "not-a-duration", 0, false},
		{"too many segments", "1:2:3:4", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseDurationToSeconds(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("parseDurationToSeconds(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("parseDurationToSeconds(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{90, "1:30"},
		{3723, "1:02:03"},
		{45, "0:45"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.seconds); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestPlayerHTML_IncludesDurationWhenPresent(t *testing.T) {
	entry := aggregator.RawEntry{MediaURL: "https://example.com/ep1.mp3", MediaType: "audio/mpeg", Duration: 90}
	html := playerHTML(entry)
	if !strings.Contains(html, "ep1.mp3") {
		t.Error("expected player HTML to reference the media URL")
	}
	if !strings.Contains(html, "1:30") {
		t.Error("expected player HTML to include the formatted duration")
	}
}

func TestPlayerHTML_OmitsDurationWhenZero(t *testing.T) {
	entry := aggregator.RawEntry{MediaURL: "https://example.com/ep1.mp3", MediaType: "audio/mpeg"}
	html := playerHTML(entry)
	if strings.Contains(html, "podcast-duration") {
		t.Error("expected no duration element when duration is zero")
	}
}

func TestProcess_EmbedsPlayerAndPreservesArtwork(t *testing.T) {
	a := New(base.New(nil, nil, nil))
	feed := &entity.Feed{ID: 5}
	entry := aggregator.RawEntry{
		Identifier: "https://example.com/ep1",
		Title:      "Episode One",
		Content:    "episode summary",
		MediaURL:   "https://example.com/ep1.mp3",
		MediaType:  "audio/mpeg",
		Duration:   90,
		IconURL:    "https://example.com/art.jpg",
	}

	article, err := a.Process(context.Background(), feed, entry)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if !strings.Contains(article.Content, "podcast-player") {
		t.Errorf("expected content to embed the player, got %q", article.Content)
	}
	if article.ThumbnailURL != entry.IconURL {
		t.Errorf("expected thumbnail to be preserved from entry icon, got %q", article.ThumbnailURL)
	}
}

func TestMetadata(t *testing.T) {
	a := New(nil)
	meta := a.Metadata()
	if meta.ID != ID {
		t.Errorf("expected ID %q, got %q", ID, meta.ID)
	}
	if meta.IdentifierType != aggregator.IdentifierURL {
		t.Errorf("expected identifier type url, got %q", meta.IdentifierType)
	}
}
