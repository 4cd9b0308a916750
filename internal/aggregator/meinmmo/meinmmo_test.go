package meinmmo

import (
	"strings"
	"testing"

	"feedstream/internal/aggregator"
)

func TestMetadata(t *testing.T) {
	a := New(nil)
	meta := a.Metadata()
	if meta.ID != ID {
		t.Errorf("expected ID %q, got %q", ID, meta.ID)
	}
	if meta.Type != aggregator.TypeManaged {
		t.Errorf("expected managed aggregator type, got %q", meta.Type)
	}
}

func TestConvertEmbedsToLinks_YouTube(t *testing.T) {
	html := `<p>Intro</p><figure><a href="https://www.youtube.com/watch?v=abc123&t=5"><img src="thumb.jpg"></a></figure>`
	out := convertEmbedsToLinks(html)

	if strings.Contains(out, "<figure>") {
		t.Error("expected figure element to be replaced")
	}
	if !strings.Contains(out, `href="https://www.youtube.com/watch?v=abc123&t=5"`) {
		t.Errorf("expected YouTube watch URL with query preserved, got %q", out)
	}
	if !strings.Contains(out, "Watch on YouTube") {
		t.Errorf("expected YouTube link label, got %q", out)
	}
}

func TestConvertEmbedsToLinks_Twitter(t *testing.T) {
	html := `<figure><a href="https://twitter.com/someuser/status/12345?s=20">tweet</a></figure>`
	out := convertEmbedsToLinks(html)

	if !strings.Contains(out, `href="https://twitter.com/someuser/status/12345"`) {
		t.Errorf("expected twitter URL with query stripped, got %q", out)
	}
	if !strings.Contains(out, "View on X/Twitter") {
		t.Errorf("expected twitter link label, got %q", out)
	}
}

func TestConvertEmbedsToLinks_Reddit(t *testing.T) {
	html := `<figure><a href="https://www.reddit.com/r/gaming/comments/abc123/foo/?utm_source=share">post</a></figure>`
	out := convertEmbedsToLinks(html)

	if !strings.Contains(out, `href="https://www.reddit.com/r/gaming/comments/abc123/foo/"`) {
		t.Errorf("expected reddit URL with query stripped, got %q", out)
	}
	if !strings.Contains(out, "View on Reddit") {
		t.Errorf("expected reddit link label, got %q", out)
	}
}

func TestConvertEmbedsToLinks_LeavesUnrelatedFiguresAlone(t *testing.T) {
	html := `<figure><img src="photo.jpg"><figcaption>A photo</figcaption></figure>`
	out := convertEmbedsToLinks(html)

	if !strings.Contains(out, "photo.jpg") {
		t.Errorf("expected unrelated figure to survive unchanged, got %q", out)
	}
}

func TestConvertEmbedsToLinks_InvalidHTMLReturnsInputUnchanged(t *testing.T) {
	html := ""
	if out := convertEmbedsToLinks(html); out != "" {
		t.Errorf("expected empty input to round-trip, got %q", out)
	}
}

func TestCleanEmbedURL(t *testing.T) {
	cases := []struct {
		name           string
		href           string
		keepWatchQuery bool
		want           string
	}{
		{"youtube watch keeps query", "https://www.youtube.com/watch?v=abc123", true, "https://www.youtube.com/watch?v=abc123"},
		{"youtube non-watch strips query", "https://youtu.be/abc123?t=5", true, "https://youtu.be/abc123"},
		{"no query passes through", "https://twitter.com/user/status/1", false, "https://twitter.com/user/status/1"},
		{"query stripped when not keeping", "https://www.reddit.com/r/x/comments/1/y/?utm=z", false, "https://www.reddit.com/r/x/comments/1/y/"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := cleanEmbedURL(c.href, c.keepWatchQuery); got != c.want {
				t.Errorf("cleanEmbedURL(%q, %v) = %q, want %q", c.href, c.keepWatchQuery, got, c.want)
			}
		})
	}
}
