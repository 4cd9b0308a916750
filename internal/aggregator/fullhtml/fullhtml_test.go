package fullhtml

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"feedstream/internal/aggregator"
	"feedstream/internal/aggregator/base"
	"feedstream/internal/domain/entity"
	"feedstream/internal/infra/httpclient"
)

const sampleListing = `<html><body>
<div class="post">
  <h2 class="title">Post One</h2>
  <a class="link" href="/posts/one">read</a>
  <span class="date">2024-01-02T15:04:05Z</span>
</div>
<div class="post">
  <h2 class="title">Post Two</h2>
  <a class="link" href="https://other.example.com/two">read</a>
</div>
</body></html>`

func optsFeed(identifier string, extra map[string]any) *entity.Feed {
	opts := map[string]any{
		"item_selector":  ".post",
		"title_selector": ".title",
		"url_selector":   ".link",
		"date_selector":  ".date",
	}
	for k, v := range extra {
		opts[k] = v
	}
	return &entity.Feed{Identifier: identifier, Options: opts}
}

func TestFetch_MissingRequiredSelectors(t *testing.T) {
	a := New(base.New(nil, nil, nil))
	feed := &entity.Feed{Identifier: "https://example.com", Options: map[string]any{}}

	_, err := a.Fetch(context.Background(), feed)
	if err == nil {
		t.Fatal("expected an error when required selectors are missing")
	}
}

func TestFetch_ParsesListingWithStaticMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleListing))
	}))
	defer srv.Close()

	cfg := httpclient.DefaultConfig()
	cfg.DenyPrivateIPs = false
	static := httpclient.NewStaticFetcher(cfg)
	a := New(base.New(static, nil, nil))
	feed := optsFeed(srv.URL, map[string]any{"url_prefix": "https://example.com"})

	entries, err := a.Fetch(context.Background(), feed)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Title != "Post One" {
		t.Errorf("expected title %q, got %q", "Post One", entries[0].Title)
	}
	if entries[0].URL != "https://example.com/posts/one" {
		t.Errorf("expected prefixed URL, got %q", entries[0].URL)
	}
	if entries[1].URL != "https://other.example.com/two" {
		t.Errorf("expected absolute URL left untouched, got %q", entries[1].URL)
	}
}

func TestMetadata_RequiredOptions(t *testing.T) {
	a := New(nil)
	meta := a.Metadata()
	for _, key := range []string{"item_selector", "title_selector", "url_selector"} {
		opt, ok := meta.Options[key]
		if !ok {
			t.Fatalf("expected option %q to be declared", key)
		}
		if !opt.Required {
			t.Errorf("expected option %q to be required", key)
		}
	}
}

func TestProcess_StaticModeFetchesEntryPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>full article body</body></html>"))
	}))
	defer srv.Close()

	cfg := httpclient.DefaultConfig()
	cfg.DenyPrivateIPs = false
	static := httpclient.NewStaticFetcher(cfg)
	a := New(base.New(static, nil, nil))
	feed := optsFeed(srv.URL, nil)
	entry := aggregator.RawEntry{Identifier: srv.URL, URL: srv.URL, Title: "a", Content: "fallback"}

	article, err := a.Process(context.Background(), feed, entry)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if article.Name != "a" {
		t.Errorf("expected name %q, got %q", "a", article.Name)
	}
}
