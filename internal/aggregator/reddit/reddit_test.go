package reddit

import (
	"context"
	"testing"

	"feedstream/internal/aggregator"
	"feedstream/internal/aggregator/base"
	"feedstream/internal/domain/entity"
)

func TestNormalizeSubreddit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare name", "golang", "golang"},
		{"r-prefixed", "r/golang", "golang"},
		{"leading slash", "/r/golang", "golang"},
		{"full url", "https://reddit.com/r/golang", "golang"},
		{"full url with trailing slash", "https://www.reddit.com/r/golang/", "golang"},
		{"whitespace padded", "  golang  ", "golang"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeSubreddit(tt.in); got != tt.want {
				t.Errorf("NormalizeSubreddit(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateSubreddit(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		wantOK bool
	}{
		{"empty", "", false},
		{"valid", "golang", true},
		{"valid with prefix", "r/golang", true},
		{"too short", "a", false},
		{"invalid characters", "golang!", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := ValidateSubreddit(tt.in)
			if ok != tt.wantOK {
				t.Errorf("ValidateSubreddit(%q) ok = %v, want %v (reason: %q)", tt.in, ok, tt.wantOK, reason)
			}
			if !ok && reason == "" {
				t.Error("expected a non-empty reason when validation fails")
			}
		})
	}
}

func TestMetadata(t *testing.T) {
	a := New(nil)
	meta := a.Metadata()
	if meta.ID != ID {
		t.Errorf("expected ID %q, got %q", ID, meta.ID)
	}
	if meta.IdentifierType != aggregator.IdentifierString {
		t.Errorf("expected identifier type string, got %q", meta.IdentifierType)
	}
	sortBy, ok := meta.Options["sort_by"]
	if !ok {
		t.Fatal("expected sort_by option to be declared")
	}
	if sortBy.Default != "hot" {
		t.Errorf("expected default sort 'hot', got %v", sortBy.Default)
	}
}

func TestProcess_ConvertsMarkdownBody(t *testing.T) {
	a := New(base.New(nil, nil, nil))
	feed := &entity.Feed{ID: 9}
	entry := aggregator.RawEntry{
		Identifier: "t3_abc123",
		Title:      "Hello",
		Content:    "**bold** text",
	}

	article, err := a.Process(context.Background(), feed, entry)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if article.Content == "" {
		t.Error("expected non-empty rendered content")
	}
	if article.RawContent != "**bold** text" {
		t.Errorf("expected RawContent to preserve the original markdown, got %q", article.RawContent)
	}
}

func TestProcess_FallsBackToRawContentOnMarkdownFailure(t *testing.T) {
	a := New(base.New(nil, nil, nil))
	feed := &entity.Feed{ID: 1}
	entry := aggregator.RawEntry{Identifier: "t3_xyz", Title: "Link post", Content: ""}

	article, err := a.Process(context.Background(), feed, entry)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if article.Name != "Link post" {
		t.Errorf("expected name %q, got %q", "Link post", article.Name)
	}
}
