package caschys

import (
	"testing"

	"feedstream/internal/aggregator"
	"feedstream/internal/domain/entity"
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
	if meta.IdentifierEditable {
		t.Error("expected IdentifierEditable false: caschys has a single fixed feed")
	}
}

func TestProcess_SkipsSponsoredPosts(t *testing.T) {
	a := New(nil)
	feed := &entity.Feed{ID: 1}
	entry := aggregator.RawEntry{Title: "Dieses tolle Gadget (Anzeige)", URL: "https://stadt-bremerhaven.de/foo"}

	article, err := a.Process(nil, feed, entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if article != nil {
		t.Errorf("expected nil article for sponsored post, got %+v", article)
	}
}
