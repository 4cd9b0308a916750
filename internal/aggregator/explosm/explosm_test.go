package explosm

import (
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
	if meta.ExampleURL != feedURL {
		t.Errorf("expected example url %q, got %q", feedURL, meta.ExampleURL)
	}
}
