package browser

import (
	"context"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxConcurrentPages <= 0 {
		t.Error("expected a positive default MaxConcurrentPages")
	}
	if cfg.NavigationTimeout <= 0 {
		t.Error("expected a positive default NavigationTimeout")
	}
}

func TestNewPool_ClampsNonPositiveMaxConcurrentPages(t *testing.T) {
	p := NewPool(Config{MaxConcurrentPages: 0})
	if !p.sem.TryAcquire(1) {
		t.Fatal("expected at least one slot after clamping to 1")
	}
	if p.sem.TryAcquire(1) {
		t.Error("expected no second slot: MaxConcurrentPages should have been clamped to 1")
	}
}

func TestNewPool_RespectsConfiguredCapacity(t *testing.T) {
	p := NewPool(Config{MaxConcurrentPages: 2})
	if !p.sem.TryAcquire(2) {
		t.Fatal("expected two slots to be available")
	}
	if p.sem.TryAcquire(1) {
		t.Error("expected no third slot")
	}
}

func TestFetch_ContextCanceledBeforeAcquire(t *testing.T) {
	p := NewPool(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Fetch(ctx, "https://example.com", FetchOptions{})
	if err == nil {
		t.Fatal("expected an error for an already-canceled context")
	}
	if !strings.Contains(err.Error(), "acquire render slot") {
		t.Errorf("expected semaphore-acquire error, got %v", err)
	}
}

func TestClose_NoOpWhenNeverStarted(t *testing.T) {
	p := NewPool(DefaultConfig())
	if err := p.Close(); err != nil {
		t.Errorf("expected Close on a never-started pool to be a no-op, got %v", err)
	}
}
