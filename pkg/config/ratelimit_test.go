package config

import (
	"testing"
	"time"

	"feedstream/pkg/ratelimit"
)

func TestLoadRateLimitConfig_Defaults(t *testing.T) {
	cfg, err := LoadRateLimitConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Enabled {
		t.Error("expected rate limiting enabled by default")
	}
	if cfg.DefaultIPLimit != 100 {
		t.Errorf("expected default IP limit 100, got %d", cfg.DefaultIPLimit)
	}
	if cfg.DefaultIPWindow != time.Minute {
		t.Errorf("expected default IP window 1m, got %v", cfg.DefaultIPWindow)
	}
	if cfg.DefaultUserLimit != 1000 {
		t.Errorf("expected default user limit 1000, got %d", cfg.DefaultUserLimit)
	}
	if len(cfg.TierLimits) != 4 {
		t.Fatalf("expected 4 tier limits, got %d", len(cfg.TierLimits))
	}
}

func TestLoadRateLimitConfig_Overrides(t *testing.T) {
	t.Setenv("RATELIMIT_IP_LIMIT", "250")
	t.Setenv("RATELIMIT_IP_WINDOW", "2m")
	t.Setenv("RATELIMIT_TIER_ADMIN", "20000")

	cfg, err := LoadRateLimitConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultIPLimit != 250 {
		t.Errorf("expected overridden IP limit 250, got %d", cfg.DefaultIPLimit)
	}
	if cfg.DefaultIPWindow != 2*time.Minute {
		t.Errorf("expected overridden IP window 2m, got %v", cfg.DefaultIPWindow)
	}

	var adminLimit int
	for _, tl := range cfg.TierLimits {
		if tl.Tier == ratelimit.TierAdmin {
			adminLimit = tl.Limit
		}
	}
	if adminLimit != 20000 {
		t.Errorf("expected overridden admin tier limit 20000, got %d", adminLimit)
	}
}

func TestLoadRateLimitConfig_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("RATELIMIT_IP_LIMIT", "-5")
	t.Setenv("RATELIMIT_IP_WINDOW", "0s")

	cfg, err := LoadRateLimitConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultIPLimit != 100 {
		t.Errorf("expected fallback to default IP limit 100, got %d", cfg.DefaultIPLimit)
	}
	if cfg.DefaultIPWindow != time.Minute {
		t.Errorf("expected fallback to default IP window 1m, got %v", cfg.DefaultIPWindow)
	}
}

func TestLoadCSPConfig_Defaults(t *testing.T) {
	cfg, err := LoadCSPConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Enabled {
		t.Error("expected CSP enabled by default")
	}
	if cfg.ReportOnly {
		t.Error("expected report-only disabled by default")
	}
}

func TestLoadCSPConfig_Overrides(t *testing.T) {
	t.Setenv("CSP_ENABLED", "false")
	t.Setenv("CSP_REPORT_ONLY", "true")

	cfg, err := LoadCSPConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Enabled {
		t.Error("expected CSP disabled via env override")
	}
	if !cfg.ReportOnly {
		t.Error("expected report-only enabled via env override")
	}
}

func TestValidateTrustedProxies(t *testing.T) {
	if err := ValidateTrustedProxies([]string{"10.0.0.0/8", "172.16.0.0/12"}); err != nil {
		t.Errorf("expected no error for non-empty CIDRs, got %v", err)
	}
	if err := ValidateTrustedProxies([]string{"10.0.0.0/8", ""}); err == nil {
		t.Error("expected an error for an empty CIDR entry")
	}
	if err := ValidateTrustedProxies(nil); err != nil {
		t.Errorf("expected no error for an empty list, got %v", err)
	}
}
