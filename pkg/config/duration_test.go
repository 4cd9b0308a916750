package config

import (
	"testing"
	"time"
)

func TestValidatePositiveDuration(t *testing.T) {
	if err := ValidatePositiveDuration(5 * time.Second); err != nil {
		t.Errorf("expected no error for a positive duration, got %v", err)
	}
	if err := ValidatePositiveDuration(0); err == nil {
		t.Error("expected an error for a zero duration")
	}
	if err := ValidatePositiveDuration(-time.Second); err == nil {
		t.Error("expected an error for a negative duration")
	}
}

func TestValidateDurationRange(t *testing.T) {
	if err := ValidateDurationRange(30*time.Second, time.Second, time.Minute); err != nil {
		t.Errorf("expected no error within range, got %v", err)
	}
	if err := ValidateDurationRange(time.Millisecond, time.Second, time.Minute); err == nil {
		t.Error("expected an error below the minimum")
	}
	if err := ValidateDurationRange(time.Hour, time.Second, time.Minute); err == nil {
		t.Error("expected an error above the maximum")
	}
	if err := ValidateDurationRange(30*time.Second, time.Minute, time.Second); err == nil {
		t.Error("expected an error when min exceeds max")
	}
}

func TestValidateNonNegativeDuration(t *testing.T) {
	if err := ValidateNonNegativeDuration(0); err != nil {
		t.Errorf("expected zero to be valid, got %v", err)
	}
	if err := ValidateNonNegativeDuration(time.Second); err != nil {
		t.Errorf("expected a positive duration to be valid, got %v", err)
	}
	if err := ValidateNonNegativeDuration(-time.Second); err == nil {
		t.Error("expected an error for a negative duration")
	}
}
