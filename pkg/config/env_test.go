package config

import (
	"testing"
	"time"
)

func TestGetEnvString(t *testing.T) {
	t.Setenv("FS_TEST_STRING", "configured")
	if got := GetEnvString("FS_TEST_STRING", "default"); got != "configured" {
		t.Errorf("expected 'configured', got %q", got)
	}
	if got := GetEnvString("FS_TEST_STRING_UNSET", "default"); got != "default" {
		t.Errorf("expected default, got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("FS_TEST_INT", "42")
	if got := GetEnvInt("FS_TEST_INT", 0); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}

	t.Setenv("FS_TEST_INT_BAD", "not-a-number")
	if got := GetEnvInt("FS_TEST_INT_BAD", 7); got != 7 {
		t.Errorf("expected default 7 for invalid int, got %d", got)
	}

	if got := GetEnvInt("FS_TEST_INT_UNSET", 9); got != 9 {
		t.Errorf("expected default 9 when unset, got %d", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"true", "true", true},
		{"capital True", "True", true},
		{"one", "1", true},
		{"t", "t", true},
		{"false", "false", false},
		{"zero", "0", false},
		{"f", "f", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FS_TEST_BOOL", tt.value)
			if got := GetEnvBool("FS_TEST_BOOL", !tt.want); got != tt.want {
				t.Errorf("GetEnvBool(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}

	t.Setenv("FS_TEST_BOOL_INVALID", "maybe")
	if got := GetEnvBool("FS_TEST_BOOL_INVALID", true); got != true {
		t.Error("expected default to be returned for an invalid boolean value")
	}

	if got := GetEnvBool("FS_TEST_BOOL_UNSET", true); got != true {
		t.Error("expected default when unset")
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("FS_TEST_DURATION", "30s")
	if got := GetEnvDuration("FS_TEST_DURATION", time.Minute); got != 30*time.Second {
		t.Errorf("expected 30s, got %v", got)
	}

	t.Setenv("FS_TEST_DURATION_BAD", "not-a-duration")
	if got := GetEnvDuration("FS_TEST_DURATION_BAD", time.Minute); got != time.Minute {
		t.Errorf("expected default for invalid duration, got %v", got)
	}

	if got := GetEnvDuration("FS_TEST_DURATION_UNSET", 5*time.Second); got != 5*time.Second {
		t.Errorf("expected default when unset, got %v", got)
	}
}

func TestGetEnvStringList(t *testing.T) {
	t.Setenv("FS_TEST_LIST", "10.0.0.0/8, 172.16.0.0/12,192.168.0.0/16")
	got := GetEnvStringList("FS_TEST_LIST", nil)
	want := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %q, want %q", i, got[i], want[i])
		}
	}

	defaults := []string{"fallback"}
	if got := GetEnvStringList("FS_TEST_LIST_UNSET", defaults); got[0] != "fallback" {
		t.Errorf("expected default list when unset, got %v", got)
	}

	t.Setenv("FS_TEST_LIST_ALL_BLANK", "  ,  ,")
	if got := GetEnvStringList("FS_TEST_LIST_ALL_BLANK", defaults); got[0] != "fallback" {
		t.Errorf("expected default list when all entries are blank, got %v", got)
	}
}
