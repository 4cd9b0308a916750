package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testConfig() ContentFetchConfig {
	cfg := DefaultConfig()
	// The test server is on loopback; disable the SSRF check so these
	// tests can exercise the fetch path itself rather than validateURL.
	cfg.DenyPrivateIPs = false
	return cfg
}

func TestStaticFetcher_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	f := NewStaticFetcher(testConfig())
	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if !strings.Contains(string(body), "hello") {
		t.Errorf("expected body to contain %q, got %q", "hello", string(body))
	}
}

func TestStaticFetcher_Fetch_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewStaticFetcher(testConfig())
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
	if !errors.Is(err, ErrContentFetch) {
		t.Errorf("expected error to wrap ErrContentFetch, got %v", err)
	}
}

func TestStaticFetcher_Fetch_BodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxBodySize = 1024
	f := NewStaticFetcher(cfg)

	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for oversized body")
	}
}

func TestStaticFetcher_Fetch_InvalidURL(t *testing.T) {
	f := NewStaticFetcher(testConfig())
	_, err := f.Fetch(context.Background(), "ftp://example.com/file")
	if err == nil {
		t.Fatal("expected error for a non-http(s) scheme")
	}
	if !errors.Is(err, ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got %v", err)
	}
}

func TestStaticFetcher_Fetch_DeniesPrivateIP(t *testing.T) {
	f := NewStaticFetcher(DefaultConfig()) // DenyPrivateIPs: true
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/internal")
	if err == nil {
		t.Fatal("expected error for a URL resolving to a private/loopback IP")
	}
	if !errors.Is(err, ErrPrivateIP) {
		t.Errorf("expected ErrPrivateIP, got %v", err)
	}
}
