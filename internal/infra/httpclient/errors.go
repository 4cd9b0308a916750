package httpclient

import "errors"

// Sentinel errors for the HTTP Client (C2), grounded on the teacher's
// content_fetcher.go error set.
var (
	ErrInvalidURL       = errors.New("invalid url")
	ErrPrivateIP        = errors.New("url resolves to a private ip")
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrBodyTooLarge     = errors.New("response body too large")
	ErrTimeout          = errors.New("request timed out")

	// ErrContentFetch is raised after retry exhaustion (spec.md §4.2/§7):
	// transient and permanent upstream failures both surface as this once
	// the HTTP Client gives up.
	ErrContentFetch = errors.New("content fetch failed")
)
