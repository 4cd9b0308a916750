// Package browser drives the rendered-fetch path of the HTTP Client (C2):
// a bounded pool of headless browser contexts used when an aggregator's
// content requires JavaScript execution (fullhtml with a WaitForSelector,
// oglaf's age-gate click, tagesschau's lazy-loaded media).
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/sync/semaphore"
)

// Config controls pool sizing and per-page behavior.
type Config struct {
	// MaxConcurrentPages bounds how many browser pages may be open at once.
	MaxConcurrentPages int64
	// NavigationTimeout bounds how long a single page.Goto may take.
	NavigationTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxConcurrentPages: 4,
		NavigationTimeout:  20 * time.Second,
	}
}

// Pool owns a single shared Chromium instance and hands out pages gated by
// a counting semaphore, so a burst of rendered-fetch requests cannot spawn
// unbounded browser processes.
type Pool struct {
	cfg Config
	sem *semaphore.Weighted

	mu  sync.Mutex
	pw  *playwright.Playwright
	br  playwright.Browser
}

func NewPool(cfg Config) *Pool {
	if cfg.MaxConcurrentPages <= 0 {
		cfg.MaxConcurrentPages = 1
	}
	return &Pool{
		cfg: cfg,
		sem: semaphore.NewWeighted(cfg.MaxConcurrentPages),
	}
}

func (p *Pool) ensureBrowser() (playwright.Browser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.br != nil {
		return p.br, nil
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	br, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	p.pw, p.br = pw, br
	return br, nil
}

// RenderResult is the rendered HTML plus the final navigated URL (after any
// client-side redirects), mirroring what the static fetcher returns.
type RenderResult struct {
	HTML     string
	FinalURL string
}

// ClickSelector, when set, is clicked once after navigation completes and
// before HTML is captured — used for cookie banners and age gates.
type FetchOptions struct {
	WaitForSelector string
	ClickSelector   string
}

// Fetch acquires a page from the pool, navigates to urlStr, optionally
// waits for a selector and performs a click, then returns the rendered
// HTML. The semaphore slot and page are always released, including when
// fn panics — release happens in a deferred recover/re-panic so a runaway
// aggregator cannot leak the pool's capacity.
func (p *Pool) Fetch(ctx context.Context, urlStr string, opts FetchOptions) (_ RenderResult, err error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return RenderResult{}, fmt.Errorf("acquire render slot: %w", err)
	}
	defer p.sem.Release(1)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rendered fetch panicked: %v", r)
			panic(r)
		}
	}()

	br, startErr := p.ensureBrowser()
	if startErr != nil {
		return RenderResult{}, startErr
	}

	page, pageErr := br.NewPage()
	if pageErr != nil {
		return RenderResult{}, fmt.Errorf("new page: %w", pageErr)
	}
	defer func() { _ = page.Close() }()

	timeoutMs := float64(p.cfg.NavigationTimeout.Milliseconds())
	if _, navErr := page.Goto(urlStr, playwright.PageGotoOptions{Timeout: &timeoutMs}); navErr != nil {
		return RenderResult{}, fmt.Errorf("goto %s: %w", urlStr, navErr)
	}

	if opts.WaitForSelector != "" {
		if waitErr := page.Locator(opts.WaitForSelector).WaitFor(playwright.LocatorWaitForOptions{Timeout: &timeoutMs}); waitErr != nil {
			return RenderResult{}, fmt.Errorf("wait for selector %q: %w", opts.WaitForSelector, waitErr)
		}
	}
	if opts.ClickSelector != "" {
		if clickErr := page.Locator(opts.ClickSelector).Click(); clickErr != nil {
			return RenderResult{}, fmt.Errorf("click %q: %w", opts.ClickSelector, clickErr)
		}
	}

	html, contentErr := page.Content()
	if contentErr != nil {
		return RenderResult{}, fmt.Errorf("read rendered content: %w", contentErr)
	}

	return RenderResult{HTML: html, FinalURL: page.URL()}, nil
}

// Close shuts down the browser and playwright driver. Safe to call once at
// process shutdown.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	if p.br != nil {
		if err := p.br.Close(); err != nil {
			firstErr = err
		}
		p.br = nil
	}
	if p.pw != nil {
		if err := p.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.pw = nil
	}
	return firstErr
}
