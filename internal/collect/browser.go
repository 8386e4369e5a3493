// Package collect drives a Chromium instance over the mbasic Facebook pages
// and extracts upcoming events from them.
package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a single page operation (navigate, wait, extract).
const DefaultTimeout = 30 * time.Second

// consentSettle gives the page time to reload after the consent form is
// submitted.
const consentSettle = time.Second

// Options defines parameters for a scraping browser session.
type Options struct {
	// Headless runs the browser without a visible window.
	Headless bool

	// ExecPath points at the browser binary. Empty uses chromedp's own
	// lookup of locally installed browsers.
	ExecPath string

	// UserAgent overrides the browser's user agent. Empty keeps the
	// browser default.
	UserAgent string

	// Timeout bounds each page operation. Zero means DefaultTimeout.
	Timeout time.Duration

	// Logger receives scrape progress. The zero value discards it.
	Logger zerolog.Logger
}

// Browser is a running Chromium session. One session is reused for all pages
// of a run; Close releases the browser process.
type Browser struct {
	ctx     context.Context
	cancels []context.CancelFunc
	timeout time.Duration
	log     zerolog.Logger
}

// Start launches the browser. Page scripting is disabled: the mbasic pages
// are plain HTML and scripts only destabilize scraping.
func Start(parent context.Context, opts Options) (*Browser, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("blink-settings", "scriptEnabled=false"),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	b := &Browser{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{cancelBrowser, cancelAlloc},
		timeout: opts.Timeout,
		log:     opts.Logger,
	}

	// Run with no tasks forces the browser process to start now, so a
	// broken installation fails here and not on the first page.
	if err := chromedp.Run(browserCtx); err != nil {
		b.Close()
		return nil, fmt.Errorf("collect: start browser: %w", err)
	}
	return b, nil
}

// Close shuts the browser down and releases its process.
func (b *Browser) Close() {
	for _, cancel := range b.cancels {
		cancel()
	}
}

type cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
}

// LoadCookies installs session cookies from a JSON file, a list of objects
// with name, value and optional domain and path. The Facebook session cookies
// (c_user, xs) are what make event pages readable without a login redirect.
func (b *Browser) LoadCookies(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("collect: read cookies: %w", err)
	}
	var cookies []cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return fmt.Errorf("collect: parse cookies %s: %w", path, err)
	}

	err = chromedp.Run(b.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			if c.Name == "" {
				return fmt.Errorf("cookie without a name")
			}
			domain := c.Domain
			if domain == "" {
				domain = ".facebook.com"
			}
			cookiePath := c.Path
			if cookiePath == "" {
				cookiePath = "/"
			}
			err := network.SetCookie(c.Name, c.Value).
				WithDomain(domain).
				WithPath(cookiePath).
				WithSecure(true).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("set cookie %s: %w", c.Name, err)
			}
		}
		return nil
	}))
	if err != nil {
		return fmt.Errorf("collect: load cookies: %w", err)
	}
	b.log.Debug().Int("cookies", len(cookies)).Msg("session cookies installed")
	return nil
}

// page returns a context bounding one page operation.
func (b *Browser) page() (context.Context, context.CancelFunc) {
	return context.WithTimeout(b.ctx, b.timeout)
}
