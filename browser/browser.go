// Package browser fetches class pages through a headless Chrome driven by
// Rod, for deployments of the mapping site that build their tables
// client-side. It satisfies mappings.Fetcher:
//
//	f := browser.New(browser.Config{})
//	defer f.Close()
//	ex, err := mappings.New("1.20.1", scheme.Mojang, mappings.WithFetcher(f))
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/mcmappings/horosafe"
)

// ErrClosed is returned by Fetch after Close.
var ErrClosed = errors.New("browser: fetcher is closed")

// StatusError reports a document response outside 2xx. It exposes the code
// through HTTPStatus so it ends up in mappings.FetchError.StatusCode.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("browser: %s: http %d", e.URL, e.StatusCode)
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// Config configures the browser fetcher.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local headless Chrome.
	RemoteURL string `yaml:"remote_url"`

	// NavTimeout bounds navigation plus load per page. Default: 30s.
	NavTimeout time.Duration `yaml:"nav_timeout"`

	// Stealth applies go-rod/stealth evasions to every tab. Default: true.
	Stealth *bool `yaml:"stealth"`

	// BlockResources lists resource types never loaded (images, fonts,
	// media, stylesheets). Default: all four.
	BlockResources []string `yaml:"block_resources"`

	// MaxBytes caps the serialised document. Default: horosafe.MaxResponseBody.
	MaxBytes int64 `yaml:"max_bytes"`

	Logger *slog.Logger `yaml:"-"`

	// URLValidator is checked before every navigation. Default: horosafe.ValidateURL.
	URLValidator func(string) error `yaml:"-"`
}

func (c *Config) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.Stealth == nil {
		on := true
		c.Stealth = &on
	}
	if c.BlockResources == nil {
		c.BlockResources = []string{"images", "fonts", "media", "stylesheets"}
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = horosafe.MaxResponseBody
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.URLValidator == nil {
		c.URLValidator = horosafe.ValidateURL
	}
}

// Fetcher renders pages in Chrome and returns their outer HTML. Chrome is
// started on first use and shared by concurrent Fetch calls, one tab each.
type Fetcher struct {
	cfg Config

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// New creates a Fetcher. Chrome is not launched until the first Fetch.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	return &Fetcher{cfg: cfg}
}

// Fetch navigates to url in a fresh tab and returns the rendered document.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.cfg.URLValidator(url); err != nil {
		return nil, err
	}
	b, err := f.connect()
	if err != nil {
		return nil, err
	}

	var page *rod.Page
	if *f.cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	defer page.Close()

	var router *rod.HijackRouter
	if len(f.cfg.BlockResources) > 0 {
		router = blockResources(page, f.cfg.BlockResources)
		defer router.Stop()
	}

	navCtx, cancel := context.WithTimeout(ctx, f.cfg.NavTimeout)
	defer cancel()
	p := page.Context(navCtx)

	if err := p.Navigate(url); err != nil {
		return nil, fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("browser: wait load %s: %w", url, err)
	}

	if code := documentStatus(p); code != 0 && (code < 200 || code > 299) {
		return nil, &StatusError{URL: url, StatusCode: code}
	}

	res, err := p.Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return nil, fmt.Errorf("browser: get DOM: %w", err)
	}
	doc := res.Value.Str()
	if int64(len(doc)) > f.cfg.MaxBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", horosafe.ErrResponseTooLarge, f.cfg.MaxBytes)
	}
	return []byte(doc), nil
}

// documentStatus reads the navigation response status from the Navigation
// Timing API. Zero means unknown (older Chrome).
func documentStatus(p *rod.Page) int {
	res, err := p.Eval(`() => {
		const nav = performance.getEntriesByType("navigation")[0];
		return nav && nav.responseStatus ? nav.responseStatus : 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

func (f *Fetcher) connect() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}
	if f.browser != nil {
		return f.browser, nil
	}

	log := f.cfg.Logger
	wsURL := f.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		f.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL)
	} else {
		log.Info("browser: connecting to remote", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if f.lnch != nil {
			f.lnch.Kill()
			f.lnch = nil
		}
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	f.browser = b
	return b, nil
}

// Close shuts Chrome down. Fetch fails with ErrClosed afterwards.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	var err error
	if f.browser != nil {
		err = f.browser.Close()
		f.browser = nil
	}
	if f.lnch != nil {
		f.lnch.Kill()
		f.lnch = nil
	}
	return err
}

// blockResources fails requests for the listed resource types. The page's
// own document and scripts still load.
func blockResources(page *rod.Page, types []string) *rod.HijackRouter {
	blockSet := make(map[string]bool, len(types))
	for _, t := range types {
		blockSet[strings.ToLower(t)] = true
	}
	router := page.HijackRequests()
	router.MustAdd("*", func(ctx *rod.Hijack) {
		if shouldBlock(blockSet, string(ctx.Request.Type())) {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return router
}

func shouldBlock(blockSet map[string]bool, resType string) bool {
	switch strings.ToLower(resType) {
	case "image":
		return blockSet["images"]
	case "font":
		return blockSet["fonts"]
	case "media":
		return blockSet["media"]
	case "stylesheet":
		return blockSet["stylesheets"]
	}
	return false
}
