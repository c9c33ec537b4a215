// Package fetch implements the plain HTTP transport for mapping pages.
//
// One GET per call, no retries and no caching. Non-2xx responses are
// reported as *StatusError so callers can surface the status code.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hazyhaar/mcmappings/horosafe"
)

// StatusError is returned for any response outside the 2xx range.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d", e.StatusCode)
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// Config configures the fetcher.
type Config struct {
	Timeout   time.Duration `yaml:"timeout"`    // HTTP timeout. Default: 30s.
	MaxBytes  int64         `yaml:"max_bytes"`  // Max response body size. Default: 10MB.
	UserAgent string        `yaml:"user_agent"` // Default: mcmappings/1.0.

	// URLValidator validates URLs before fetch and on every redirect.
	// Default: horosafe.ValidateURL.
	URLValidator func(string) error `yaml:"-"`
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = horosafe.MaxResponseBody
	}
	if c.UserAgent == "" {
		c.UserAgent = "mcmappings/1.0"
	}
	if c.URLValidator == nil {
		c.URLValidator = horosafe.ValidateURL
	}
}

// Fetcher performs HTTP GETs with SSRF protection on redirects.
type Fetcher struct {
	client *http.Client
	config Config
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	validate := cfg.URLValidator
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				if err := validate(req.URL.String()); err != nil {
					return fmt.Errorf("redirect blocked (SSRF): %w", err)
				}
				return nil
			},
		},
		config: cfg,
	}
}

// Fetch retrieves url and returns its body.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.config.URLValidator(url); err != nil {
		return nil, fmt.Errorf("URL blocked (SSRF): %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := horosafe.LimitedReadAll(resp.Body, f.config.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
