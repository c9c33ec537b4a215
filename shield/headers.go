package shield

import "net/http"

// HeaderConfig defines the headers applied to every response.
type HeaderConfig struct {
	CSP                 string
	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	CacheControl        string
}

// DefaultHeaders returns the header set for a JSON-only API. Responses are
// never cached: every lookup re-fetches the page.
func DefaultHeaders() HeaderConfig {
	return HeaderConfig{
		CSP:                 "default-src 'none'; frame-ancestors 'none'",
		XFrameOptions:       "DENY",
		XContentTypeOptions: "nosniff",
		ReferrerPolicy:      "no-referrer",
		CacheControl:        "no-store",
	}
}

// SecurityHeaders returns middleware that sets the configured headers on
// every response. Empty fields are skipped.
func SecurityHeaders(cfg HeaderConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for name, v := range map[string]string{
				"X-Content-Type-Options":  cfg.XContentTypeOptions,
				"X-Frame-Options":         cfg.XFrameOptions,
				"Referrer-Policy":         cfg.ReferrerPolicy,
				"Content-Security-Policy": cfg.CSP,
				"Cache-Control":           cfg.CacheControl,
			} {
				if v != "" {
					h.Set(name, v)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
