package shield

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/mcmappings/kit"
)

func newRouter(h http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	for _, mw := range APIStack(nil) {
		r.Use(mw)
	}
	r.Get("/test", h)
	return r
}

func TestAPIStack_Headers(t *testing.T) {
	// WHAT: Responses carry the API headers and a request ID.
	// WHY: Clients correlate failures with server logs through X-Request-ID.
	r := newRouter(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	checks := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Cache-Control":          "no-store",
	}
	for header, expected := range checks {
		if got := w.Header().Get(header); got != expected {
			t.Errorf("%s: got %q, want %q", header, got, expected)
		}
	}
	if id := w.Header().Get(RequestIDHeader); len(id) != 12 {
		t.Errorf("X-Request-ID: got %q, want 12 chars", id)
	}
}

func TestRequestID_Context(t *testing.T) {
	var gotID, gotTransport string
	r := newRouter(func(w http.ResponseWriter, r *http.Request) {
		gotID = kit.GetRequestID(r.Context())
		gotTransport = kit.GetTransport(r.Context())
		if GetLogger(r.Context()) == nil {
			t.Error("no logger in context")
		}
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDHeader, "abc-123_X")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if gotID != "abc-123_X" {
		t.Errorf("request id: got %q", gotID)
	}
	if w.Header().Get(RequestIDHeader) != "abc-123_X" {
		t.Errorf("echoed id: got %q", w.Header().Get(RequestIDHeader))
	}
	if gotTransport != "http" {
		t.Errorf("transport: got %q", gotTransport)
	}
}

func TestRequestID_RejectsMalformed(t *testing.T) {
	// WHAT: A request ID with control characters is replaced.
	// WHY: The ID is written to logs verbatim.
	var gotID string
	r := newRouter(func(w http.ResponseWriter, r *http.Request) { gotID = kit.GetRequestID(r.Context()) })

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDHeader, "bad\nid")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if gotID == "bad\nid" || gotID == "" {
		t.Errorf("got %q, want a generated id", gotID)
	}
}

func TestHeadToGet(t *testing.T) {
	r := newRouter(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(204) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("HEAD", "/test", nil))
	if w.Code != 204 {
		t.Errorf("HEAD: got %d, want 204", w.Code)
	}
}
