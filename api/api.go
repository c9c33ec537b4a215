// Package api exposes the mapping lookups over HTTP.
//
// Routes:
//
//	GET /v1/lookup/{version}/{scheme}/{classPath}   Result JSON
//	GET /v1/inspect/{version}/{scheme}/{classPath}  Inspection JSON
//	GET /v1/batch/{version}/{scheme}?class=a&class=b
//	GET /v1/history?limit=N                         recent lookups
//	GET /v1/history/stats
//	GET /healthz
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/mcmappings/history"
	"github.com/hazyhaar/mcmappings/horosafe"
	"github.com/hazyhaar/mcmappings/mappings"
	"github.com/hazyhaar/mcmappings/scheme"
	"github.com/hazyhaar/mcmappings/shield"
)

// maxBatch caps the class paths accepted by one batch request.
const maxBatch = 64

// HistoryReader is the read side of the lookup log.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
	Stats(ctx context.Context) (*history.Stats, error)
}

// Handler serves the HTTP API.
type Handler struct {
	svc     *mappings.Service
	history HistoryReader
	logger  *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithHistory enables the /v1/history routes.
func WithHistory(h HistoryReader) Option {
	return func(a *Handler) { a.history = h }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Handler) { a.logger = l }
}

// New creates a Handler on top of svc.
func New(svc *mappings.Service, opts ...Option) *Handler {
	a := &Handler{svc: svc, logger: slog.Default()}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Router returns a chi router with the shield stack and every route mounted.
func (a *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	for _, mw := range shield.APIStack(a.logger) {
		r.Use(mw)
	}
	a.RegisterHTTP(r)
	return r
}

// RegisterHTTP mounts the routes on r.
func (a *Handler) RegisterHTTP(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/v1/schemes", a.handleSchemes)
	r.Get("/v1/lookup/{version}/{scheme}/{classPath}", a.handleLookup)
	r.Get("/v1/inspect/{version}/{scheme}/{classPath}", a.handleInspect)
	r.Get("/v1/batch/{version}/{scheme}", a.handleBatch)
	if a.history != nil {
		r.Get("/v1/history", a.handleHistory)
		r.Get("/v1/history/stats", a.handleHistoryStats)
	}
}

func requestFromPath(r *http.Request) mappings.Request {
	return mappings.Request{
		Version:   chi.URLParam(r, "version"),
		Scheme:    chi.URLParam(r, "scheme"),
		ClassPath: chi.URLParam(r, "classPath"),
	}
}

func (a *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	res, err := a.svc.Lookup(r.Context(), requestFromPath(r))
	if err != nil {
		a.writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *Handler) handleInspect(w http.ResponseWriter, r *http.Request) {
	ins, err := a.svc.Inspect(r.Context(), requestFromPath(r))
	if err != nil {
		a.writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ins)
}

func (a *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	classes := r.URL.Query()["class"]
	if len(classes) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "at least one class parameter is required"})
		return
	}
	if len(classes) > maxBatch {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "too many classes (max " + strconv.Itoa(maxBatch) + ")"})
		return
	}
	items, err := a.svc.Batch(r.Context(), chi.URLParam(r, "version"), chi.URLParam(r, "scheme"), classes)
	if err != nil {
		a.writeLookupError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type schemesBody struct {
	Schemes []string `json:"schemes"`
	Default string   `json:"default"`
	Version string   `json:"version"`
}

func (a *Handler) handleSchemes(w http.ResponseWriter, _ *http.Request) {
	cfg := a.svc.Config()
	body := schemesBody{Default: cfg.Scheme.String(), Version: cfg.Version}
	for _, s := range scheme.All() {
		body.Schemes = append(body.Schemes, s.String())
	}
	writeJSON(w, http.StatusOK, body)
}

func (a *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	if limit < 1 || limit > 1000 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be between 1 and 1000"})
		return
	}
	entries, err := a.history.Recent(r.Context(), limit)
	if err != nil {
		shield.GetLogger(r.Context()).Error("api: history", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "history unavailable"})
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (a *Handler) handleHistoryStats(w http.ResponseWriter, r *http.Request) {
	st, err := a.history.Stats(r.Context())
	if err != nil {
		shield.GetLogger(r.Context()).Error("api: history stats", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "history unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// StatusCode maps a lookup error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, scheme.ErrUnknown),
		errors.Is(err, mappings.ErrUnsupportedScheme),
		errors.Is(err, horosafe.ErrInvalidClassPath):
		return http.StatusBadRequest
	case errors.Is(err, mappings.ErrMarkerNotFound),
		errors.Is(err, mappings.ErrTableNotFound),
		errors.Is(err, mappings.ErrNameNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, mappings.ErrFetch),
		errors.Is(err, mappings.ErrParse):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (a *Handler) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusCode(err)
	kind := mappings.ErrorKind(err)
	if errors.Is(err, scheme.ErrUnknown) {
		kind = "invalid_scheme"
	}
	if errors.Is(err, horosafe.ErrInvalidClassPath) {
		kind = "invalid_class_path"
	}
	logger := shield.GetLogger(r.Context())
	if code >= 500 {
		logger.Warn("api: lookup failed", "status", code, "kind", kind, "error", err)
	} else {
		logger.Debug("api: lookup rejected", "status", code, "kind", kind, "error", err)
	}
	writeJSON(w, code, errorBody{Error: err.Error(), Kind: kind})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
