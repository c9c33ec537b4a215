// Package mappings extracts class, field and method name mappings from the
// pages of a third-party mapping site.
//
// The site's markup carries no stable semantic attributes: the class tokens
// that tell one naming scheme's cells from another's are regenerated on
// every deploy. Each fetch therefore starts by inferring those tokens from
// the page itself (see Detect), then walks the class-definition table and
// the field/method summary tables with them.
//
// Usage:
//
//	ex, err := mappings.New("1.20.1", scheme.Mojang)
//	if err != nil { ... }
//	res, err := ex.Fetch(ctx, "net.minecraft.client.Minecraft")
//	// res.ClassName, res.ObfuscatedClassName, res.Fields, res.Methods
package mappings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/mcmappings/horosafe"
	"github.com/hazyhaar/mcmappings/mappings/internal/fetch"
	"github.com/hazyhaar/mcmappings/scheme"
)

// DefaultBaseURL is the mapping site.
const DefaultBaseURL = "https://mappings.dev"

// Fetcher retrieves the raw HTML of a page. Non-2xx responses must be
// reported as errors; an error exposing HTTPStatus() int has its code copied
// into FetchError.StatusCode.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// statusCoder is implemented by transport errors that carry an HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

// Result is the outcome of one extraction.
type Result struct {
	ClassName           string            `json:"class_name"`
	ObfuscatedClassName string            `json:"obfuscated_class_name"`
	Fields              map[string]string `json:"fields"`
	Methods             map[string]string `json:"methods"`
}

// Extractor fetches and parses mapping pages for one version and scheme.
//
// An Extractor keeps per-fetch state and must not be shared between
// goroutines. Run concurrent lookups on separate Extractors (see Batch).
type Extractor struct {
	version string
	scheme  scheme.Scheme
	baseURL string
	fetcher Fetcher
	logger  *slog.Logger

	selectors *Selectors
	result    *Result
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(e *Extractor) { e.baseURL = strings.TrimRight(u, "/") }
}

// WithFetcher sets the page transport. Default: HTTP with SSRF protection.
func WithFetcher(f Fetcher) Option {
	return func(e *Extractor) { e.fetcher = f }
}

// WithHTTPConfig configures the default HTTP transport.
func WithHTTPConfig(cfg fetch.Config) Option {
	return func(e *Extractor) { e.fetcher = fetch.New(cfg) }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// New creates an Extractor. It fails with *UnsupportedSchemeError, without
// touching the network, when version predates 1.15 and s is not Searge.
func New(version string, s scheme.Scheme, opts ...Option) (*Extractor, error) {
	e := &Extractor{
		version: version,
		scheme:  s,
		baseURL: DefaultBaseURL,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.fetcher == nil {
		e.fetcher = fetch.New(fetch.Config{})
	}
	if !s.Valid() {
		return nil, fmt.Errorf("mappings: %w: %d", scheme.ErrUnknown, int(s))
	}
	if err := checkVersion(version, s, e.logger); err != nil {
		return nil, err
	}
	return e, nil
}

// Lookup runs a single fetch on a fresh Extractor.
func Lookup(ctx context.Context, version, classPath string, s scheme.Scheme, opts ...Option) (*Result, error) {
	e, err := New(version, s, opts...)
	if err != nil {
		return nil, err
	}
	return e.Fetch(ctx, classPath)
}

// Version returns the game version the Extractor was built for.
func (e *Extractor) Version() string { return e.version }

// Scheme returns the requested naming scheme.
func (e *Extractor) Scheme() scheme.Scheme { return e.scheme }

// Result returns the outcome of the last successful Fetch, or nil.
func (e *Extractor) Result() *Result { return e.result }

// Selectors returns the markers detected by the last Fetch or Inspect, or nil.
func (e *Extractor) Selectors() *Selectors { return e.selectors }

// PageURL builds the page address of a dotted class path.
func (e *Extractor) PageURL(classPath string) string {
	return fmt.Sprintf("%s/%s/%s.html", e.baseURL, e.version, strings.ReplaceAll(classPath, ".", "/"))
}

// Fetch downloads the page of classPath and extracts its class name pair and
// member mappings under the requested scheme.
func (e *Extractor) Fetch(ctx context.Context, classPath string) (*Result, error) {
	start := time.Now()
	doc, url, err := e.load(ctx, classPath)
	if err != nil {
		return nil, err
	}

	sel := Detect(doc, e.logger)
	e.selectors = sel

	res, err := e.extract(doc, sel)
	if err != nil {
		e.logger.Warn("mappings: extraction failed",
			"url", url, "scheme", e.scheme, "kind", ErrorKind(err), "error", err)
		return nil, err
	}
	e.result = res

	e.logger.Info("mappings: fetched",
		"class", classPath, "version", e.version, "scheme", e.scheme,
		"fields", len(res.Fields), "methods", len(res.Methods),
		"duration", time.Since(start))
	return res, nil
}

// load fetches and parses the page of classPath.
func (e *Extractor) load(ctx context.Context, classPath string) (*html.Node, string, error) {
	url := e.PageURL(classPath)
	// Class paths end up in the URL path; reject them before any request.
	if err := horosafe.ValidateClassPath(classPath); err != nil {
		return nil, url, &FetchError{URL: url, Err: err}
	}

	body, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		fe := &FetchError{URL: url, Err: err}
		var sc statusCoder
		if errors.As(err, &sc) {
			fe.StatusCode = sc.HTTPStatus()
		}
		return nil, url, fe
	}

	doc, err := parseDocument(body)
	if err != nil {
		return nil, url, &ParseError{URL: url, Err: err}
	}
	return doc, url, nil
}

// errEmptyDocument is wrapped in ParseError for bodies with no content,
// including documents whose <body> holds only whitespace.
var errEmptyDocument = errors.New("empty document")

func parseDocument(body []byte) (*html.Node, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errEmptyDocument
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	root := findFirst(doc, func(n *html.Node) bool { return isElement(n, atom.Body) })
	if root == nil || emptyElement(root) {
		return nil, errEmptyDocument
	}
	return doc, nil
}

// emptyElement reports whether n has no element children and no text
// beyond whitespace.
func emptyElement(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			return false
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return false
			}
		}
	}
	return true
}

// extract runs the extraction steps that follow detection.
func (e *Extractor) extract(doc *html.Node, sel *Selectors) (*Result, error) {
	if sel.Obfuscated == "" {
		return nil, &MarkerNotFoundError{Kind: KindObfuscatedClass}
	}
	requested, ok := sel.ClassMarker(e.scheme)
	if !ok {
		return nil, &MarkerNotFoundError{Kind: KindRequestedClass, Scheme: e.scheme}
	}

	// Relocate the class-definition table from the first obfuscated marker cell.
	markerCell := findFirst(doc, func(n *html.Node) bool {
		return isElement(n, atom.Td) && hasClass(n, sel.Obfuscated)
	})
	if markerCell == nil {
		return nil, &TableNotFoundError{Marker: sel.Obfuscated}
	}
	table := closestAncestor(markerCell, atom.Table)
	if table == nil {
		return nil, &TableNotFoundError{Marker: sel.Obfuscated}
	}

	obfCell := markedNameCell(table, sel.Obfuscated)
	if obfCell == nil {
		return nil, &NameNotFoundError{Kind: KindObfuscatedClass, Marker: sel.Obfuscated}
	}
	nameCell := markedNameCell(table, requested)
	if nameCell == nil {
		return nil, &NameNotFoundError{Kind: KindRequestedClass, Marker: requested}
	}

	res := &Result{
		ClassName:           strings.TrimSpace(textContent(nameCell)),
		ObfuscatedClassName: strings.TrimSpace(textContent(obfCell)),
		Fields:              make(map[string]string),
		Methods:             make(map[string]string),
	}

	if sel.MemberTable == "" {
		e.logger.Warn("mappings: member table marker not detected, skipping fields and methods")
		return res, nil
	}

	scanner := newRowScanner(e.scheme, sel, requested)
	for _, part := range []struct {
		heading string
		dst     map[string]string
	}{
		{FieldSummaryHeading, res.Fields},
		{MethodSummaryHeading, res.Methods},
	} {
		t := findMemberTable(doc, part.heading, sel.MemberTable)
		if t == nil {
			continue
		}
		if skipped := scanMemberTable(t, scanner, part.dst); skipped > 0 {
			e.logger.Debug("mappings: member rows skipped", "table", part.heading, "rows", skipped)
		}
	}
	return res, nil
}
