package mappings

import (
	"errors"
	"fmt"

	"github.com/hazyhaar/mcmappings/scheme"
)

// Sentinels for errors.Is. Each typed error below matches exactly one.
var (
	ErrUnsupportedScheme = errors.New("mappings: scheme not supported for version")
	ErrFetch             = errors.New("mappings: fetch failed")
	ErrParse             = errors.New("mappings: parse failed")
	ErrMarkerNotFound    = errors.New("mappings: marker not found")
	ErrTableNotFound     = errors.New("mappings: table not found")
	ErrNameNotFound      = errors.New("mappings: name not found")
)

// UnsupportedSchemeError is returned before any network access when a
// version older than 1.15 is paired with a scheme other than Searge.
type UnsupportedSchemeError struct {
	Version string
	Scheme  scheme.Scheme
}

func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("mappings: versions below 1.15 only publish searge names (version %s, scheme %s)", e.Version, e.Scheme)
}

func (e *UnsupportedSchemeError) Is(target error) bool { return target == ErrUnsupportedScheme }

// FetchError reports a transport failure or a non-2xx response.
// StatusCode is zero when no response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("mappings: fetch %s: http %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("mappings: fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// ParseError reports a response body the HTML parser could not recover.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("mappings: parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Marker kinds named by MarkerNotFoundError and NameNotFoundError.
const (
	KindObfuscatedClass = "obfuscated class marker"
	KindRequestedClass  = "requested class marker"
)

// MarkerNotFoundError means a required marker could not be inferred.
type MarkerNotFoundError struct {
	Kind   string
	Scheme scheme.Scheme
}

func (e *MarkerNotFoundError) Error() string {
	if e.Kind == KindRequestedClass {
		return fmt.Sprintf("mappings: %s not found for scheme %s", e.Kind, e.Scheme)
	}
	return "mappings: " + e.Kind + " not found"
}

func (e *MarkerNotFoundError) Is(target error) bool { return target == ErrMarkerNotFound }

// TableNotFoundError means a marker was inferred but the table it came from
// could not be found again.
type TableNotFoundError struct {
	Marker string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("mappings: class-definition table not found for marker %q", e.Marker)
}

func (e *TableNotFoundError) Is(target error) bool { return target == ErrTableNotFound }

// NameNotFoundError means the table was found but the name cell expected
// after a marker cell was not.
type NameNotFoundError struct {
	Kind   string
	Marker string
}

func (e *NameNotFoundError) Error() string {
	return fmt.Sprintf("mappings: no name cell after %s %q", e.Kind, e.Marker)
}

func (e *NameNotFoundError) Is(target error) bool { return target == ErrNameNotFound }

// IsLayoutDrift reports whether err means the page structure changed under a
// detected marker, as opposed to the marker never being detected at all.
func IsLayoutDrift(err error) bool {
	return errors.Is(err, ErrTableNotFound) || errors.Is(err, ErrNameNotFound)
}

// ErrorKind returns a stable label for err, used in logs and the lookup history.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedScheme):
		return "unsupported_scheme"
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrMarkerNotFound):
		return "marker_not_found"
	case errors.Is(err, ErrTableNotFound):
		return "table_not_found"
	case errors.Is(err, ErrNameNotFound):
		return "name_not_found"
	default:
		return "unknown"
	}
}
