// Package horosafe holds the input guards applied before a mapping page is
// requested: URL safety (SSRF prevention), class path validation, and
// bounded body reads.
package horosafe

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
)

// MaxResponseBody is the default cap for mapping page reads (10 MiB).
const MaxResponseBody int64 = 10 << 20

// ErrSSRF is returned when a URL targets a private or loopback address.
var ErrSSRF = errors.New("horosafe: URL targets a private or loopback address")

// ErrUnsafeScheme is returned when a URL uses a non-HTTP(S) scheme.
var ErrUnsafeScheme = errors.New("horosafe: only http and https schemes are allowed")

// ErrInvalidClassPath is returned for class paths that are not dotted Java
// identifiers.
var ErrInvalidClassPath = errors.New("horosafe: invalid class path")

// ErrResponseTooLarge is returned by LimitedReadAll when the cap is exceeded.
var ErrResponseTooLarge = errors.New("horosafe: response too large")

// ValidateURL checks that rawURL uses http/https, has a hostname, and does
// not resolve to a private or loopback IP.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("horosafe: invalid URL: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrUnsafeScheme
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("horosafe: URL has no host")
	}

	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return ErrSSRF
		}
		return nil
	}

	addrs, err := net.LookupHost(host)
	if err != nil {
		// Unresolvable hosts fail at connect time with a clearer error.
		return nil
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && isPrivateIP(ip) {
			return ErrSSRF
		}
	}
	return nil
}

// ValidateClassPath checks that path is a dotted sequence of Java
// identifier segments (letters, digits, '_' and '$'). Class paths become URL
// path segments, so empty segments and anything else are rejected.
func ValidateClassPath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty", ErrInvalidClassPath)
	}
	if len(path) > 512 {
		return fmt.Errorf("%w: too long (max 512)", ErrInvalidClassPath)
	}
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return fmt.Errorf("%w: empty segment in %q", ErrInvalidClassPath, path)
		}
		for _, r := range seg {
			if !isIdentChar(r) {
				return fmt.Errorf("%w: invalid character %q in %q", ErrInvalidClassPath, r, path)
			}
		}
	}
	return nil
}

// LimitedReadAll reads at most maxBytes from r.
func LimitedReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrResponseTooLarge, maxBytes)
	}
	return data, nil
}

func isIdentChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '_' || r == '$'
}

var privateRanges = func() []*net.IPNet {
	var out []*net.IPNet
	for _, cidr := range []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "fc00::/7", "169.254.0.0/16"} {
		_, n, err := net.ParseCIDR(cidr)
		if err == nil {
			out = append(out, n)
		}
	}
	return out
}()

func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return true
	}
	for _, n := range privateRanges {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
