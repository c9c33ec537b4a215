// Package scheme enumerates the naming schemes published by the mapping site
// and the identifier shapes each of them produces.
//
// Nothing here transforms names. The package only answers "does this string
// look like a name from scheme X", which the selector detector uses to guess
// what an unlabelled table cell contains.
package scheme

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Scheme is one of the parallel naming conventions applied to the same
// program elements.
type Scheme int

const (
	// Mojang is the canonical, human-readable dotted naming.
	Mojang Scheme = iota
	// Yarn is dotted naming with conventional suffixes and capitalisation.
	Yarn
	// Intermediary is the numbered placeholder form net.minecraft.class_<n>.
	Intermediary
	// Searge uses dotted class names and flat field_/method_/func_ member tokens.
	Searge
)

// ErrUnknown is returned by Parse for names outside the closed set.
var ErrUnknown = errors.New("scheme: unknown naming scheme")

var names = [...]string{
	Mojang:       "mojang",
	Yarn:         "yarn",
	Intermediary: "intermediary",
	Searge:       "searge",
}

// Root prefixes shared by every dotted scheme.
var rootPrefixes = []string{"net.minecraft.", "com.mojang."}

var patterns = map[Scheme]*regexp.Regexp{
	Mojang:       regexp.MustCompile(`^(net\.minecraft\.|com\.mojang\.)([a-zA-Z0-9_$.]+)$`),
	Yarn:         regexp.MustCompile(`^(net\.minecraft\.|com\.mojang\.)([a-zA-Z0-9_$.]+Client|[a-zA-Z0-9_$.]+Impl|.*[A-Z].*)$`),
	Intermediary: regexp.MustCompile(`^net\.minecraft\.class_[0-9]+$`),
	Searge:       regexp.MustCompile(`^(net\.minecraft\.|com\.mojang\.)([a-zA-Z0-9_$.]+)$|^(field_|method_|func_)[0-9]+_[a-zA-Z]$`),
}

var (
	obfuscatedRe   = regexp.MustCompile(`^[a-zA-Z]{1,4}$`)
	seargeMemberRe = regexp.MustCompile(`^(field_|method_|func_)[0-9]+_[a-zA-Z]$`)
)

// All returns every scheme in declaration order.
func All() []Scheme {
	return []Scheme{Mojang, Yarn, Intermediary, Searge}
}

// Parse resolves a scheme by its lower-case name. Matching is case-insensitive.
func Parse(s string) (Scheme, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == key {
			return Scheme(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknown, s)
}

func (s Scheme) String() string {
	if s < 0 || int(s) >= len(names) {
		return fmt.Sprintf("scheme(%d)", int(s))
	}
	return names[s]
}

// Valid reports whether s belongs to the closed set.
func (s Scheme) Valid() bool {
	return s >= 0 && int(s) < len(names)
}

// MarshalText implements encoding.TextMarshaler.
func (s Scheme) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknown, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so a Scheme can sit
// directly in YAML and JSON documents.
func (s *Scheme) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Matches reports whether text has the identifier shape of scheme s.
// The Yarn and Searge shapes overlap Mojang's; a match is a hint, not proof.
func (s Scheme) Matches(text string) bool {
	re, ok := patterns[s]
	if !ok {
		return false
	}
	return re.MatchString(text)
}

// IsObfuscated reports whether text looks like an obfuscated identifier:
// one to four ASCII letters.
func IsObfuscated(text string) bool {
	return obfuscatedRe.MatchString(text)
}

// IsSeargeMember reports whether text is a flat Searge member token such as
// field_1234_a or func_70112_a.
func IsSeargeMember(text string) bool {
	return seargeMemberRe.MatchString(text)
}

// HasRootPrefix reports whether text starts with one of the dotted roots.
func HasRootPrefix(text string) bool {
	for _, p := range rootPrefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}
