// Package idgen generates the two kinds of identifiers this module hands
// out: lookup IDs for history rows ("lkp_" + UUIDv7) and short request IDs
// for the HTTP surface.
package idgen

import (
	"crypto/rand"

	"github.com/google/uuid"
)

// Generator returns a fresh identifier on every call.
type Generator func() string

// NanoID generates lowercase base-36 IDs of the given length from
// crypto/rand. Safe in URLs and headers.
func NanoID(length int) Generator {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	return func() string {
		buf := make([]byte, length)
		if _, err := rand.Read(buf); err != nil {
			panic("idgen: crypto/rand: " + err.Error())
		}
		for i, b := range buf {
			buf[i] = alphabet[int(b)%len(alphabet)]
		}
		return string(buf)
	}
}

// UUIDv7 generates time-ordered UUIDs, so IDs minted within the same
// second still sort in creation order.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed prepends prefix to every ID from gen.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string { return prefix + gen() }
}
