package random

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// Random provides random value generation that can be mocked for testing
type Random interface {
	// Hex returns n random bytes encoded as uppercase hex (2n characters)
	Hex(n int) string

	// ID returns an unguessable identifier with the given prefix
	ID(prefix string) string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Hex returns n cryptographically random bytes as uppercase hex
func (r *CryptoRandom) Hex(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	// crypto/rand.Read never returns an error on supported platforms
	_, _ = rand.Read(b)
	return strings.ToUpper(hex.EncodeToString(b))
}

// ID returns a random UUID with the given prefix
func (r *CryptoRandom) ID(prefix string) string {
	return prefix + uuid.NewString()
}
