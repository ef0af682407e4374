// Package fingerprint derives stable, non-reversible visitor identifiers
// used to classify clicks as unique or repeat.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Length is the number of hex characters in a fingerprint.
const Length = 16

// Hasher computes visitor fingerprints. It is stateless and safe for
// concurrent use.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// Hash returns a deterministic, fixed-length fingerprint for the given
// context string: the first 16 hex characters of its SHA-256 digest.
func (h *Hasher) Hash(context string) string {
	sum := sha256.Sum256([]byte(context))
	return hex.EncodeToString(sum[:])[:Length]
}

// ClickContext composes the canonical fingerprint input for a visit from
// the caller-supplied origin attributes. Empty parts are kept so that the
// field positions stay stable.
func ClickContext(userAgent, locale, remoteIP string) string {
	return strings.Join([]string{userAgent, locale, remoteIP}, "|")
}
