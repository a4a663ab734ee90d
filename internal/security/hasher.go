// Package security holds the credential hashing, password policy, and session
// token primitives for the auth core.
package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// legacyPrefix marks password hashes carried over from the pre-bcrypt scheme
// (unsalted SHA-256, hex-encoded). Verifiable so migrated accounts keep
// working; always reported by NeedsRehash so a correct login upgrades them.
const legacyPrefix = "sha256$"

// Hasher hashes and verifies passwords using bcrypt. Callers must not log or
// persist plaintext passwords.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given bcrypt cost (4–31). Cost 12 is a
// reasonable default for interactive login.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash produces a bcrypt hash of password under the current cost. The
// algorithm identifier and cost are embedded in the returned string.
func (h *Hasher) Hash(password []byte) (string, error) {
	b, err := bcrypt.GenerateFromPassword(password, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches the stored hash. Malformed or
// unrecognized hash formats verify as false; Verify never panics and never
// returns an error to the caller.
func (h *Hasher) Verify(stored string, password []byte) bool {
	if stored == "" {
		return false
	}
	if strings.HasPrefix(stored, legacyPrefix) {
		want := stored[len(legacyPrefix):]
		sum := sha256.Sum256(password)
		got := hex.EncodeToString(sum[:])
		return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), password) == nil
}

// NeedsRehash reports whether the stored hash is weaker than the current
// policy: a legacy SHA-256 credential, a bcrypt hash below the current cost,
// or a format bcrypt cannot parse at all. Callers rehash on the next
// successful Verify (rehash-on-login).
func (h *Hasher) NeedsRehash(stored string) bool {
	if strings.HasPrefix(stored, legacyPrefix) {
		return true
	}
	cost, err := bcrypt.Cost([]byte(stored))
	if err != nil {
		return true
	}
	return cost < h.Cost
}

// LegacySHA256Hash returns the legacy-format hash of password. Only for seeds
// and tests exercising the rehash-on-login path.
func LegacySHA256Hash(password []byte) string {
	sum := sha256.Sum256(password)
	return legacyPrefix + hex.EncodeToString(sum[:])
}
