// Package uid issues the identifiers used for listings, requests and login
// nonces.
package uid

import (
	"strings"

	"github.com/google/uuid"
)

// canonicalLength is the length of the hyphenated 8-4-4-4-12 form.
const canonicalLength = 36

// New returns a random (version 4) UUID in canonical form.
func New() string {
	return uuid.NewString()
}

// IsValid reports whether id is a UUID in the canonical form New produces.
// Braced and urn:uuid: spellings are rejected since they never match a
// stored id.
func IsValid(id string) bool {
	if len(id) != canonicalLength {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// Nonce returns an opaque random token safe to pass through a query string.
func Nonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
