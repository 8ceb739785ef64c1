// Package token generates share tokens for newly accepted documents.
package token

import (
	"strings"

	"github.com/google/uuid"
)

// Length is the number of characters in a share token.
const Length = 16

// Generate returns a fresh share token: the first 16 characters of a
// random (version 4) UUID with the separators stripped, i.e. lowercase
// hexadecimal. Uniqueness is not checked here; the store enforces it and
// callers retry on a collision.
func Generate() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:Length]
}
