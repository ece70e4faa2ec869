// Package idgen mints the random ids used for placed fields and builder
// sessions.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// FieldPrefix marks placed field ids. Palette sources use "new-", so a
	// field id can never be mistaken for a palette item.
	FieldPrefix = "field-"

	// SessionPrefix marks builder session ids.
	SessionPrefix = "bs-"

	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Size is the length of the random part of an id.
	Size = 10
)

// Field returns a new placed field id.
func Field() (string, error) { return New(FieldPrefix) }

// Session returns a new builder session id.
func Session() (string, error) { return New(SessionPrefix) }

// New returns prefix followed by Size random alphanumerics.
func New(prefix string) (string, error) {
	suffix, err := nanoid.Generate(alphabet, Size)
	if err != nil {
		return "", fmt.Errorf("generate %sid: %w", prefix, err)
	}
	return prefix + suffix, nil
}
