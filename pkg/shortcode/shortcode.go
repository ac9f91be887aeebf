// Package shortcode generates short codes and validates caller-supplied
// aliases.
package shortcode

import (
	"errors"
	"fmt"
	"regexp"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet is the 62-symbol set generated codes are drawn from.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// DefaultLength is the generated code length used when none is configured.
const DefaultLength = 6

// ErrInvalidAlias is returned when a custom alias violates the length or
// character-class rules.
var ErrInvalidAlias = errors.New("invalid alias: must be 4-16 characters of A-Z, a-z, 0-9, '-' or '_'")

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{4,16}$`)

// Generate returns a random code of the given length, drawn uniformly from
// Alphabet. Collisions with stored codes are possible and surface as a
// uniqueness-constraint conflict on insert.
func Generate(length int) (string, error) {
	const op = "shortcode.Generate"

	code, err := gonanoid.Generate(Alphabet, length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate short code: %w", op, err)
	}

	return code, nil
}

// ValidateAlias checks a caller-supplied alias against the same shape rules
// stored codes obey. It runs before any store interaction.
func ValidateAlias(alias string) error {
	if !aliasPattern.MatchString(alias) {
		return ErrInvalidAlias
	}

	return nil
}
