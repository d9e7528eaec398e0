package schema

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName returns the canonical form of a class or property name:
// surrounding whitespace removed and NFC normalized, so that names typed on
// different platforms resolve to the same symbol.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
