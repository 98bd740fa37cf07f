// Package textnorm folds text for accent and case insensitive matching.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = runes.Remove(runes.In(unicode.Mn))

// Fold trims s, lower-cases it and removes diacritics, so "Título" and
// "titulo" compare equal.
func Fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	out, _, err := transform.String(transform.Chain(norm.NFD, stripMarks, norm.NFC), s)
	if err != nil {
		return s
	}
	return out
}
