// Package textnorm canonicalizes free-text labels (platform names, status
// strings) that were typed by hand into a spreadsheet, so that
// " Instagram ", "instagram" and "INSTAGRAM" compare equal and
// "Diseño" matches "diseno".
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const nbsp = "\u00a0"

// Normalize lowercases s, strips accents (NFD decomposition with nonspacing
// marks removed) and trims surrounding whitespace. Non-breaking spaces are
// turned into ordinary spaces first.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, nbsp, " ")

	// A fresh transformer per call: transform.Chain keeps internal state and
	// is not safe for concurrent use.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(strings.ToLower(out))
}

// NormalizePtr is Normalize for optional values; nil yields "".
func NormalizePtr(s *string) string {
	if s == nil {
		return ""
	}
	return Normalize(*s)
}

// Contains reports whether the normalized form of haystack contains the
// normalized form of needle. An empty needle matches nothing.
func Contains(haystack, needle string) bool {
	n := Normalize(needle)
	if n == "" {
		return false
	}
	return strings.Contains(Normalize(haystack), n)
}
