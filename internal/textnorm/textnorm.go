// Package textnorm canonicalizes free text so that visually equivalent
// strings compare equal.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// bidiMarks are invisible direction controls that editors insert around
// right-to-left text.
var bidiMarks = runes.Predicate(func(r rune) bool {
	switch {
	case r == '\u200e', r == '\u200f', r == '\u061c', r == '\ufeff':
		return true
	case r >= '\u202a' && r <= '\u202e':
		return true
	case r >= '\u2066' && r <= '\u2069':
		return true
	}
	return false
})

// Normalize strips direction marks and diacritics, unifies spaces and
// dashes, collapses whitespace, trims and lowercases. Empty in, empty out.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	// Transformers carry state, so the chain is built per call.
	t := transform.Chain(
		norm.NFD,
		runes.Remove(bidiMarks),
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(unifyRune),
		cases.Lower(language.Und),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = strings.ToLower(s)
	}
	return CollapseSpace(out)
}

// CollapseSpace trims s and folds every whitespace run into one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Equal reports whether a and b normalize to the same text.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Contains reports whether the normalized form of s contains the
// normalized form of sub. An empty sub never matches.
func Contains(s, sub string) bool {
	n := Normalize(sub)
	if n == "" {
		return false
	}
	return strings.Contains(Normalize(s), n)
}

func unifyRune(r rune) rune {
	switch r {
	case '\u00a0', '\u2007', '\u202f':
		return ' '
	case '\u2010', '\u2011', '\u2012', '\u2013', '\u2014', '\u2015',
		'\u2212', '\u05be', '\ufe58', '\ufe63', '\uff0d':
		return '-'
	}
	return r
}
