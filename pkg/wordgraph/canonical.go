package wordgraph

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Reflexive pronoun markers stripped from the front of a word.
// "s'amuser" and "se promener" are stored as "amuser" and "promener".
const (
	reflexiveElided = "s'"
	reflexiveFull   = "se "
)

// Canonicalize returns the canonical form of word: NFC normalized, lower-cased
// with French casing rules, and with any leading reflexive marker removed.
// The function is total and idempotent.
func Canonicalize(word string) string {
	// A Caser keeps state between calls and must not be shared across goroutines.
	w := cases.Lower(language.French).String(norm.NFC.String(word))
	for {
		switch {
		case strings.HasPrefix(w, reflexiveElided):
			w = w[len(reflexiveElided):]
		case strings.HasPrefix(w, reflexiveFull):
			w = w[len(reflexiveFull):]
		default:
			return w
		}
	}
}

// CanonicalizeAll canonicalizes every word, dropping duplicates while keeping
// first-seen order.
func CanonicalizeAll(words []string) []string {
	out := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		c := Canonicalize(w)
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
