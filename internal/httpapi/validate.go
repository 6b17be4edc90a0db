package httpapi

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Punctuation allowed through the sanitizer. Deliberately small: enough for
// names and words in most languages without letting markup through.
const allowedPunct = `-'.,!?¡¿()&/:` + `"`

// sanitizeText strips control characters and anything outside
// letters/digits/whitespace/allowed punctuation, then trims. Diacritics and
// non-Latin scripts pass through untouched.
func sanitizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsControl(r):
			// dropped, including tabs and newlines
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			b.WriteRune(r)
		case strings.ContainsRune(allowedPunct, r):
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func sanitizeWords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, w := range in {
		if clean := sanitizeText(w); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

// validUUID checks the structural UUID format before any store
// lookup, so malformed ids fail fast with a generic client error.
func validUUID(id string) bool {
	return uuid.Validate(id) == nil
}
