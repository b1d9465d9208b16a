// Package normalize provides pure, total functions that canonicalize raw
// bibliographic field values into comparable candidate keys. Nothing
// here ever fails: malformed input degrades to an empty key, which the
// callers drop.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TitlePrefixLen is how many runes of a normalized title make up the
// candidate key. Truncating tolerates trailing subtitle variation
// between sources; two titles with the same prefix are merge
// candidates, not guaranteed matches.
const TitlePrefixLen = 25

// stripAccents decomposes, removes combining marks, and recomposes,
// so "Brontë" and "Bronte" produce the same key.
//
//nolint:gochecknoglobals // Static transform chain
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Leading articles dropped from titles before keying.
//
//nolint:gochecknoglobals // Static lookup table
var leadingArticles = []string{"the ", "a ", "an "}

// Title canonicalizes a title into a short comparable key: accents
// folded, lower-cased, punctuation stripped, leading article removed,
// truncated to TitlePrefixLen runes.
func Title(s string) string {
	folded, _, err := transform.String(stripAccents, s)
	if err != nil {
		// Transform only fails on invalid UTF-8; fall back to the raw
		// bytes rather than losing the record.
		folded = s
	}

	s = strings.ToLower(folded)

	// Drop everything except letters, digits and spaces.
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	s = strings.Join(strings.Fields(b.String()), " ")

	for _, article := range leadingArticles {
		if strings.HasPrefix(s, article) {
			s = s[len(article):]
			break
		}
	}

	runes := []rune(s)
	if len(runes) > TitlePrefixLen {
		s = strings.TrimSpace(string(runes[:TitlePrefixLen]))
	}
	return s
}

// ISBN strips hyphens and whitespace and upper-cases a trailing check
// character. Returns "" unless the result is 10 or 13 characters of
// digits with an optional trailing 'X'.
func ISBN(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteByte('X')
		case r == '-' || unicode.IsSpace(r):
			// separator, skip
		default:
			return ""
		}
	}

	out := b.String()
	if len(out) != 10 && len(out) != 13 {
		return ""
	}
	// 'X' is only valid as the final character.
	if i := strings.IndexByte(out, 'X'); i >= 0 && i != len(out)-1 {
		return ""
	}
	return out
}

// LCCN normalizes a Library of Congress Control Number per the LOC
// normalization rules: whitespace removed, anything after a '/'
// (revision annotations like "//r85") dropped, and the serial portion
// after the first hyphen zero-padded to six digits. Alphabetic prefixes
// ("n", "sn", ...) are preserved. Malformed input returns "".
//
//	"96-39190"    -> "96039190"
//	"n78-89035"   -> "n78089035"
//	" 85000002 "  -> "85000002"
func LCCN(s string) string {
	s = strings.ToLower(s)
	// Remove all whitespace, not just the ends; sources pad internally.
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}

	if i := strings.IndexByte(s, '-'); i >= 0 {
		head, serial := s[:i], s[i+1:]
		if serial == "" || !allDigits(serial) || len(serial) > 6 {
			return ""
		}
		s = head + strings.Repeat("0", 6-len(serial)) + serial
	}

	// Valid form: optional alphabetic prefix followed by digits.
	j := 0
	for j < len(s) && s[j] >= 'a' && s[j] <= 'z' {
		j++
	}
	if j == len(s) || !allDigits(s[j:]) {
		return ""
	}
	return s
}

// OCLC trims surrounding whitespace from an OCLC number. No further
// transform; OCLC numbers are opaque identifiers.
func OCLC(s string) string {
	return strings.TrimSpace(s)
}

// CleanEscapes maps control characters to their escaped form so values
// can be written into tab-delimited index files without breaking the
// line or column structure.
func CleanEscapes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case 0:
			b.WriteString(`\0`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
