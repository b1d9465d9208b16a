// Package names decides whether two free-text author name strings
// plausibly denote the same person, tolerating "Last, First" ordering
// and initials standing in for full names.
//
// Known false-negative class, kept deliberately: honorific reordering
// ("Saint John of the Cross" vs "John of the Cross Saint") and title
// suffixes ("Louis Philippe" vs "Louis Philippe King of the French")
// are not matched by these heuristics. Guessing at them produced bad
// merges; a human review step catches what this misses.
package names

import (
	"regexp"
	"strings"
)

//nolint:gochecknoglobals // Static patterns
var (
	reFlip    = regexp.MustCompile(`^(.+?), (.+)$`)
	reInitial = regexp.MustCompile(`\b[A-Z]\.`)
)

// Flip converts a "Last, First ..." form to natural "First ... Last"
// order. The second return is false when the input has no comma form,
// which is not an error: it signals the name is already natural order.
func Flip(name string) (string, bool) {
	m := reFlip.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[2] + " " + m[1], true
}

// Pick chooses a canonical display name when two sources disagree on
// formatting. When formA carries a period-marked initial ("J. R. R.")
// the flipped natural-order form of formA wins; otherwise formB is
// kept unchanged.
func Pick(formA, formB string) string {
	if reInitial.MatchString(formA) {
		if flipped, ok := Flip(formA); ok {
			return flipped
		}
		return formA
	}
	return formB
}

// Match reports whether two names plausibly denote the same person.
// Both names are tokenized on whitespace after punctuation cleanup;
// they match when every token of the shorter name has an in-order
// comparePart match in the longer one, directly or after flipping
// either side out of "Last, First" order.
func Match(a, b string) bool {
	forms := func(name string) []string {
		out := []string{name}
		if flipped, ok := Flip(name); ok {
			out = append(out, flipped)
		}
		return out
	}

	for _, fa := range forms(a) {
		for _, fb := range forms(b) {
			if matchTokens(tokenize(fa), tokenize(fb)) {
				return true
			}
		}
	}
	return false
}

// tokenize splits a name into comparable tokens: punctuation stripped,
// case preserved (comparePart lowercases where it matters).
func tokenize(name string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', ';', ':':
			return ' '
		}
		return r
	}, name)
	return strings.Fields(cleaned)
}

// matchTokens requires every token of the shorter list to find an
// in-order comparePart match in the longer list.
func matchTokens(a, b []string) bool {
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return false
	}

	i := 0
	for _, tok := range short {
		found := false
		for i < len(long) {
			if comparePart(tok, long[i]) {
				found = true
				i++
				break
			}
			i++
		}
		if !found {
			return false
		}
	}
	return true
}

// comparePart matches two name tokens: character-equal, or one is a
// single letter that is a case-insensitive prefix of the other. This
// is what lets "J" (from "J.") stand in for "John".
func comparePart(a, b string) bool {
	if a == b {
		return true
	}
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la == lb {
		return true
	}
	if len([]rune(a)) == 1 && strings.HasPrefix(lb, la) {
		return true
	}
	if len([]rune(b)) == 1 && strings.HasPrefix(la, lb) {
		return true
	}
	return false
}
