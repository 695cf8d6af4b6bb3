package numbering

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// PlaceholderAbbreviation is used when nothing is left of a client name
// after stop words are removed.
const PlaceholderAbbreviation = "XXXX"

const maxAbbreviationLen = 4

var stopWords = map[string]struct{}{
	"pvt": {},
	"ltd": {},
	"inc": {},
	"llc": {},
	"co":  {},
	"the": {},
	"and": {},
	"of":  {},
}

// Abbreviate derives the short uppercase client code used in invoice
// numbers. Whitespace separated tokens are matched against the stop words as
// written, so "Co." or "(Pvt)" stay. A single remaining token contributes its
// first four letters; several tokens contribute their first characters,
// punctuation and digits included.
func Abbreviate(name string) string {
	words := make([]string, 0, 4)
	for _, token := range strings.Fields(name) {
		if _, stop := stopWords[strings.ToLower(token)]; stop {
			continue
		}
		words = append(words, token)
	}

	switch len(words) {
	case 0:
		return PlaceholderAbbreviation
	case 1:
		letters := lettersOnly(words[0])
		if letters == "" {
			// "123" would leave an empty code and a "FD--2601-001" number.
			return PlaceholderAbbreviation
		}
		return truncate(strings.ToUpper(letters), maxAbbreviationLen)
	default:
		var b strings.Builder
		for _, w := range words {
			r, _ := utf8.DecodeRuneInString(w)
			b.WriteRune(unicode.ToUpper(r))
		}
		return truncate(b.String(), maxAbbreviationLen)
	}
}

// lettersOnly keeps ASCII letters. Invoice numbers stay ASCII.
func lettersOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
