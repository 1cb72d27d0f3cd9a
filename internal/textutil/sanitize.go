package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// unsafeFileRunes maps characters that break paths on some filesystems to a
// replacement. A zero replacement drops the character.
var unsafeFileRunes = map[rune]rune{
	'/': '-', '\\': '-', ':': '-', '*': '-',
	'?': 0, '"': 0, '<': 0, '>': 0, '|': 0,
}

// SanitizeFileName makes name safe to use as a single path element.
func SanitizeFileName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if repl, ok := unsafeFileRunes[r]; ok {
			if repl == 0 {
				return -1
			}
			return repl
		}
		return r
	}, strings.TrimSpace(name))
	return strings.TrimSpace(cleaned)
}

// foldAccents decomposes and drops combining marks so "Café" becomes "Cafe".
func foldAccents(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}

// SanitizeToken reduces value to a lowercase [a-z0-9_-] token with no
// whitespace, suitable as an RTTM recording id. Returns "unknown" when
// nothing usable remains.
func SanitizeToken(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(foldAccents(strings.TrimSpace(value))) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if out := strings.Trim(b.String(), "_-"); out != "" {
		return out
	}
	return "unknown"
}
