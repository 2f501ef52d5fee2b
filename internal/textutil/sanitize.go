package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultMaxStemLength bounds sanitized stems when callers pass a
	// non-positive limit.
	DefaultMaxStemLength = 50
	// FallbackStem is returned when sanitization leaves nothing behind.
	FallbackStem = "unnamed_file"
)

// stemStripper removes characters that are illegal in filenames on common
// filesystems.
var stemStripper = strings.NewReplacer(
	"<", "",
	">", "",
	":", "",
	"\"", "",
	"/", "",
	"\\", "",
	"|", "",
	"?", "",
	"*", "",
)

// SanitizeStem turns an arbitrary label into a filename stem. Illegal
// characters are removed, whitespace runs become a single underscore,
// underscore runs collapse, leading and trailing underscores are trimmed, and
// the result is truncated to maxLength runes. An empty result becomes
// FallbackStem (itself bounded by maxLength). The function is idempotent.
func SanitizeStem(text string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxStemLength
	}
	text = strings.Map(dropControl, stemStripper.Replace(text))
	// Normalize after stripping so removed runes cannot leave an uncomposed
	// sequence behind.
	text = norm.NFC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	lastUnderscore := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r) || r == '_':
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		default:
			b.WriteRune(r)
			lastUnderscore = false
		}
	}

	stem := truncateRunes(strings.Trim(b.String(), "_"), maxLength)
	stem = strings.Trim(stem, "_")
	if stem == "" {
		return strings.Trim(truncateRunes(FallbackStem, maxLength), "_")
	}
	return stem
}

func dropControl(r rune) rune {
	if unicode.IsControl(r) && !unicode.IsSpace(r) {
		return -1
	}
	return r
}

// truncateRunes cuts s to at most limit runes, backing off so the cut never
// splits a normalization segment (a base rune and its combining marks).
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	cut := 0
	for i := 0; i < limit; i++ {
		_, size := utf8.DecodeRuneInString(s[cut:])
		cut += size
	}
	for cut > 0 && norm.NFC.FirstBoundaryInString(s[cut:]) != 0 {
		_, size := utf8.DecodeLastRuneInString(s[:cut])
		cut -= size
	}
	return s[:cut]
}

// CollapseWhitespace joins the fields of s with single spaces and truncates
// the result to limit runes when limit is positive.
func CollapseWhitespace(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit > 0 {
		s = strings.TrimSpace(truncateRunes(s, limit))
	}
	return s
}
