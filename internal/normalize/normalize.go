// Package normalize repairs and cleans message text from chat-export files.
//
// Exports produced by the messaging platform double-decode their text: the
// original UTF-8 bytes were read as single-byte characters and re-encoded,
// so an apostrophe arrives as the three code points U+00E2 U+0080 U+0099.
// RepairEncoding reverses that defect. Normalize additionally strips noise
// (URLs, reply-context boilerplate, non-text characters) while preserving
// emoji and accented letters.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	boilerplateRE = regexp.MustCompile(`(?i)\bto your message\b`)
	urlRE         = regexp.MustCompile(`https?://\S+`)

	// Export artifacts removed wherever they appear.
	stopPhraseREs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bmessage\b`),
		regexp.MustCompile(`(?i)\breacted\b`),
		regexp.MustCompile(`(?i)\bcatalina wine mixer\b`),
	}
)

// RepairEncoding reverses the export's double-decoding defect. It
// reinterprets each code point as a single byte and decodes the resulting
// byte stream as UTF-8. If any code point exceeds 0xFF, or the byte stream
// is not valid UTF-8, the input was not double-encoded and is returned
// unchanged. Text that went through the defect more than once is repaired
// until stable, so RepairEncoding is idempotent.
func RepairEncoding(s string) string {
	for {
		repaired, ok := repairOnce(s)
		if !ok || repaired == s {
			return s
		}
		s = repaired
	}
}

func repairOnce(s string) (string, bool) {
	if s == "" {
		return s, false
	}
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return s, false
		}
		buf = append(buf, byte(r))
	}
	if !utf8.Valid(buf) {
		return s, false
	}
	return string(buf), true
}

// Normalize repairs and cleans one text field. The second return value is
// false when the content is reply-context boilerplate; callers should clear
// the field but keep the surrounding record, which may still carry
// reactions, media, or moderation flags.
//
// Normalize is pure and idempotent: feeding its output back in returns the
// same string.
func Normalize(raw string) (string, bool) {
	// Runes above 0xFF that the cleaning passes discard must go before the
	// repair attempt: a double-encoded sequence is made entirely of code
	// points at or below 0xFF, and a stray emoji or smart quote next to one
	// would otherwise veto the repair on the first pass only. URLs come out
	// early for the same reason.
	s := stripUnrepairable(raw)
	s = urlRE.ReplaceAllString(s, "")
	s = RepairEncoding(s)

	if boilerplateRE.MatchString(s) {
		return "", false
	}

	s = filterRunes(s)
	for _, re := range stopPhraseREs {
		s = re.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(s), true
}

// stripUnrepairable drops runes that filterRunes would discard anyway and
// that can never belong to a double-encoded sequence: astral-plane
// characters, the replacement character, and punctuation above 0xFF.
func stripUnrepairable(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r > 0xFFFF || r == utf8.RuneError || (r > 0xFF && unicode.IsPunct(r)) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// filterRunes drops punctuation, control characters, the replacement
// character, and anything outside the Basic Multilingual Plane. Letters,
// digits, whitespace, and BMP symbols (emoji, currency, math) pass through,
// so accented text and reactions like ❤ survive.
func filterRunes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			b.WriteRune(r)
		case r == utf8.RuneError || r > 0xFFFF:
			// replacement char, decode damage, or astral plane
		case unicode.IsControl(r) || unicode.IsPunct(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Tokenize splits normalized content into words on whitespace.
func Tokenize(s string) []string {
	return strings.Fields(s)
}

// WordCount reports the number of whitespace-separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
