package text

import (
	"strings"
	"unicode"
)

// CJKTokenizer separates Han, Hiragana and Katakana characters with spaces so
// that word-oriented responders can match them one character at a time.
// Other scripts pass through unchanged.
type CJKTokenizer struct{}

// Tokenize implements ports.Tokenizer.
func (CJKTokenizer) Tokenize(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		if isCJK(r) {
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana)
}
