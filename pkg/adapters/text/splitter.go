package text

import (
	"strings"
	"unicode"
)

// DefaultTerminators end a sentence.
const DefaultTerminators = ".!?。！？"

// Splitter breaks text into sentences at terminator characters and newlines.
// Terminators are dropped; a period between two digits is kept.
type Splitter struct {
	terminators string
}

// NewSplitter creates a Splitter. An empty terminators string selects DefaultTerminators.
func NewSplitter(terminators string) *Splitter {
	if terminators == "" {
		terminators = DefaultTerminators
	}
	return &Splitter{terminators: terminators}
}

// Split implements ports.SentenceSplitter.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	var sentences []string
	var cur strings.Builder

	flush := func() {
		if sentence := strings.TrimSpace(cur.String()); sentence != "" {
			sentences = append(sentences, sentence)
		}
		cur.Reset()
	}

	for i, r := range runes {
		switch {
		case r == '\n':
			flush()
		case strings.ContainsRune(s.terminators, r):
			if r == '.' && i > 0 && i+1 < len(runes) && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]) {
				cur.WriteRune(r)
				continue
			}
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()

	if len(sentences) == 0 {
		return []string{strings.TrimSpace(text)}
	}
	return sentences
}
