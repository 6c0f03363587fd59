package rules

import (
	"strings"
	"unicode"

	"github.com/aretw0/colloquy/pkg/domain"
)

// Wildcard matches one or more words.
const Wildcard = "*"

// pattern is a compiled sequence of upper-cased words and wildcards.
type pattern []string

func compilePattern(s string) pattern {
	return pattern(words(s))
}

// words upper-cases s and splits it into words, dropping punctuation that
// sentence splitting leaves behind.
func words(s string) []string {
	return strings.FieldsFunc(domain.Upper(s), func(r rune) bool {
		if string(r) == Wildcard {
			return false
		}
		return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != '\'' && r != '-' && r != '_' && r != '$')
	})
}

// match reports whether input matches p and returns the text captured by each
// wildcard, in order.
func (p pattern) match(input []string) ([]string, bool) {
	var stars []string
	if !p.matchFrom(0, input, 0, &stars) {
		return nil, false
	}
	return stars, true
}

func (p pattern) matchFrom(pi int, input []string, ii int, stars *[]string) bool {
	if pi == len(p) {
		return ii == len(input)
	}
	if p[pi] != Wildcard {
		if ii >= len(input) || input[ii] != p[pi] {
			return false
		}
		return p.matchFrom(pi+1, input, ii+1, stars)
	}
	// Shortest capture first, so later wildcards get the rest.
	for end := ii + 1; end <= len(input); end++ {
		mark := len(*stars)
		*stars = append(*stars, strings.Join(input[ii:end], " "))
		if p.matchFrom(pi+1, input, end, stars) {
			return true
		}
		*stars = (*stars)[:mark]
	}
	return false
}

// literals counts the non-wildcard words, used to rank rules.
func (p pattern) literals() int {
	n := 0
	for _, w := range p {
		if w != Wildcard {
			n++
		}
	}
	return n
}
