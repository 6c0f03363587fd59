package text

import (
	"cmp"
	"maps"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalizer applies NFC composition, unifies line endings, collapses runs of
// horizontal whitespace and trims the result.
type Normalizer struct {
	substitutions *strings.Replacer
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*normalizerConfig)

type normalizerConfig struct {
	pairs []string
}

// WithSubstitutions replaces each key with its value after normalization,
// e.g. contractions such as "can't" -> "can not". Where keys overlap at the
// same position the longest wins; equal lengths go in lexical order.
func WithSubstitutions(subs map[string]string) NormalizerOption {
	return func(c *normalizerConfig) {
		keys := slices.SortedFunc(maps.Keys(subs), func(a, b string) int {
			if n := cmp.Compare(len(b), len(a)); n != 0 {
				return n
			}
			return strings.Compare(a, b)
		})
		for _, from := range keys {
			c.pairs = append(c.pairs, from, subs[from])
		}
	}
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	var cfg normalizerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	n := &Normalizer{}
	if len(cfg.pairs) > 0 {
		n.substitutions = strings.NewReplacer(cfg.pairs...)
	}
	return n
}

// Normalize implements ports.Normalizer.
func (n *Normalizer) Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if r != '\n' && unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 && r != '\n' {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}

	out := strings.TrimSpace(b.String())
	if n.substitutions != nil {
		out = n.substitutions.Replace(out)
	}
	return out
}
