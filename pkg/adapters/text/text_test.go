package text_test

import (
	"testing"

	"github.com/aretw0/colloquy/pkg/adapters/text"
	"github.com/aretw0/colloquy/pkg/ports"
	"github.com/stretchr/testify/assert"
)

var (
	_ ports.Normalizer       = (*text.Normalizer)(nil)
	_ ports.SentenceSplitter = (*text.Splitter)(nil)
	_ ports.Tokenizer        = text.CJKTokenizer{}
)

func TestNormalizer(t *testing.T) {
	n := text.NewNormalizer()

	assert.Equal(t, "Hello world", n.Normalize("  Hello \t  world  "))
	assert.Equal(t, "line one\nline two", n.Normalize("line one\r\nline two"))
	// "e" + combining acute accent composes to a single rune
	assert.Equal(t, "caf\u00e9", n.Normalize("cafe\u0301"))
	assert.Equal(t, "", n.Normalize("   "))
}

func TestNormalizer_Substitutions(t *testing.T) {
	n := text.NewNormalizer(text.WithSubstitutions(map[string]string{"can't": "can not"}))
	assert.Equal(t, "I can not go", n.Normalize("I  can't go"))
}

func TestNormalizer_OverlappingSubstitutions(t *testing.T) {
	subs := map[string]string{
		"can":   "is able to",
		"can't": "can not",
		"won't": "will not",
		"wo":    "WO",
	}
	for i := 0; i < 50; i++ {
		n := text.NewNormalizer(text.WithSubstitutions(subs))
		assert.Equal(t, "I can not go, I will not stay, I is able to run", n.Normalize("I can't go, I won't stay, I can run"))
	}
}

func TestSplitter(t *testing.T) {
	s := text.NewSplitter("")

	tests := []struct {
		in   string
		want []string
	}{
		{"Hello. How are you?", []string{"Hello", "How are you"}},
		{"Hi", []string{"Hi"}},
		{"Wait!! Really?!", []string{"Wait", "Really"}},
		{"Pi is 3.14. Nice", []string{"Pi is 3.14", "Nice"}},
		{"first\nsecond", []string{"first", "second"}},
		{"こんにちは。元気？", []string{"こんにちは", "元気"}},
		{"...", []string{"..."}},
		{"", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Split(tt.in))
		})
	}
}

func TestSplitter_CustomTerminators(t *testing.T) {
	s := text.NewSplitter(";")
	assert.Equal(t, []string{"a. b", "c"}, s.Split("a. b; c"))
}

func TestCJKTokenizer(t *testing.T) {
	var tok text.CJKTokenizer
	assert.Equal(t, "私 は 学 生 で す", tok.Tokenize("私は学生です"))
	assert.Equal(t, "hello 世 界", tok.Tokenize("hello世界"))
	assert.Equal(t, "plain text", tok.Tokenize("plain  text"))
}
