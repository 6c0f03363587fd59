package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPattern_Match(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		ok      bool
		stars   []string
	}{
		{"HELLO", "hello", true, nil},
		{"HELLO", "Hello!", true, nil},
		{"HELLO", "hello there", false, nil},
		{"MY NAME IS *", "my name is Ada Lovelace", true, []string{"ADA LOVELACE"}},
		{"MY NAME IS *", "my name is", false, nil},
		{"* IS A *", "the cat is a small animal", true, []string{"THE CAT", "SMALL ANIMAL"}},
		{"*", "anything at all", true, []string{"ANYTHING AT ALL"}},
		{"WHAT IS 3.14", "what is 3.14", true, nil},
		{"DON'T STOP", "don't stop", true, nil},
		{"$NULL_INPUT$", "$NULL_INPUT$", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.input, func(t *testing.T) {
			stars, ok := compilePattern(tt.pattern).match(words(tt.input))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.stars, stars)
		})
	}
}

func TestPattern_Literals(t *testing.T) {
	assert.Equal(t, 2, compilePattern("* IS A *").literals())
	assert.Equal(t, 0, compilePattern("*").literals())
}
