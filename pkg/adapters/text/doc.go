// Package text provides the default preprocessing collaborators: a Unicode
// normalizer, a punctuation-based sentence splitter and a character-level
// tokenizer for CJK scripts.
package text
