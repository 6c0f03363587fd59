package ports

// Normalizer canonicalizes raw text. It must be pure and total.
type Normalizer interface {
	Normalize(text string) string
}

// Tokenizer re-tokenizes normalized text for languages written without spaces.
type Tokenizer interface {
	Tokenize(text string) string
}

// SentenceSplitter splits text into ordered sentences.
// Non-empty input yields at least one sentence.
type SentenceSplitter interface {
	Split(text string) []string
}
