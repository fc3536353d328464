// Package textsplitter chunks statutory text into token-bounded pieces
// with a preference for keeping sentences intact.
package textsplitter

import "strings"

// TextSplitter is the interface for splitting text.
type TextSplitter interface {
	SplitText(text string) []string
}

// Tokenizer is the interface for tokenizing text.
// It encodes text into a list of string tokens.
type Tokenizer interface {
	Encode(text string) []string
}

// SentenceStrategy is the interface for primary sentence splitting.
type SentenceStrategy interface {
	Split(text string) []string
}

// SimpleTokenizer tokenizes text by splitting on whitespace.
type SimpleTokenizer struct{}

func NewSimpleTokenizer() *SimpleTokenizer {
	return &SimpleTokenizer{}
}

func (t *SimpleTokenizer) Encode(text string) []string {
	return strings.Fields(text)
}

var _ Tokenizer = (*SimpleTokenizer)(nil)
