package textsplitter

import (
	"fmt"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// RegexStrategy uses a regex for sentence splitting.
type RegexStrategy struct {
	regexStr string
}

// NewRegexStrategy creates a regex-based strategy. An empty pattern selects
// the default chunking regex.
func NewRegexStrategy(regexStr string) *RegexStrategy {
	if regexStr == "" {
		regexStr = DefaultChunkingRegex
	}
	return &RegexStrategy{regexStr: regexStr}
}

func (s *RegexStrategy) Split(text string) []string {
	return SplitByRegex(s.regexStr)(text)
}

// EnglishStrategy uses neurosnap/sentences with its embedded English
// training data for sentence boundary detection. Statute text is full of
// abbreviations ("U.S.C.", "sec.") that a naive regex mis-splits.
type EnglishStrategy struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewEnglishStrategy creates a strategy backed by the punkt English model.
func NewEnglishStrategy() (*EnglishStrategy, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load english sentence tokenizer: %w", err)
	}
	return &EnglishStrategy{tokenizer: tokenizer}, nil
}

func (s *EnglishStrategy) Split(text string) []string {
	tokenized := s.tokenizer.Tokenize(text)
	result := make([]string, len(tokenized))
	for i, sent := range tokenized {
		result[i] = sent.Text
	}
	return result
}

var _ SentenceStrategy = (*RegexStrategy)(nil)
var _ SentenceStrategy = (*EnglishStrategy)(nil)
