package textsplitter

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type SentenceSplitterTestSuite struct {
	suite.Suite
}

func TestSentenceSplitterTestSuite(t *testing.T) {
	suite.Run(t, new(SentenceSplitterTestSuite))
}

func (s *SentenceSplitterTestSuite) TestSplitText_Basic() {
	splitter := NewSentenceSplitter(100, 0, nil, nil)
	text := "Hello world. This is a test."
	chunks := splitter.SplitText(text)
	s.Len(chunks, 1)
	s.Equal("Hello world. This is a test.", chunks[0])
}

func (s *SentenceSplitterTestSuite) TestSplitText_SplitBySentence() {
	// SimpleTokenizer counts whitespace-separated words.
	splitter := NewSentenceSplitter(3, 0, nil, nil)
	text := "Hello world. This is a test."
	chunks := splitter.SplitText(text)

	s.Len(chunks, 2)
	s.Equal("Hello world. This", chunks[0])
	s.Equal("is a test.", chunks[1])
}

func (s *SentenceSplitterTestSuite) TestSplitText_Overlap() {
	splitter := NewSentenceSplitter(3, 1, nil, nil)
	text := "A B C D E"
	chunks := splitter.SplitText(text)

	s.Len(chunks, 2)
	s.Equal("A B C", chunks[0])
	s.Equal("C D E", chunks[1])
}

func (s *SentenceSplitterTestSuite) TestSplitText_Empty() {
	splitter := NewSentenceSplitter(10, 0, nil, nil)
	chunks := splitter.SplitText("")
	s.Len(chunks, 1)
	s.Equal("", chunks[0])
}

func (s *SentenceSplitterTestSuite) TestSplitText_ChunksRespectTokenBudget() {
	splitter := NewSentenceSplitter(5, 0, nil, nil)
	text := "One two three. Four five six. Seven eight nine. Ten eleven twelve."
	chunks := splitter.SplitText(text)

	s.Greater(len(chunks), 1)
	tok := NewSimpleTokenizer()
	for _, chunk := range chunks {
		s.LessOrEqual(len(tok.Encode(chunk)), 5)
	}
}

func (s *SentenceSplitterTestSuite) TestSplitTextKeepSeparator() {
	parts := SplitTextKeepSeparator("a\n\nb\n\nc", "\n\n")
	s.Equal([]string{"a", "\n\nb", "\n\nc"}, parts)

	s.Equal([]string{"abc"}, SplitTextKeepSeparator("abc", ""))
	s.Empty(SplitTextKeepSeparator("", ""))
}

func (s *SentenceSplitterTestSuite) TestEnglishStrategy_SplitsSentences() {
	strategy, err := NewEnglishStrategy()
	s.Require().NoError(err)

	sentences := strategy.Split("Fair use is a doctrine in copyright law. It has four factors.")
	s.Len(sentences, 2)
}
