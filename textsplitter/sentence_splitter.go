package textsplitter

import "strings"

const (
	DefaultChunkSize     = 1024
	DefaultChunkOverlap  = 200
	DefaultParagraphSep  = "\n\n\n"
	DefaultSeparator     = " "
	DefaultChunkingRegex = `[^,.;。？！]+[,.;。？！]?|[,.;。？！]`
)

// textSplit holds intermediate split information.
type textSplit struct {
	text       string
	isSentence bool
	tokenSize  int
}

// SentenceSplitter splits text with a preference for complete sentences.
// Splitting is hierarchical: paragraphs first, then sentences via the
// configured strategy, then sub-sentence fallbacks for oversized pieces.
type SentenceSplitter struct {
	ChunkSize              int
	ChunkOverlap           int
	Separator              string
	ParagraphSeparator     string
	SecondaryChunkingRegex string
	Tokenizer              Tokenizer
	Strategy               SentenceStrategy

	splitFns            []func(string) []string
	subSentenceSplitFns []func(string) []string
}

// NewSentenceSplitter creates a new SentenceSplitter.
// Pass chunkSize <= 0 to use the default. chunkOverlap of 0 is honored as
// given. A nil tokenizer falls back to SimpleTokenizer and a nil strategy
// to the default chunking regex.
func NewSentenceSplitter(
	chunkSize int,
	chunkOverlap int,
	tokenizer Tokenizer,
	strategy SentenceStrategy,
) *SentenceSplitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	if tokenizer == nil {
		tokenizer = NewSimpleTokenizer()
	}

	if strategy == nil {
		strategy = NewRegexStrategy(DefaultChunkingRegex)
	}

	s := &SentenceSplitter{
		ChunkSize:              chunkSize,
		ChunkOverlap:           chunkOverlap,
		Separator:              DefaultSeparator,
		ParagraphSeparator:     DefaultParagraphSep,
		SecondaryChunkingRegex: DefaultChunkingRegex,
		Tokenizer:              tokenizer,
		Strategy:               strategy,
	}

	s.initSplitFns()
	return s
}

func (s *SentenceSplitter) initSplitFns() {
	s.splitFns = []func(string) []string{
		SplitBySep(s.ParagraphSeparator),
		func(text string) []string { return s.Strategy.Split(text) },
	}

	// Fallbacks for sentences that still exceed the chunk size.
	s.subSentenceSplitFns = []func(string) []string{
		SplitByRegex(s.SecondaryChunkingRegex),
		SplitBySep(s.Separator),
		SplitByChar(),
	}
}

// SplitText splits the text into chunks.
func (s *SentenceSplitter) SplitText(text string) []string {
	if text == "" {
		return []string{text}
	}

	splits := s.split(text, s.ChunkSize)
	chunks := s.merge(splits, s.ChunkSize)
	return s.postprocessChunks(chunks)
}

func (s *SentenceSplitter) split(text string, chunkSize int) []textSplit {
	tokenSize := s.getTokenSize(text)
	if tokenSize <= chunkSize {
		return []textSplit{{text: text, isSentence: true, tokenSize: tokenSize}}
	}

	splitStrs, isSentence := s.getSplitsByFns(text)
	var splits []textSplit

	for _, splitStr := range splitStrs {
		tokenSize := s.getTokenSize(splitStr)
		if tokenSize <= chunkSize {
			splits = append(splits, textSplit{
				text:       splitStr,
				isSentence: isSentence,
				tokenSize:  tokenSize,
			})
		} else {
			splits = append(splits, s.split(splitStr, chunkSize)...)
		}
	}
	return splits
}

func (s *SentenceSplitter) merge(splits []textSplit, chunkSize int) []string {
	var chunks []string
	type bufItem struct {
		text string
		len  int
	}
	var curChunk []bufItem
	var lastChunk []bufItem
	curChunkLen := 0
	newChunk := true

	closeChunk := func() {
		var sb strings.Builder
		for _, item := range curChunk {
			sb.WriteString(item.text)
		}
		chunks = append(chunks, sb.String())

		lastChunk = curChunk
		curChunk = nil
		curChunkLen = 0
		newChunk = true

		// Seed the next chunk with trailing splits from the previous one
		// until the overlap budget is spent.
		if len(lastChunk) > 0 {
			lastIndex := len(lastChunk) - 1
			for lastIndex >= 0 {
				item := lastChunk[lastIndex]
				if curChunkLen+item.len > s.ChunkOverlap {
					break
				}
				curChunkLen += item.len
				curChunk = append([]bufItem{item}, curChunk...)
				lastIndex--
			}
		}
	}

	splitIdx := 0
	for splitIdx < len(splits) {
		curSplit := splits[splitIdx]

		if curChunkLen+curSplit.tokenSize > chunkSize && !newChunk {
			closeChunk()
			continue
		}

		if curSplit.isSentence || curChunkLen+curSplit.tokenSize <= chunkSize || newChunk {
			curChunkLen += curSplit.tokenSize
			curChunk = append(curChunk, bufItem{text: curSplit.text, len: curSplit.tokenSize})
			splitIdx++
			newChunk = false
		} else {
			closeChunk()
		}
	}

	if !newChunk {
		var sb strings.Builder
		for _, item := range curChunk {
			sb.WriteString(item.text)
		}
		chunks = append(chunks, sb.String())
	}

	return chunks
}

func (s *SentenceSplitter) postprocessChunks(chunks []string) []string {
	var newChunks []string
	for _, chunk := range chunks {
		stripped := strings.TrimSpace(chunk)
		if stripped == "" {
			continue
		}
		newChunks = append(newChunks, stripped)
	}
	return newChunks
}

func (s *SentenceSplitter) getTokenSize(text string) int {
	return len(s.Tokenizer.Encode(text))
}

func (s *SentenceSplitter) getSplitsByFns(text string) ([]string, bool) {
	for _, splitFn := range s.splitFns {
		splits := splitFn(text)
		if len(splits) > 1 {
			return splits, true
		}
	}

	var splits []string
	for _, splitFn := range s.subSentenceSplitFns {
		splits = splitFn(text)
		if len(splits) > 1 {
			break
		}
	}
	return splits, false
}

var _ TextSplitter = (*SentenceSplitter)(nil)
