package engine

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/galalqassas/USLaw-expert-RAG/schema"
)

// SourcePassage is the serializable form of a retrieved passage.
// Score is a pointer so an absent similarity score stays null instead of
// collapsing to 0. TextLength counts characters, not bytes; statute text
// carries multi-byte runes like the section sign.
type SourcePassage struct {
	Rank       int      `json:"rank"`
	Score      *float64 `json:"score"`
	FilePath   string   `json:"file_path"`
	Text       string   `json:"text"`
	TextLength int      `json:"text_length"`
}

// FormatPassages turns retrieved nodes into serializable passage records.
// Ranks are 1-based in input order. Absolute file paths nested under
// baseDir are rewritten relative to it; any path that cannot be
// relativized is left unchanged. Total over any input, including nil.
func FormatPassages(nodes []schema.NodeWithScore, baseDir string) []SourcePassage {
	passages := make([]SourcePassage, 0, len(nodes))
	for i, node := range nodes {
		text := node.Node.Text
		passages = append(passages, SourcePassage{
			Rank:       i + 1,
			Score:      node.Score,
			FilePath:   relativizePath(node.Node.FilePath(), baseDir),
			Text:       text,
			TextLength: utf8.RuneCountInString(text),
		})
	}
	return passages
}

func relativizePath(path, baseDir string) string {
	if path == "Unknown" || baseDir == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(baseDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
