package reader

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/galalqassas/USLaw-expert-RAG/schema"
)

// HTMLReader reads HTML files and extracts their text content.
// Statute pages carry a lot of navigation chrome, so script, style and
// similar tags are removed entirely before text extraction.
type HTMLReader struct {
	// TagsToRemove specifies which HTML tags to remove entirely.
	TagsToRemove []string
}

// NewHTMLReader creates a new HTMLReader with the default removal set.
func NewHTMLReader() *HTMLReader {
	return &HTMLReader{
		TagsToRemove: []string{"script", "style", "meta", "link", "noscript"},
	}
}

// LoadFromFile loads a single HTML file as one document.
func (r *HTMLReader) LoadFromFile(filePath string) ([]schema.Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	text := r.ExtractText(string(content))

	doc := schema.Document{
		ID:   filePath,
		Text: text,
		Metadata: map[string]interface{}{
			"file_path": filePath,
			"file_name": filepath.Base(filePath),
			"file_type": "html",
		},
	}

	return []schema.Document{doc}, nil
}

var (
	commentRegex = regexp.MustCompile(`<!--[\s\S]*?-->`)
	bodyRegex    = regexp.MustCompile(`(?is)<body[^>]*>(.*?)</body>`)
	tagRegex     = regexp.MustCompile(`<[^>]+>`)
	spaceRegex   = regexp.MustCompile(`[ \t]+`)
	newlineRegex = regexp.MustCompile(`\n\s*\n+`)
)

// ExtractText strips markup from an HTML document and returns plain text
// with whitespace collapsed.
func (r *HTMLReader) ExtractText(html string) string {
	text := html

	for _, tag := range r.TagsToRemove {
		pairPattern := regexp.MustCompile(fmt.Sprintf(`(?is)<%s[^>]*>.*?</%s>`, tag, tag))
		text = pairPattern.ReplaceAllString(text, "")

		selfClosing := regexp.MustCompile(fmt.Sprintf(`(?i)<%s[^>]*/?>`, tag))
		text = selfClosing.ReplaceAllString(text, "")
	}

	text = commentRegex.ReplaceAllString(text, "")

	if matches := bodyRegex.FindStringSubmatch(text); len(matches) > 1 {
		text = matches[1]
	}

	// Block elements become newlines so sections stay separated.
	blockTags := []string{"div", "p", "br", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre"}
	for _, tag := range blockTags {
		openRegex := regexp.MustCompile(fmt.Sprintf(`(?i)<%s[^>]*>`, tag))
		text = openRegex.ReplaceAllString(text, "\n")

		closeRegex := regexp.MustCompile(fmt.Sprintf(`(?i)</%s>`, tag))
		text = closeRegex.ReplaceAllString(text, "\n")
	}

	text = tagRegex.ReplaceAllString(text, "")
	text = decodeHTMLEntities(text)

	text = spaceRegex.ReplaceAllString(text, " ")
	text = newlineRegex.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// decodeHTMLEntities decodes common HTML entities.
func decodeHTMLEntities(text string) string {
	entities := map[string]string{
		"&nbsp;":  " ",
		"&amp;":   "&",
		"&lt;":    "<",
		"&gt;":    ">",
		"&quot;":  `"`,
		"&apos;":  "'",
		"&#39;":   "'",
		"&mdash;": "—",
		"&ndash;": "–",
		"&sect;":  "§",
		"&copy;":  "©",
		"&rsquo;": "'",
		"&lsquo;": "'",
		"&ldquo;": "“",
		"&rdquo;": "”",
	}

	for entity, replacement := range entities {
		text = strings.ReplaceAll(text, entity, replacement)
	}

	numericRegex := regexp.MustCompile(`&#(\d+);`)
	text = numericRegex.ReplaceAllStringFunc(text, func(match string) string {
		var num int
		fmt.Sscanf(match, "&#%d;", &num)
		if num > 0 && num < 0x10FFFF {
			return string(rune(num))
		}
		return match
	})

	return text
}

var _ FileReader = (*HTMLReader)(nil)
