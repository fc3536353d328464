package reader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/galalqassas/USLaw-expert-RAG/schema"
)

// PDFReader reads PDF files and extracts their text content using the
// ledongthuc/pdf library.
type PDFReader struct{}

// NewPDFReader creates a new PDFReader.
func NewPDFReader() *PDFReader {
	return &PDFReader{}
}

// LoadFromFile loads a single PDF file as one document, concatenating the
// text of all pages. Pages that fail to parse are skipped.
func (r *PDFReader) LoadFromFile(filePath string) ([]schema.Document, error) {
	f, pdfReader, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	numPages := pdfReader.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	var textBuilder strings.Builder
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		text = strings.TrimSpace(text)
		if text != "" {
			if textBuilder.Len() > 0 {
				textBuilder.WriteString("\n\n")
			}
			textBuilder.WriteString(text)
		}
	}

	fullText := strings.TrimSpace(textBuilder.String())
	if fullText == "" {
		return nil, fmt.Errorf("no text content found in PDF")
	}

	doc := schema.Document{
		ID:   filePath,
		Text: fullText,
		Metadata: map[string]interface{}{
			"file_path":   filePath,
			"file_name":   filepath.Base(filePath),
			"file_type":   "pdf",
			"total_pages": numPages,
		},
	}

	return []schema.Document{doc}, nil
}

var _ FileReader = (*PDFReader)(nil)
