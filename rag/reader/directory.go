package reader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/galalqassas/USLaw-expert-RAG/schema"
)

// DirectoryReader walks a directory tree and loads every supported file,
// dispatching to a per-extension reader. HTML and PDF get dedicated
// readers; plain text files are read verbatim.
type DirectoryReader struct {
	// InputDir is the directory to load documents from.
	InputDir string
	// Recursive determines if subdirectories should be searched.
	Recursive bool
	// RequiredExts filters which file extensions to load.
	RequiredExts []string

	htmlReader *HTMLReader
	pdfReader  *PDFReader
}

// DefaultRequiredExts lists the extensions loaded when none are specified.
var DefaultRequiredExts = []string{".html", ".htm", ".pdf", ".txt"}

// NewDirectoryReader creates a recursive reader over inputDir with the
// default extension set.
func NewDirectoryReader(inputDir string) *DirectoryReader {
	return &DirectoryReader{
		InputDir:     inputDir,
		Recursive:    true,
		RequiredExts: DefaultRequiredExts,
		htmlReader:   NewHTMLReader(),
		pdfReader:    NewPDFReader(),
	}
}

// LoadData loads all supported documents under the input directory.
func (r *DirectoryReader) LoadData() ([]schema.Document, error) {
	return r.LoadDataWithContext(context.Background())
}

// LoadDataWithContext loads all supported documents, honoring ctx
// cancellation between files.
func (r *DirectoryReader) LoadDataWithContext(ctx context.Context) ([]schema.Document, error) {
	files, err := r.getFiles()
	if err != nil {
		return nil, err
	}

	var docs []schema.Document
	for _, file := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		fileDocs, err := r.LoadFromFile(file)
		if err != nil {
			return nil, NewReaderError(file, "failed to load file", err)
		}
		docs = append(docs, fileDocs...)
	}

	return docs, nil
}

// LoadFromFile loads one file through the reader matching its extension.
func (r *DirectoryReader) LoadFromFile(filePath string) ([]schema.Document, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".html", ".htm":
		return r.htmlReader.LoadFromFile(filePath)
	case ".pdf":
		return r.pdfReader.LoadFromFile(filePath)
	case ".txt":
		return r.loadTextFile(filePath)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filepath.Ext(filePath))
	}
}

func (r *DirectoryReader) loadTextFile(filePath string) ([]schema.Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	doc := schema.Document{
		ID:   filePath,
		Text: strings.TrimSpace(string(content)),
		Metadata: map[string]interface{}{
			"file_path": filePath,
			"file_name": filepath.Base(filePath),
			"file_type": "text",
		},
	}

	return []schema.Document{doc}, nil
}

func (r *DirectoryReader) getFiles() ([]string, error) {
	if r.InputDir == "" {
		return nil, fmt.Errorf("no input directory specified")
	}

	wanted := make(map[string]bool, len(r.RequiredExts))
	for _, ext := range r.RequiredExts {
		wanted[strings.ToLower(ext)] = true
	}

	var files []string
	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if !r.Recursive && path != r.InputDir {
				return filepath.SkipDir
			}
			return nil
		}
		if wanted[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	}

	if err := filepath.Walk(r.InputDir, walkFn); err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", r.InputDir, err)
	}

	return files, nil
}

var _ ReaderWithContext = (*DirectoryReader)(nil)
var _ FileReader = (*DirectoryReader)(nil)
