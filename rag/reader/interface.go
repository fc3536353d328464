// Package reader provides document loading for the ingestion pipeline.
package reader

import (
	"context"

	"github.com/galalqassas/USLaw-expert-RAG/schema"
)

// Reader is the interface for document loaders.
type Reader interface {
	// LoadData loads documents and returns them as a slice.
	LoadData() ([]schema.Document, error)
}

// ReaderWithContext is a Reader that supports context for cancellation.
type ReaderWithContext interface {
	Reader
	LoadDataWithContext(ctx context.Context) ([]schema.Document, error)
}

// FileReader is a Reader that loads from file paths.
type FileReader interface {
	// LoadFromFile loads documents from a specific file path.
	LoadFromFile(filePath string) ([]schema.Document, error)
}

// ReaderError represents an error during document loading.
type ReaderError struct {
	Source  string // File path that caused the error
	Message string
	Err     error
}

func (e *ReaderError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Source + ": " + e.Message
}

func (e *ReaderError) Unwrap() error {
	return e.Err
}

// NewReaderError creates a new ReaderError.
func NewReaderError(source, message string, err error) *ReaderError {
	return &ReaderError{
		Source:  source,
		Message: message,
		Err:     err,
	}
}
