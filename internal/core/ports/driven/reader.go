package driven

import (
	"context"

	"github.com/swimanni/chat-cleaner/internal/core/domain"
)

// TranscriptReader extracts raw conversation units from one input format.
// Each reader handles specific file extensions (e.g. ".csv", ".pdf").
type TranscriptReader interface {
	// Extensions returns the lowercase file extensions this reader
	// handles, dot included.
	Extensions() []string

	// Read yields (conversation id, raw text) pairs from the file.
	// A spreadsheet produces one transcript per row; a text file one
	// transcript (or several, when segmentation applies); a PDF one
	// transcript spanning all pages.
	Read(ctx context.Context, path string) ([]domain.RawTranscript, error)
}

// ReaderRegistry selects the appropriate reader for an input file.
type ReaderRegistry interface {
	// Read dispatches to the reader registered for the file's extension.
	// Returns domain.ErrUnsupportedInput when no reader matches.
	Read(ctx context.Context, path string) ([]domain.RawTranscript, error)

	// Supported reports whether any reader handles the file.
	Supported(path string) bool
}
