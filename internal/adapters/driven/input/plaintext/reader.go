// Package plaintext reads chat transcripts from plain text files.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/swimanni/chat-cleaner/internal/core/domain"
	"github.com/swimanni/chat-cleaner/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.TranscriptReader = (*Reader)(nil)

// Reader treats a text file as one raw transcript. A file holding several
// concatenated conversations is handled downstream by segmentation, not
// here.
type Reader struct{}

// New creates a plain text transcript reader.
func New() *Reader {
	return &Reader{}
}

// Extensions returns the file extensions this reader handles.
func (r *Reader) Extensions() []string {
	return []string{".txt", ".log"}
}

// Read returns the whole file as a single transcript.
func (r *Reader) Read(ctx context.Context, path string) ([]domain.RawTranscript, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading text file: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("text file %s is empty: %w", path, domain.ErrInvalidInput)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []domain.RawTranscript{
		{
			ConversationID: base,
			Text:           string(data),
			SourcePath:     path,
		},
	}, nil
}
