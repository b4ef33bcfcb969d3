// Package input dispatches transcript extraction to per-format readers.
package input

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/swimanni/chat-cleaner/internal/core/domain"
	"github.com/swimanni/chat-cleaner/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ReaderRegistry = (*Registry)(nil)

// Registry routes input files to the reader registered for their
// extension. Later registrations win on extension collisions.
type Registry struct {
	readers map[string]driven.TranscriptReader
}

// NewRegistry creates a registry over the given readers.
func NewRegistry(readers ...driven.TranscriptReader) *Registry {
	r := &Registry{readers: make(map[string]driven.TranscriptReader)}
	for _, reader := range readers {
		for _, ext := range reader.Extensions() {
			r.readers[strings.ToLower(ext)] = reader
		}
	}
	return r
}

// Read dispatches to the reader registered for the file's extension.
func (r *Registry) Read(ctx context.Context, path string) ([]domain.RawTranscript, error) {
	reader, ok := r.readers[normaliseExt(path)]
	if !ok {
		return nil, fmt.Errorf("no reader for %q: %w", filepath.Ext(path), domain.ErrUnsupportedInput)
	}
	return reader.Read(ctx, path)
}

// Supported reports whether any reader handles the file.
func (r *Registry) Supported(path string) bool {
	_, ok := r.readers[normaliseExt(path)]
	return ok
}

// Extensions returns the sorted-free list of registered extensions.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.readers))
	for ext := range r.readers {
		exts = append(exts, ext)
	}
	return exts
}

func normaliseExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
