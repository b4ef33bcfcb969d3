// Package pdf reads chat transcripts from PDF exports using the pdftotext
// tool from poppler-utils.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/swimanni/chat-cleaner/internal/core/domain"
	"github.com/swimanni/chat-cleaner/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.TranscriptReader = (*Reader)(nil)

// CommandRunner abstracts external command execution for testing.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Reader extracts the text of a PDF as one transcript spanning all pages.
type Reader struct {
	runner CommandRunner
}

// New creates a PDF transcript reader using pdftotext.
func New() *Reader {
	return &Reader{runner: execRunner{}}
}

// NewWithRunner creates a reader with a custom command runner.
func NewWithRunner(runner CommandRunner) *Reader {
	return &Reader{runner: runner}
}

// Extensions returns the file extensions this reader handles.
func (r *Reader) Extensions() []string {
	return []string{".pdf"}
}

// Read extracts the PDF text with layout preserved. Column layout matters:
// chat exports often place timestamps and speakers in separate columns.
func (r *Reader) Read(ctx context.Context, path string) ([]domain.RawTranscript, error) {
	output, err := r.runner.Run(ctx, "pdftotext", "-layout", path, "-")
	if err != nil {
		if isNotInstalled(err) {
			return nil, fmt.Errorf("pdftotext not found\n%s: %w", InstallInstructions(), domain.ErrUnsupportedInput)
		}
		return nil, fmt.Errorf("extracting pdf text: %w", err)
	}

	text := string(output)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("pdf %s contains no extractable text: %w", path, domain.ErrInvalidInput)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []domain.RawTranscript{
		{
			ConversationID: base,
			Text:           text,
			SourcePath:     path,
		},
	}, nil
}

// isNotInstalled reports whether the error means the binary is missing.
func isNotInstalled(err error) bool {
	var execErr *exec.Error
	return errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound)
}

// InstallInstructions returns platform hints for installing pdftotext.
func InstallInstructions() string {
	return `pdftotext is part of poppler-utils:
  macOS:  brew install poppler
  Debian: apt install poppler-utils
  Fedora: dnf install poppler-utils`
}
