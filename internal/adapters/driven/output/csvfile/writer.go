// Package csvfile emits cleaned conversations as CSV artifacts.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/swimanni/chat-cleaner/internal/core/domain"
	"github.com/swimanni/chat-cleaner/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.ResultWriter = (*Writer)(nil)

// header is the fixed column layout of every artifact.
var header = []string{"time", "speaker", "role", "message"}

// Writer writes one <conversation id>_clean.csv file per result into a
// target directory. Files are written atomically: the artifact appears
// under its final name only once fully written, so a failed conversation
// or a crash never leaves a partial artifact behind.
type Writer struct {
	outputDir string
}

// NewWriter creates a CSV writer targeting outputDir. The directory is
// created on first write, not here.
func NewWriter(outputDir string) *Writer {
	if outputDir == "" {
		outputDir = "."
	}
	return &Writer{outputDir: outputDir}
}

// Write persists the result in record order and returns the artifact path.
func (w *Writer) Write(ctx context.Context, result *domain.ConversationResult) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	finalPath := filepath.Join(w.outputDir, sanitiseName(result.ConversationID)+"_clean.csv")

	tmp, err := os.CreateTemp(w.outputDir, ".chatclean-*")
	if err != nil {
		return "", fmt.Errorf("creating temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	if err := cw.Write(header); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing header: %w", err)
	}

	for _, rec := range result.Records {
		ts := ""
		if rec.Time != nil {
			ts = *rec.Time
		}
		if err := cw.Write([]string{ts, rec.Speaker, string(rec.Role), rec.Message}); err != nil {
			tmp.Close()
			return "", fmt.Errorf("writing record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("flushing artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp artifact: %w", err)
	}

	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		return "", fmt.Errorf("renaming artifact: %w", err)
	}

	return finalPath, nil
}

// sanitiseName replaces path-hostile characters in a conversation id so it
// is safe as a file name component.
func sanitiseName(id string) string {
	if id == "" {
		return "conversation"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		default:
			return r
		}
	}, id)
}
