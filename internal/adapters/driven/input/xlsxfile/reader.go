// Package xlsxfile reads chat transcripts from Excel workbooks.
package xlsxfile

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/swimanni/chat-cleaner/internal/core/domain"
	"github.com/swimanni/chat-cleaner/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.TranscriptReader = (*Reader)(nil)

// textColumns are header names recognised as the transcript column, in
// priority order.
var textColumns = []string{"transcript", "conversation", "chat", "text", "message"}

// Reader extracts one raw transcript per data row of the first sheet.
// Support-desk exports typically hold one full conversation per row.
type Reader struct{}

// New creates an Excel transcript reader.
func New() *Reader {
	return &Reader{}
}

// Extensions returns the file extensions this reader handles. Legacy
// binary .xls workbooks are not supported.
func (r *Reader) Extensions() []string {
	return []string{".xlsx"}
}

// Read yields one transcript per non-empty row of the first sheet. When
// the first row is a recognisable header, only the transcript column is
// used; otherwise all cells of a row are joined. Cells are joined with
// "||", which downstream normalisation turns into line breaks.
func (r *Reader) Read(ctx context.Context, path string) ([]domain.RawTranscript, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w: %v", domain.ErrInvalidInput, err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets: %w", path, domain.ErrInvalidInput)
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w: %v", sheets[0], domain.ErrInvalidInput, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("workbook %s is empty: %w", path, domain.ErrInvalidInput)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	textCol := headerTextColumn(rows[0])
	start := 0
	if textCol >= 0 {
		start = 1
	}

	var transcripts []domain.RawTranscript
	for i := start; i < len(rows); i++ {
		text := rowText(rows[i], textCol)
		if strings.TrimSpace(text) == "" {
			continue
		}
		transcripts = append(transcripts, domain.RawTranscript{
			ConversationID: fmt.Sprintf("%s_row%03d", base, i+1),
			Text:           text,
			SourcePath:     path,
		})
	}

	return transcripts, nil
}

// headerTextColumn returns the index of a recognised transcript column in
// the first row, or -1 when the row does not look like a header.
func headerTextColumn(row []string) int {
	for _, name := range textColumns {
		for i, cell := range row {
			if strings.EqualFold(strings.TrimSpace(cell), name) {
				return i
			}
		}
	}
	return -1
}

// rowText extracts the transcript text of one row.
func rowText(row []string, textCol int) string {
	if textCol >= 0 {
		if textCol < len(row) {
			return row[textCol]
		}
		return ""
	}

	cells := make([]string, 0, len(row))
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			cells = append(cells, cell)
		}
	}
	return strings.Join(cells, "||")
}
