package xlsxfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuri/excelize/v2"

	"github.com/swimanni/chat-cleaner/internal/core/domain"
)

// writeWorkbook creates an .xlsx file whose first sheet holds the given
// rows, and returns its path.
func writeWorkbook(t *testing.T, name string, rows [][]any) string {
	t.Helper()

	wb := excelize.NewFile()
	defer wb.Close()

	sheet := wb.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, wb.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, wb.SaveAs(path))
	return path
}

func TestRead_HeaderWithTranscriptColumn(t *testing.T) {
	path := writeWorkbook(t, "tickets.xlsx", [][]any{
		{"id", "Transcript", "agent"},
		{"4512", "ravi: hi\nneha: hello", "ravi"},
		{"4513", "user: my screen is black", "tani"},
	})

	transcripts, err := New().Read(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, transcripts, 2)

	assert.Equal(t, "tickets_row002", transcripts[0].ConversationID)
	assert.Equal(t, "ravi: hi\nneha: hello", transcripts[0].Text)
	assert.Equal(t, "tickets_row003", transcripts[1].ConversationID)
	assert.Equal(t, path, transcripts[1].SourcePath)
}

func TestRead_NoHeaderJoinsCells(t *testing.T) {
	path := writeWorkbook(t, "dump.xlsx", [][]any{
		{"ravi: hi", "neha: hello"},
	})

	transcripts, err := New().Read(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, transcripts, 1)

	assert.Equal(t, "dump_row001", transcripts[0].ConversationID)
	assert.Equal(t, "ravi: hi||neha: hello", transcripts[0].Text)
}

func TestRead_SkipsEmptyRows(t *testing.T) {
	path := writeWorkbook(t, "sparse.xlsx", [][]any{
		{"transcript"},
		{"ravi: hi"},
		{""},
		{"neha: hello"},
	})

	transcripts, err := New().Read(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, transcripts, 2)
	assert.Equal(t, "sparse_row002", transcripts[0].ConversationID)
	assert.Equal(t, "sparse_row004", transcripts[1].ConversationID)
}

func TestRead_EmptyWorkbook(t *testing.T) {
	path := writeWorkbook(t, "empty.xlsx", nil)

	_, err := New().Read(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRead_NotAWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip archive"), 0644))

	_, err := New().Read(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRead_MissingFile(t *testing.T) {
	_, err := New().Read(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".xlsx"}, New().Extensions())
}
