package csvfile

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimanni/chat-cleaner/internal/core/domain"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	ts := "10:01"
	result := &domain.ConversationResult{
		ConversationID: "conv-42",
		Records: []domain.ChatRecord{
			{Time: &ts, Speaker: "Ravi", Role: domain.RoleAgent, Message: "ok. since when?"},
			{Time: nil, Speaker: "Neha", Role: domain.RoleUser, Message: "today only 🙂"},
		},
	}

	path, err := w.Write(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "conv-42_clean.csv"), path)

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"time", "speaker", "role", "message"}, rows[0])
	assert.Equal(t, []string{"10:01", "Ravi", "Agent", "ok. since when?"}, rows[1])
	assert.Equal(t, []string{"", "Neha", "User", "today only 🙂"}, rows[2])
}

func TestWrite_EmptyResultStillProducesHeader(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	path, err := w.Write(context.Background(), &domain.ConversationResult{ConversationID: "empty"})
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"time", "speaker", "role", "message"}, rows[0])
}

func TestWrite_QuotesEmbeddedDelimiters(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	result := &domain.ConversationResult{
		ConversationID: "tricky",
		Records: []domain.ChatRecord{
			{Speaker: "Neha", Role: domain.RoleUser, Message: "line one\nline two, with comma and \"quotes\""},
		},
	}

	path, err := w.Write(context.Background(), result)
	require.NoError(t, err)

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "line one\nline two, with comma and \"quotes\"", rows[1][3])
}

func TestWrite_SanitisesConversationID(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	path, err := w.Write(context.Background(), &domain.ConversationResult{ConversationID: "a/b:c"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a_b_c_clean.csv"), path)
}

func TestWrite_CreatesOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w := NewWriter(dir)

	_, err := w.Write(context.Background(), &domain.ConversationResult{ConversationID: "c"})
	require.NoError(t, err)

	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestWrite_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	_, err := w.Write(context.Background(), &domain.ConversationResult{ConversationID: "c"})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c_clean.csv", entries[0].Name())
}
