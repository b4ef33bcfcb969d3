package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/swimanni/chat-cleaner/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/swimanni/chat-cleaner/internal/core/domain"
	"github.com/swimanni/chat-cleaner/internal/core/ports/driven"
)

// Store is the SQLite-backed result cache.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.ResultCache = (*Store)(nil)

// NewStore creates a new SQLite cache at the specified data directory.
// If dataDir is empty, defaults to ~/.chatclean/data/cache.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".chatclean", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "cache.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// GetRecords returns the accepted records for a fingerprint.
func (s *Store) GetRecords(ctx context.Context, fingerprint string) ([]domain.ChatRecord, error) {
	payload, err := s.getPayload(ctx, fingerprint, driven.CacheKindRecords)
	if err != nil {
		return nil, err
	}

	var records []domain.ChatRecord
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return nil, fmt.Errorf("unmarshaling cached records: %w", err)
	}
	return records, nil
}

// PutRecords stores the accepted records for a fingerprint. The cache is
// append-only: an equal re-write is a no-op and a differing re-write is
// rejected with domain.ErrCacheConflict.
func (s *Store) PutRecords(ctx context.Context, fingerprint string, records []domain.ChatRecord, model string) error {
	if records == nil {
		records = []domain.ChatRecord{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshaling records: %w", err)
	}
	return s.putPayload(ctx, fingerprint, driven.CacheKindRecords, string(payload), model)
}

// GetSegments returns cached conversation segments for a fingerprint.
func (s *Store) GetSegments(ctx context.Context, fingerprint string) ([]string, error) {
	payload, err := s.getPayload(ctx, fingerprint, driven.CacheKindSegments)
	if err != nil {
		return nil, err
	}

	var segments []string
	if err := json.Unmarshal([]byte(payload), &segments); err != nil {
		return nil, fmt.Errorf("unmarshaling cached segments: %w", err)
	}
	return segments, nil
}

// PutSegments stores conversation segments under the same conflict rules
// as PutRecords.
func (s *Store) PutSegments(ctx context.Context, fingerprint string, segments []string, model string) error {
	if segments == nil {
		segments = []string{}
	}
	payload, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("marshaling segments: %w", err)
	}
	return s.putPayload(ctx, fingerprint, driven.CacheKindSegments, string(payload), model)
}

// Stats reports the number of entries per kind.
func (s *Store) Stats(ctx context.Context) (driven.CacheStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*) FROM cache_entries GROUP BY kind
	`)
	if err != nil {
		return driven.CacheStats{}, fmt.Errorf("querying cache stats: %w", err)
	}
	defer rows.Close()

	stats := driven.CacheStats{Path: s.path}
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return driven.CacheStats{}, fmt.Errorf("scanning cache stats: %w", err)
		}
		switch kind {
		case driven.CacheKindRecords:
			stats.RecordEntries = count
		case driven.CacheKindSegments:
			stats.SegmentEntries = count
		}
	}

	if err := rows.Err(); err != nil {
		return driven.CacheStats{}, fmt.Errorf("iterating cache stats: %w", err)
	}

	return stats, nil
}

// getPayload retrieves the stored payload for (fingerprint, kind).
func (s *Store) getPayload(ctx context.Context, fingerprint, kind string) (string, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT payload FROM cache_entries WHERE fingerprint = ? AND kind = ?
	`, fingerprint, kind)

	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("scanning cache entry: %w", err)
	}
	return payload, nil
}

// putPayload inserts a cache entry, enforcing first-write-wins. The insert
// ignores an existing row; the follow-up read detects whether the stored
// payload matches, so a concurrent writer of different content is caught
// even across processes.
func (s *Store) putPayload(ctx context.Context, fingerprint, kind, payload, model string) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (fingerprint, kind, payload, model)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(fingerprint, kind) DO NOTHING
	`, fingerprint, kind, payload, model)
	if err != nil {
		return fmt.Errorf("inserting cache entry: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking cache insert: %w", err)
	}
	if inserted > 0 {
		return nil
	}

	existing, err := s.getPayload(ctx, fingerprint, kind)
	if err != nil {
		return fmt.Errorf("reading existing cache entry: %w", err)
	}
	if existing != payload {
		return fmt.Errorf("fingerprint %s already holds different %s content: %w",
			fingerprint, kind, domain.ErrCacheConflict)
	}
	return nil
}
