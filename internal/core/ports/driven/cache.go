package driven

import (
	"context"

	"github.com/swimanni/chat-cleaner/internal/core/domain"
)

// Cache namespaces. Entries for chunk parsing and conversation
// segmentation live in the same store but never collide.
const (
	// CacheKindRecords holds accepted record sequences for chunk text.
	CacheKindRecords = "records"

	// CacheKindSegments holds conversation segment lists for raw text.
	CacheKindSegments = "segments"
)

// ResultCache is the content-addressed store mapping a chunk fingerprint
// to a previously accepted structured result. Entries are created on first
// successful validated inference, never mutated, and survive process
// restarts. There is no expiry: the store is append-only.
type ResultCache interface {
	// GetRecords returns the accepted records for a fingerprint, or
	// domain.ErrNotFound on a miss.
	GetRecords(ctx context.Context, fingerprint string) ([]domain.ChatRecord, error)

	// PutRecords stores the accepted records for a fingerprint. Writing
	// equal content for an existing fingerprint is a no-op; different
	// content is rejected with domain.ErrCacheConflict.
	PutRecords(ctx context.Context, fingerprint string, records []domain.ChatRecord, model string) error

	// GetSegments returns cached conversation segments for a fingerprint,
	// or domain.ErrNotFound on a miss.
	GetSegments(ctx context.Context, fingerprint string) ([]string, error)

	// PutSegments stores conversation segments under the same conflict
	// rules as PutRecords.
	PutSegments(ctx context.Context, fingerprint string, segments []string, model string) error

	// Stats reports the number of entries per kind.
	Stats(ctx context.Context) (CacheStats, error)

	// Close flushes and closes the underlying store.
	Close() error
}

// CacheStats summarises cache contents for introspection commands.
type CacheStats struct {
	// RecordEntries is the number of cached chunk results.
	RecordEntries int

	// SegmentEntries is the number of cached segmentation results.
	SegmentEntries int

	// Path is the location of the backing store.
	Path string
}
