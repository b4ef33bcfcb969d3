package driving

import (
	"context"

	"github.com/swimanni/chat-cleaner/internal/core/domain"
)

// BatchProcessor coordinates transcript cleaning for conversations.
type BatchProcessor interface {
	// Process runs one conversation through the full pipeline:
	// normalise, chunk, cache-or-infer, merge. A terminal inference
	// failure on any chunk fails the conversation.
	Process(ctx context.Context, transcript domain.RawTranscript) (*domain.ConversationResult, error)

	// ProcessBatch processes conversations on a bounded worker pool.
	// Failures are isolated per conversation and reported in the summary;
	// they never abort sibling conversations.
	ProcessBatch(ctx context.Context, transcripts []domain.RawTranscript) *RunSummary

	// Status returns live progress counters for the current batch.
	Status(ctx context.Context) *BatchStatus
}

// BatchStatus represents the current state of a batch run.
type BatchStatus struct {
	// Running indicates if a batch is currently in progress.
	Running bool

	// ConversationsDone is the count of finished conversations,
	// failed ones included.
	ConversationsDone int

	// CacheHits is the number of chunks answered from the cache.
	CacheHits int

	// BackendCalls is the number of chunks that required inference.
	BackendCalls int

	// ErrorCount is the number of failed conversations.
	ErrorCount int
}

// RunSummary is the user-visible outcome of one batch run.
type RunSummary struct {
	// RunID identifies the batch for log correlation.
	RunID string

	// Succeeded lists conversation ids that produced a result, with the
	// artifact path when a writer was configured.
	Succeeded []ConversationOutcome

	// Failed lists conversation ids that produced no artifact, with the
	// failure reason.
	Failed []ConversationOutcome

	// CacheHits and BackendCalls aggregate chunk-level counters.
	CacheHits    int
	BackendCalls int
}

// ConversationOutcome records how one conversation ended.
type ConversationOutcome struct {
	// ConversationID identifies the conversation.
	ConversationID string

	// ArtifactPath is the emitted file for a success, empty otherwise.
	ArtifactPath string

	// Err is the failure reason for a failed conversation, empty
	// otherwise.
	Err string
}
