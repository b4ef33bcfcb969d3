package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/singleflight"

	"github.com/swimanni/chat-cleaner/internal/core/domain"
	"github.com/swimanni/chat-cleaner/internal/core/ports/driven"
	"github.com/swimanni/chat-cleaner/internal/core/ports/driving"
	"github.com/swimanni/chat-cleaner/internal/logger"
	"github.com/swimanni/chat-cleaner/internal/normalisers/transcript"
	"github.com/swimanni/chat-cleaner/internal/postprocessors/chunker"
)

// Ensure Processor implements the interface.
var _ driving.BatchProcessor = (*Processor)(nil)

// DefaultWorkers is the default size of the conversation worker pool.
const DefaultWorkers = 4

// Processor orchestrates the conversation pipeline:
// normalise -> chunk -> cache-or-infer -> merge -> emit.
//
// Conversations run in parallel on a bounded worker pool; each
// conversation's data is independently owned for the duration of its
// processing, so that work is lock-free. The cache is the one piece of
// shared mutable state: a singleflight group keyed by fingerprint makes a
// worker that misses claim the fingerprint before inferring, so a racing
// duplicate chunk waits instead of inferring twice. The cache's own
// write-conflict rule is the safety net across processes.
type Processor struct {
	chunker *chunker.Processor
	parser  *Parser
	merger  *Merger
	cache   driven.ResultCache
	writer  driven.ResultWriter
	workers int

	claims singleflight.Group

	// Status tracking
	mu     sync.RWMutex
	status driving.BatchStatus
}

// ProcessorOption configures the pipeline.
type ProcessorOption func(*Processor)

// WithWorkers sets the conversation worker pool size.
func WithWorkers(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithWriter sets the artifact writer. When nil, results are produced but
// not persisted (useful in tests).
func WithWriter(w driven.ResultWriter) ProcessorOption {
	return func(p *Processor) {
		p.writer = w
	}
}

// NewProcessor creates the conversation pipeline orchestrator.
func NewProcessor(
	chunkProc *chunker.Processor,
	parser *Parser,
	merger *Merger,
	cache driven.ResultCache,
	opts ...ProcessorOption,
) *Processor {
	p := &Processor{
		chunker: chunkProc,
		parser:  parser,
		merger:  merger,
		cache:   cache,
		workers: DefaultWorkers,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one conversation through the full pipeline. A terminal
// inference failure on any chunk fails the whole conversation with the
// conversation id and chunk index attached; it never yields a partial
// result.
func (p *Processor) Process(ctx context.Context, tr domain.RawTranscript) (*domain.ConversationResult, error) {
	text := transcript.Normalise(tr.Text)
	if text == "" {
		return nil, fmt.Errorf("conversation %s: %w", tr.ConversationID, domain.ErrEmptyConversation)
	}

	chunks := p.chunker.Split(tr.ConversationID, text)
	logger.Debug("conversation %s: %d chunk(s)", tr.ConversationID, len(chunks))

	parts := make([]ChunkRecords, len(chunks))
	for _, c := range chunks {
		records, err := p.chunkRecords(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("conversation %s chunk %d: %w", tr.ConversationID, c.Index, err)
		}
		parts[c.Index] = ChunkRecords{Chunk: c, Records: records}
	}

	return p.merger.Merge(tr.ConversationID, parts), nil
}

// chunkRecords resolves one chunk through the cache or the inference
// client. The get/infer/put sequence for a fingerprint is atomic with
// respect to other workers requesting the same fingerprint.
func (p *Processor) chunkRecords(ctx context.Context, c domain.Chunk) ([]domain.ChatRecord, error) {
	fp := domain.Fingerprint(c.Text)

	v, err, _ := p.claims.Do(fp, func() (any, error) {
		records, err := p.cache.GetRecords(ctx, fp)
		if err == nil {
			logger.Debug("cache hit for chunk %s/%d", c.ConversationID, c.Index)
			p.count(func(s *driving.BatchStatus) { s.CacheHits++ })
			return records, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("cache read: %w", err)
		}

		records, err = p.parser.ParseChunk(ctx, c.Text)
		if err != nil {
			return nil, err
		}
		p.count(func(s *driving.BatchStatus) { s.BackendCalls++ })

		if err := p.cache.PutRecords(ctx, fp, records, p.parser.ModelName()); err != nil {
			return nil, fmt.Errorf("cache write: %w", err)
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.ChatRecord), nil
}

// ProcessBatch processes conversations on the worker pool. Failures are
// isolated: a failed conversation is reported in the summary and produces
// no artifact, while its siblings complete normally.
func (p *Processor) ProcessBatch(ctx context.Context, transcripts []domain.RawTranscript) *driving.RunSummary {
	summary := &driving.RunSummary{RunID: uuid.New().String()}

	p.mu.Lock()
	p.status = driving.BatchStatus{Running: true}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.status.Running = false
		p.mu.Unlock()
	}()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	pool, err := ants.NewPool(p.workers)
	if err != nil {
		// Pool creation only fails on invalid sizes; fall back to serial.
		logger.Warn("worker pool unavailable (%v), processing serially", err)
	} else {
		defer pool.Release()
	}

	run := func(tr domain.RawTranscript) {
		defer wg.Done()
		outcome := p.processOne(ctx, tr)

		mu.Lock()
		if outcome.Err == "" {
			summary.Succeeded = append(summary.Succeeded, outcome)
		} else {
			summary.Failed = append(summary.Failed, outcome)
		}
		mu.Unlock()
	}

	for _, tr := range transcripts {
		wg.Add(1)
		if pool == nil || pool.Submit(func() { run(tr) }) != nil {
			run(tr)
		}
	}
	wg.Wait()

	p.mu.RLock()
	summary.CacheHits = p.status.CacheHits
	summary.BackendCalls = p.status.BackendCalls
	p.mu.RUnlock()

	// Stable, input-independent ordering for the user-visible summary.
	sort.Slice(summary.Succeeded, func(i, j int) bool {
		return summary.Succeeded[i].ConversationID < summary.Succeeded[j].ConversationID
	})
	sort.Slice(summary.Failed, func(i, j int) bool {
		return summary.Failed[i].ConversationID < summary.Failed[j].ConversationID
	})

	return summary
}

// processOne runs a single conversation and, on success, emits its
// artifact. Failed conversations produce no partial output.
func (p *Processor) processOne(ctx context.Context, tr domain.RawTranscript) driving.ConversationOutcome {
	outcome := driving.ConversationOutcome{ConversationID: tr.ConversationID}

	result, err := p.Process(ctx, tr)
	if err != nil {
		logger.Warn("conversation %s failed: %v", tr.ConversationID, err)
		outcome.Err = err.Error()
		p.count(func(s *driving.BatchStatus) { s.ConversationsDone++; s.ErrorCount++ })
		return outcome
	}

	if p.writer != nil {
		path, err := p.writer.Write(ctx, result)
		if err != nil {
			logger.Warn("conversation %s: writing artifact failed: %v", tr.ConversationID, err)
			outcome.Err = fmt.Sprintf("write artifact: %v", err)
			p.count(func(s *driving.BatchStatus) { s.ConversationsDone++; s.ErrorCount++ })
			return outcome
		}
		outcome.ArtifactPath = path
	}

	p.count(func(s *driving.BatchStatus) { s.ConversationsDone++ })
	return outcome
}

// Status returns a snapshot of the batch progress counters.
func (p *Processor) Status(_ context.Context) *driving.BatchStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snapshot := p.status
	return &snapshot
}

// count applies a mutation to the status under the lock.
func (p *Processor) count(f func(*driving.BatchStatus)) {
	p.mu.Lock()
	f(&p.status)
	p.mu.Unlock()
}
