package services

import (
	"strings"

	"github.com/swimanni/chat-cleaner/internal/core/domain"
)

// DefaultSimilarityThreshold is the bigram Dice similarity above which two
// messages from the same speaker count as the same turn. Tunable: the
// merge invariants are the contract, not this constant.
const DefaultSimilarityThreshold = 0.85

// ChunkRecords pairs a chunk with the records its inference produced.
type ChunkRecords struct {
	Chunk   domain.Chunk
	Records []domain.ChatRecord
}

// Merger stitches per-chunk record sequences into one ordered,
// duplicate-free conversation record.
//
// Consecutive chunks overlap in source text, so both inferences may emit
// records derived from the shared region. The earlier chunk's version is
// authoritative: it had full context of what preceded it. The merger drops
// the current chunk's leading records that duplicate the previous chunk's
// accepted tail, by exact structural equality or by same-speaker message
// similarity above the threshold, and keeps everything else (union-like,
// biased toward the earlier chunk on conflict).
type Merger struct {
	threshold float64
}

// MergerOption configures the merger.
type MergerOption func(*Merger)

// WithSimilarityThreshold overrides the near-duplicate threshold.
func WithSimilarityThreshold(t float64) MergerOption {
	return func(m *Merger) {
		if t > 0 && t <= 1 {
			m.threshold = t
		}
	}
}

// NewMerger creates a merger with the given options.
func NewMerger(opts ...MergerOption) *Merger {
	m := &Merger{threshold: DefaultSimilarityThreshold}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge assembles the final record sequence. Parts must be in chunk order;
// record order within the result depends only on the parts, never on the
// order chunks finished across workers.
func (m *Merger) Merge(conversationID string, parts []ChunkRecords) *domain.ConversationResult {
	result := &domain.ConversationResult{ConversationID: conversationID}
	if len(parts) == 0 {
		return result
	}

	// The previous chunk's accepted contribution, used as the comparison
	// window for the next chunk's leading records.
	var prevAccepted []domain.ChatRecord

	for i, part := range parts {
		records := part.Records

		if i > 0 && part.Chunk.OverlapPrefixLen > 0 {
			records = m.dropOverlapDuplicates(records, prevAccepted)
		}

		result.Records = append(result.Records, records...)
		prevAccepted = records
	}

	return result
}

// dropOverlapDuplicates removes the leading records of the current chunk
// that duplicate any record in the previous chunk's accepted tail. The scan
// stops at the first non-duplicate: overlap-induced repeats are always a
// prefix of the current chunk's output.
func (m *Merger) dropOverlapDuplicates(current, tail []domain.ChatRecord) []domain.ChatRecord {
	drop := 0
	for _, rec := range current {
		if !m.matchesAny(rec, tail) {
			break
		}
		drop++
	}
	return current[drop:]
}

// matchesAny reports whether rec duplicates any record in tail.
func (m *Merger) matchesAny(rec domain.ChatRecord, tail []domain.ChatRecord) bool {
	for _, t := range tail {
		if rec.Equal(t) {
			return true
		}
		if rec.Speaker == t.Speaker && messageSimilarity(rec.Message, t.Message) >= m.threshold {
			return true
		}
	}
	return false
}

// messageSimilarity is the Dice coefficient over rune bigrams, case-folded.
// Returns 1 for equal strings and 0 for strings with no shared bigrams.
func messageSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}

	ba := bigrams(a)
	bb := bigrams(b)
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}

	shared := 0
	for gram, count := range ba {
		if other, ok := bb[gram]; ok {
			shared += min(count, other)
		}
	}

	total := 0
	for _, c := range ba {
		total += c
	}
	for _, c := range bb {
		total += c
	}

	return 2 * float64(shared) / float64(total)
}

// bigrams returns the multiset of adjacent rune pairs in s.
func bigrams(s string) map[string]int {
	runes := []rune(s)
	if len(runes) < 2 {
		return nil
	}
	grams := make(map[string]int, len(runes)-1)
	for i := 0; i+1 < len(runes); i++ {
		grams[string(runes[i:i+2])]++
	}
	return grams
}
