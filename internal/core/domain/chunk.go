package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Chunk is a bounded contiguous slice of a normalised transcript.
// Every chunk after the first begins with an overlap copied from the tail
// of its predecessor so the model sees cross-chunk context.
//
// Invariant: concatenating Text[OverlapPrefixLen:] of all chunks in Index
// order reconstructs the normalised source text exactly.
type Chunk struct {
	// ConversationID identifies the conversation this chunk belongs to.
	ConversationID string

	// Index is the 0-based, ordering-significant position.
	Index int

	// Text is the window content, overlap prefix included.
	Text string

	// OverlapPrefixLen is the number of leading bytes shared with the
	// previous chunk's tail. Zero for the first chunk.
	OverlapPrefixLen int
}

// NewText returns the non-overlapping suffix of the chunk text, i.e. the
// content this chunk contributes beyond its predecessor.
func (c Chunk) NewText() string {
	return c.Text[c.OverlapPrefixLen:]
}

// Fingerprint returns the deterministic content digest used as a cache key.
// It is a pure function of the text alone: byte-identical text yields the
// same fingerprint within and across runs, regardless of conversation,
// chunk index, or model. This is content addressing, not position
// addressing.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
