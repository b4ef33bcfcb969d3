// Package chunker splits normalised transcripts into overlapping
// bounded-size windows for inference.
package chunker

import (
	"strings"

	"github.com/swimanni/chat-cleaner/internal/core/domain"
)

// DefaultMinChunkSize is the default lower bound of a window in bytes.
const DefaultMinChunkSize = 1200

// DefaultMaxChunkSize is the default upper bound of a window in bytes.
// Chosen to stay well within the backend context limit alongside the
// fixed instruction overhead.
const DefaultMaxChunkSize = 1500

// DefaultOverlap is the default number of trailing bytes of a window
// repeated at the start of the next one, giving the model cross-chunk
// context. The merger discards the records this duplication induces.
const DefaultOverlap = 200

// Processor splits conversation text into overlapping chunks.
type Processor struct {
	minSize int
	maxSize int
	overlap int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithTargetRange sets the window size bounds in bytes.
func WithTargetRange(minSize, maxSize int) Option {
	return func(p *Processor) {
		if minSize > 0 && maxSize >= minSize {
			p.minSize = minSize
			p.maxSize = maxSize
		}
	}
}

// WithOverlap sets the overlap between consecutive windows in bytes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		minSize: DefaultMinChunkSize,
		maxSize: DefaultMaxChunkSize,
		overlap: DefaultOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap leaves room for new content in every window
	if p.overlap >= p.minSize {
		p.overlap = p.minSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Split produces the ordered chunk sequence for a conversation.
//
// Every window after the first starts with the trailing overlap of its
// predecessor; OverlapPrefixLen records the duplicated byte count so the
// merger can resolve the repeat. Windows prefer to end at a line boundary,
// failing that a sentence boundary, nearest the upper bound, and never cut
// mid-rune. Concatenating the non-overlapping suffixes in order
// reconstructs the input exactly.
//
// Empty text yields no chunks; text within the upper bound yields exactly
// one chunk with no overlap.
func (p *Processor) Split(conversationID, text string) []domain.Chunk {
	if text == "" {
		return nil
	}

	estimated := len(text)/(p.maxSize-p.overlap) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	pos := 0
	prefix := ""

	for pos < len(text) {
		budget := p.maxSize - len(prefix)
		end := pos + budget
		if end >= len(text) {
			end = len(text)
		} else {
			floor := pos + p.minSize - len(prefix)
			if floor <= pos {
				floor = pos + 1
			}
			end = cutPoint(text, floor, end)
		}

		chunks = append(chunks, domain.Chunk{
			ConversationID:   conversationID,
			Index:            len(chunks),
			Text:             prefix + text[pos:end],
			OverlapPrefixLen: len(prefix),
		})

		prefix = overlapTail(text[:end], p.overlap)
		pos = end
	}

	return chunks
}

// cutPoint picks the window end within (floor, limit], preferring the line
// or sentence boundary nearest the limit over a hard mid-word cut.
func cutPoint(text string, floor, limit int) int {
	limit = runeStart(text, limit)
	if limit <= floor {
		// Rune alignment pushed below the floor; take the hard cut.
		return runeEnd(text, floor)
	}

	window := text[floor:limit]

	// Line boundary first: cut just after the newline.
	if i := strings.LastIndexByte(window, '\n'); i >= 0 {
		return floor + i + 1
	}

	// Sentence boundary: cut after punctuation-plus-space.
	best := -1
	for _, mark := range []string{". ", "? ", "! "} {
		if i := strings.LastIndex(window, mark); i >= 0 && i+len(mark) > best {
			best = i + len(mark)
		}
	}
	if best > 0 {
		return floor + best
	}

	// Word boundary as a last resort before a hard cut.
	if i := strings.LastIndexByte(window, ' '); i >= 0 {
		return floor + i + 1
	}

	return limit
}

// overlapTail returns the trailing n bytes of s, aligned forward to a rune
// start so the next window never begins mid-rune.
func overlapTail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	start := len(s) - n
	for start < len(s) && s[start]&0xC0 == 0x80 {
		start++
	}
	return s[start:]
}

// runeStart backs i off to the nearest rune start at or before it.
func runeStart(s string, i int) int {
	for i > 0 && i < len(s) && s[i]&0xC0 == 0x80 {
		i--
	}
	return i
}

// runeEnd advances i to the nearest rune start at or after it.
func runeEnd(s string, i int) int {
	for i < len(s) && s[i]&0xC0 == 0x80 {
		i++
	}
	return i
}
