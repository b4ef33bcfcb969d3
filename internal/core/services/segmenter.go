package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/swimanni/chat-cleaner/internal/core/domain"
	"github.com/swimanni/chat-cleaner/internal/core/ports/driven"
	"github.com/swimanni/chat-cleaner/internal/logger"
)

// Ensure Segmenter can take customised prompts.
var _ driven.PromptStoreAware = (*Segmenter)(nil)

// defaultSegmentPrompt asks the model to split concatenated chats.
// Expects one %s placeholder for the raw text.
const defaultSegmentPrompt = `You are a conversation separator. The input text may contain multiple customer support chats, one after another.

Split the text into distinct conversations. Detect boundaries where the context clearly resets: a new greeting, a new timestamp, a new customer name.
Return only a JSON array of strings, each string being one full conversation.
Do not summarize, do not label, just cleanly separate them.

TEXT:
%s`

const segmentMaxTokens = 4096

// Segmenter detects and splits multiple chat sessions concatenated in one
// plain-text input, using the same constrained-inference machinery as the
// chunk parser. Results are cached by content fingerprint. Segmentation is
// best-effort: on any failure the whole text is treated as a single
// conversation rather than failing the input.
type Segmenter struct {
	llm         driven.LLMService
	gate        *Gate
	cache       driven.ResultCache
	promptStore driven.PromptStore
	schema      json.RawMessage
}

// NewSegmenter creates a conversation segmenter. The cache may be nil, in
// which case every call reaches the backend.
func NewSegmenter(llm driven.LLMService, gate *Gate, cache driven.ResultCache) (*Segmenter, error) {
	schema, err := stringArraySchema()
	if err != nil {
		return nil, fmt.Errorf("build segment schema: %w", err)
	}
	return &Segmenter{llm: llm, gate: gate, cache: cache, schema: schema}, nil
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *Segmenter) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Segment splits rawText into individual conversation texts. It never
// returns an empty slice for non-empty input: when the model output is
// unusable the input is returned as one conversation.
func (s *Segmenter) Segment(ctx context.Context, rawText string) ([]string, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, domain.ErrEmptyConversation
	}

	fp := domain.Fingerprint(rawText)
	if s.cache != nil {
		if segments, err := s.cache.GetSegments(ctx, fp); err == nil {
			logger.Debug("segmentation cache hit for %s", fp[:12])
			return segments, nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("segment cache read: %w", err)
		}
	}

	prompt := fmt.Sprintf(loadPrompt(s.promptStore, driven.PromptSegment, defaultSegmentPrompt), rawText)

	raw, err := generateWithRetry(ctx, s.llm, s.gate, prompt, driven.GenerateOptions{
		MaxTokens:   segmentMaxTokens,
		Temperature: 0,
		Format:      s.schema,
	})
	if err != nil {
		logger.Warn("segmentation backend call failed, keeping text whole: %v", err)
		return []string{strings.TrimSpace(rawText)}, nil
	}

	segments, err := decodeSegments(raw)
	if err != nil {
		segments, err = decodeSegments(repairJSON(raw))
	}
	if err != nil || len(segments) == 0 {
		logger.Warn("segmentation output unusable, keeping text whole: %v", err)
		return []string{strings.TrimSpace(rawText)}, nil
	}

	if s.cache != nil {
		if err := s.cache.PutSegments(ctx, fp, segments, s.llm.ModelName()); err != nil {
			// A conflict here indicates a determinism bug; surface it.
			if errors.Is(err, domain.ErrCacheConflict) {
				return nil, fmt.Errorf("segment cache write: %w", err)
			}
			logger.Warn("segment cache write failed: %v", err)
		}
	}

	return segments, nil
}

// decodeSegments extracts and parses the string array, dropping blanks.
func decodeSegments(raw string) ([]string, error) {
	arr := extractArray(raw)
	if arr == "" {
		return nil, errors.New("no JSON array in output")
	}

	var segments []string
	if err := json.Unmarshal([]byte(arr), &segments); err != nil {
		return nil, fmt.Errorf("decode segments: %w", err)
	}

	out := segments[:0]
	for _, seg := range segments {
		if trimmed := strings.TrimSpace(seg); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out, nil
}
