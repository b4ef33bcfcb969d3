package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimanni/chat-cleaner/internal/core/domain"
	"github.com/swimanni/chat-cleaner/internal/core/ports/driven"
)

func newTestSegmenter(t *testing.T, llm driven.LLMService, cache driven.ResultCache) *Segmenter {
	t.Helper()
	s, err := NewSegmenter(llm, NewGate(1, 0), cache)
	require.NoError(t, err)
	return s
}

func TestSegment_EmptyInput(t *testing.T) {
	s := newTestSegmenter(t, &mockLLM{}, nil)

	_, err := s.Segment(context.Background(), "   \n ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmptyConversation))
}

func TestSegment_SplitsConversations(t *testing.T) {
	llm := &mockLLM{outputs: []string{
		`["hi, my order never arrived. let me check that for you.",
		  "hello, I want to change my plan. sure, which plan?"]`,
	}}
	s := newTestSegmenter(t, llm, nil)

	segments, err := s.Segment(context.Background(), "hi, my order never arrived...")
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Contains(t, segments[0], "order never arrived")
	assert.Contains(t, segments[1], "change my plan")
}

func TestSegment_CachesResult(t *testing.T) {
	llm := &mockLLM{outputs: []string{`["conversation one", "conversation two"]`}}
	cache := newMemoryCache()
	s := newTestSegmenter(t, llm, cache)

	text := "conversation one conversation two"
	first, err := s.Segment(context.Background(), text)
	require.NoError(t, err)
	require.Equal(t, 1, llm.callCount())

	second, err := s.Segment(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, 1, llm.callCount(), "repeat input must be cache-only")
	assert.Equal(t, first, second)
}

func TestSegment_RepairsTruncatedOutput(t *testing.T) {
	llm := &mockLLM{outputs: []string{`["conversation one", "conversation two`}}
	s := newTestSegmenter(t, llm, nil)

	segments, err := s.Segment(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, []string{"conversation one", "conversation two"}, segments)
}

func TestSegment_UnusableOutputKeepsTextWhole(t *testing.T) {
	llm := &mockLLM{outputs: []string{"I could not find any conversations."}}
	s := newTestSegmenter(t, llm, nil)

	segments, err := s.Segment(context.Background(), "  raw text \n")
	require.NoError(t, err)
	assert.Equal(t, []string{"raw text"}, segments)
}

func TestSegment_BackendFailureKeepsTextWhole(t *testing.T) {
	llm := &mockLLM{
		outputs: []string{"", "", ""},
		errs:    []error{errors.New("down"), errors.New("down"), errors.New("down")},
	}
	s := newTestSegmenter(t, llm, nil)

	segments, err := s.Segment(context.Background(), "raw text")
	require.NoError(t, err)
	assert.Equal(t, []string{"raw text"}, segments)
}

func TestSegment_DropsBlankSegments(t *testing.T) {
	llm := &mockLLM{outputs: []string{`["conversation one", "   ", ""]`}}
	s := newTestSegmenter(t, llm, nil)

	segments, err := s.Segment(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, []string{"conversation one"}, segments)
}
