package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// reconstruct joins the non-overlapping suffixes of all chunks.
func reconstruct(p *Processor, id, text string) string {
	var b strings.Builder
	for _, c := range p.Split(id, text) {
		b.WriteString(c.NewText())
	}
	return b.String()
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.minSize != DefaultMinChunkSize || p.maxSize != DefaultMaxChunkSize {
			t.Errorf("expected defaults [%d,%d], got [%d,%d]",
				DefaultMinChunkSize, DefaultMaxChunkSize, p.minSize, p.maxSize)
		}
		if p.overlap != DefaultOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultOverlap, p.overlap)
		}
	})

	t.Run("custom target range", func(t *testing.T) {
		p := New(WithTargetRange(100, 150))
		if p.minSize != 100 || p.maxSize != 150 {
			t.Errorf("expected [100,150], got [%d,%d]", p.minSize, p.maxSize)
		}
	})

	t.Run("inverted range ignored", func(t *testing.T) {
		p := New(WithTargetRange(500, 100))
		if p.minSize != DefaultMinChunkSize {
			t.Errorf("expected default minSize, got %d", p.minSize)
		}
	})

	t.Run("overlap exceeding min size is reduced", func(t *testing.T) {
		p := New(WithTargetRange(100, 150), WithOverlap(200))
		if p.overlap >= p.minSize {
			t.Error("overlap should be reduced when it reaches min size")
		}
	})

	t.Run("negative overlap ignored", func(t *testing.T) {
		p := New(WithOverlap(-1))
		if p.overlap != DefaultOverlap {
			t.Errorf("expected default overlap, got %d", p.overlap)
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	if New().Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", New().Name())
	}
}

func TestSplit_Empty(t *testing.T) {
	if chunks := New().Split("conv-1", ""); len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty text, got %d", len(chunks))
	}
}

func TestSplit_ShortText(t *testing.T) {
	p := New()
	text := "ravi: hi\nneha: hello"

	chunks := p.Split("conv-1", text)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Text != text {
		t.Errorf("expected chunk text to equal input")
	}
	if c.OverlapPrefixLen != 0 {
		t.Errorf("expected no overlap on single chunk, got %d", c.OverlapPrefixLen)
	}
	if c.ConversationID != "conv-1" || c.Index != 0 {
		t.Errorf("unexpected identity: %q index %d", c.ConversationID, c.Index)
	}
}

func TestSplit_LongText(t *testing.T) {
	p := New(WithTargetRange(120, 150), WithOverlap(30))

	line := "agent: have you tried turning it off and on again?\n"
	text := strings.TrimSuffix(strings.Repeat(line, 20), "\n")

	chunks := p.Split("conv-1", text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if len(c.Text) > 150+utf8.UTFMax {
			t.Errorf("chunk %d exceeds upper bound: %d bytes", i, len(c.Text))
		}
		if i == 0 && c.OverlapPrefixLen != 0 {
			t.Errorf("first chunk has overlap %d", c.OverlapPrefixLen)
		}
		if i > 0 {
			if c.OverlapPrefixLen == 0 {
				t.Errorf("chunk %d has no overlap prefix", i)
			}
			prev := chunks[i-1]
			if !strings.HasSuffix(prev.Text, c.Text[:c.OverlapPrefixLen]) {
				t.Errorf("chunk %d overlap prefix is not the previous chunk's tail", i)
			}
		}
	}
}

func TestSplit_PrefersLineBoundary(t *testing.T) {
	p := New(WithTargetRange(60, 100), WithOverlap(0))

	// Lines shorter than the 40-byte search window so every window
	// contains a line boundary to cut at.
	line := "neha: my laptop keeps restarting\n"
	text := strings.Repeat(line, 6)

	chunks := p.Split("conv-1", text)
	for i, c := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(c.Text, "\n") {
			t.Errorf("chunk %d does not end on a line boundary: %q", i, c.Text)
		}
	}
}

func TestSplit_Reconstruction(t *testing.T) {
	texts := []string{
		"short",
		strings.Repeat("one two three four five. ", 200),
		strings.Repeat("ravi: press f8 whn restart. tell me what happen\n", 80),
		strings.Repeat("héllo wörld ünïcode 🎉 ", 150),
		strings.Repeat("nobreaksatallnobreaksatallnobreaksatall", 100),
	}

	configs := []*Processor{
		New(),
		New(WithTargetRange(100, 130), WithOverlap(25)),
		New(WithTargetRange(1200, 1500), WithOverlap(200)),
	}

	for _, p := range configs {
		for i, text := range texts {
			if got := reconstruct(p, "conv", text); got != text {
				t.Errorf("text %d: reconstruction mismatch (got %d bytes, want %d)",
					i, len(got), len(text))
			}
		}
	}
}

func TestSplit_NeverCutsMidRune(t *testing.T) {
	p := New(WithTargetRange(50, 64), WithOverlap(10))
	text := strings.Repeat("日本語のテキストです。", 40)

	for i, c := range p.Split("conv-1", text) {
		if !utf8.ValidString(c.Text) {
			t.Errorf("chunk %d contains an invalid UTF-8 cut", i)
		}
		if !utf8.ValidString(c.NewText()) {
			t.Errorf("chunk %d overlap prefix splits a rune", i)
		}
	}
}
