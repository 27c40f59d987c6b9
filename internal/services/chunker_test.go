package services

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkTextPacksParagraphs(t *testing.T) {
	t.Parallel()

	text := "First paragraph.\n\nSecond paragraph.\n\n\n\nThird paragraph."
	chunks := NewTextChunker().ChunkText(text, 1000, 0)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d: %q", len(chunks), chunks)
	}
	if chunks[0] != "First paragraph.\n\nSecond paragraph.\n\nThird paragraph." {
		t.Fatalf("unexpected chunk %q", chunks[0])
	}
}

func TestChunkTextSplitsLongParagraphs(t *testing.T) {
	t.Parallel()

	sentence := strings.Repeat("a", 40) + "."
	text := strings.Repeat(sentence+" ", 10)
	chunks := NewTextChunker().ChunkText(text, 100, 10)

	if len(chunks) < 4 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		// overlap plus separator can push a chunk slightly over the limit
		if n := utf8.RuneCountInString(c); n > 100+10+1 {
			t.Fatalf("chunk %d has %d runes", i, n)
		}
	}
	for i := 1; i < len(chunks); i++ {
		tail := lastRunes(chunks[i-1], 10)
		if !strings.HasPrefix(chunks[i], tail) {
			t.Fatalf("chunk %d does not start with overlap %q", i, tail)
		}
	}
}

func TestChunkTextEmpty(t *testing.T) {
	t.Parallel()

	if chunks := NewTextChunker().ChunkText("  \n\n  ", 100, 10); len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %q", chunks)
	}
}

func TestLastRunes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		n    int
		want string
	}{
		{text: "héllo", n: 3, want: "llo"},
		{text: "héllo", n: 4, want: "éllo"},
		{text: "hi", n: 5, want: "hi"},
		{text: "hi", n: 0, want: ""},
	}

	for _, tt := range tests {
		if got := lastRunes(tt.text, tt.n); got != tt.want {
			t.Fatalf("lastRunes(%q, %d) = %q, want %q", tt.text, tt.n, got, tt.want)
		}
	}
}
