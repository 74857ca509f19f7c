package chunking

import (
	"strings"
	"testing"
)

func TestSplitProducesFixedSizeChunks(t *testing.T) {
	splitter := NewSplitter(10)
	chunks := splitter.Split(strings.Repeat("a", 25))
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0] != strings.Repeat("a", 10) {
		t.Fatalf("unexpected first chunk %q", chunks[0])
	}
	if chunks[2] != strings.Repeat("a", 5) {
		t.Fatalf("unexpected tail chunk %q", chunks[2])
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	splitter := NewSplitter(7)
	input := "The mitochondria is the powerhouse of the cell."
	first := splitter.Split(input)
	second := splitter.Split(input)
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestSplitSkipsWhitespaceOnlyChunks(t *testing.T) {
	splitter := NewSplitter(4)
	chunks := splitter.Split("abcd    efgh")
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			t.Fatalf("whitespace-only chunk survived: %q", chunk)
		}
	}
}

func TestSplitEmptyInput(t *testing.T) {
	if chunks := NewSplitter(10).Split(""); chunks != nil {
		t.Fatalf("expected nil for empty input, got %v", chunks)
	}
}
