// Package chunking splits extracted material text into fixed-size pieces
// for deterministic excerpt selection.
package chunking

import "strings"

type Splitter struct {
	chunkSize int
}

// NewSplitter returns a splitter producing chunks of chunkSize runes.
// Identical input always yields identical chunks, so excerpts built from
// the first N chunks are stable across calls.
func NewSplitter(chunkSize int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	return &Splitter{chunkSize: chunkSize}
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	out := make([]string, 0, len(runes)/s.chunkSize+1)
	for start := 0; start < len(runes); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
	}
	return out
}
