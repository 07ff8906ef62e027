package corpus

import "strings"

// Splitter splits raw text into overlapping chunks along separator boundaries.
//
// Lines are accumulated greedily; when appending the next line would exceed
// ChunkSize, the current chunk is closed and the next chunk is seeded with the
// trailing Overlap characters of the closed chunk, so context survives chunk
// boundaries. The seed is shortened when the next line would not fit beside a
// full Overlap, so only a single line longer than ChunkSize can produce an
// oversized chunk, and such a line is emitted whole rather than split further.
//
// Sizes are measured in runes, not bytes; the corpus is Korean and byte
// lengths would cut multi-byte characters.
type Splitter struct {
	Separator string // boundary between lines; default "\n"
	ChunkSize int    // maximum chunk length in runes
	Overlap   int    // trailing runes carried into the next chunk
}

// NewSplitter returns a Splitter with the given chunk size and overlap,
// splitting on newlines.
func NewSplitter(chunkSize, overlap int) Splitter {
	return Splitter{Separator: "\n", ChunkSize: chunkSize, Overlap: overlap}
}

// Split produces the ordered chunk sequence for text.
// Empty input produces no chunks. Chunk order follows source order.
func (s Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	sep := s.Separator
	if sep == "" {
		sep = "\n"
	}

	lines := strings.Split(text, sep)

	var chunks []string
	var buf []rune
	// Runes of buf that were carried over from the previous chunk. A chunk is
	// only emitted once it contains content beyond its seed.
	seedLen := 0

	for _, line := range lines {
		lr := []rune(line)

		if len(buf) == 0 {
			buf = lr
			continue
		}

		if len(buf)+len(sep)+len(lr) > s.ChunkSize {
			if len(buf) > seedLen {
				chunks = append(chunks, string(buf))
				buf = tail(buf, s.Overlap)
			}
			// The carried seed shrinks until seed+sep+line fits ChunkSize,
			// so a seeded chunk never exceeds the bound; a line longer than
			// ChunkSize drops the seed entirely and is emitted whole.
			if keep := s.ChunkSize - len(sep) - len(lr); keep < len(buf) {
				buf = tail(buf, max(keep, 0))
			}
			seedLen = len(buf)
		}

		if len(buf) == 0 {
			buf = lr
		} else {
			buf = append(append(buf, []rune(sep)...), lr...)
		}
	}

	if len(buf) > seedLen {
		chunks = append(chunks, string(buf))
	}

	return chunks
}

// tail returns the last n runes of r (all of r when shorter).
func tail(r []rune, n int) []rune {
	if n <= 0 {
		return nil
	}
	if n >= len(r) {
		out := make([]rune, len(r))
		copy(out, r)
		return out
	}
	out := make([]rune, n)
	copy(out, r[len(r)-n:])
	return out
}
