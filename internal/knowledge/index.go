package knowledge

import (
	"fmt"
	"math"
	"sort"
)

// Index is an in-memory vector index over the corpus segments.
// Built once at initialization and read-only afterwards, so it is safe for
// concurrent readers without locking.
type Index struct {
	segments []EmbeddedSegment
	dim      int
}

// BuildIndex pairs each segment with its vector and validates that all
// vectors share one dimension.
func BuildIndex(segments []Segment, vectors [][]float32) (*Index, error) {
	if len(segments) != len(vectors) {
		return nil, fmt.Errorf("segment/vector count mismatch: %d segments, %d vectors",
			len(segments), len(vectors))
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("cannot build index from empty corpus")
	}

	dim := len(vectors[0])
	embedded := make([]EmbeddedSegment, len(segments))
	for i, seg := range segments {
		if len(vectors[i]) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(vectors[i]), dim)
		}
		embedded[i] = EmbeddedSegment{Segment: seg, Vector: vectors[i]}
	}

	return &Index{segments: embedded, dim: dim}, nil
}

// Len returns the number of indexed segments.
func (idx *Index) Len() int {
	return len(idx.segments)
}

// Retrieve returns the k segments nearest to query by cosine similarity,
// highest first. Ties keep original chunk order (stable sort), which makes
// retrieval deterministic for a fixed corpus and query. k larger than the
// index is clamped.
func (idx *Index) Retrieve(query []float32, k int) []Segment {
	if k <= 0 {
		return nil
	}

	results := make([]Result, len(idx.segments))
	for i, es := range idx.segments {
		results[i] = Result{
			Segment:    es.Segment,
			Similarity: cosine(query, es.Vector),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if k > len(results) {
		k = len(results)
	}
	segments := make([]Segment, k)
	for i := range segments {
		segments[i] = results[i].Segment
	}
	return segments
}

// cosine returns the cosine similarity of a and b, or 0 when the dimensions
// differ or either vector is zero.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
