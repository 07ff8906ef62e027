// Package knowledge holds the embedded corpus segments and serves
// similarity retrieval over them.
package knowledge

// Segment is a contiguous slice of the source corpus, the unit of retrieval.
// Produced once at initialization and never mutated.
type Segment struct {
	Text string
}

// EmbeddedSegment pairs a Segment with its embedding vector.
// Vector length is constant across all segments in one index, fixed by the
// embedding model.
type EmbeddedSegment struct {
	Segment Segment
	Vector  []float32
}

// Result is a retrieved segment with its similarity score.
type Result struct {
	Segment    Segment
	Similarity float64 // cosine similarity, higher is closer
}
