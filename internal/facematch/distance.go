// Package facematch implements the adaptive reference-gallery face matching used to find
// a guest's photos: distance computation, the capped reference gallery, the two-threshold
// matcher, the photo-id match set and the sequencer that applies results in catalog order.
package facematch

import "math"

// Embedding is a face descriptor produced by the embedding service.
type Embedding []float32

// EuclideanDistance computes the L2 distance between two embeddings.
// Returns +Inf for mismatched or empty vectors so they never match.
func EuclideanDistance(a, b Embedding) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Clone returns a copy that does not share the backing array.
func (e Embedding) Clone() Embedding {
	if e == nil {
		return nil
	}
	out := make(Embedding, len(e))
	copy(out, e)
	return out
}
