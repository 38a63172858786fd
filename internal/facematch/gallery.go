package facematch

import "errors"

// ErrGalleryFull is returned when appending to a gallery at capacity.
var ErrGalleryFull = errors.New("reference gallery is full")

// Gallery is the ordered, capacity-bounded set of reference embeddings believed
// to show the user. The first entry is always the selfie.
type Gallery struct {
	refs     []Embedding
	capacity int
}

// NewGallery seeds a gallery with the selfie embedding.
func NewGallery(selfie Embedding, capacity int) *Gallery {
	if capacity < 1 {
		capacity = 1
	}
	refs := make([]Embedding, 0, capacity)
	refs = append(refs, selfie.Clone())
	return &Gallery{refs: refs, capacity: capacity}
}

// Len returns the number of references.
func (g *Gallery) Len() int {
	return len(g.refs)
}

// Capacity returns the maximum number of references.
func (g *Gallery) Capacity() int {
	return g.capacity
}

// HasRoom reports whether another reference can be appended.
func (g *Gallery) HasRoom() bool {
	return len(g.refs) < g.capacity
}

// Append adds a reference if there is room. Existing references are never overwritten.
func (g *Gallery) Append(e Embedding) error {
	if !g.HasRoom() {
		return ErrGalleryFull
	}
	g.refs = append(g.refs, e.Clone())
	return nil
}

// References returns a copy of the current references in insertion order.
func (g *Gallery) References() []Embedding {
	out := make([]Embedding, len(g.refs))
	for i, r := range g.refs {
		out[i] = r.Clone()
	}
	return out
}
