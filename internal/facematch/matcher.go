package facematch

import (
	"errors"
	"fmt"
	"math"

	"github.com/kozaktomas/event-gallery/internal/constants"
)

// Thresholds are strict upper bounds on Euclidean distance.
type Thresholds struct {
	Match   float64 // a photo matches when its best distance is below this
	Gallery float64 // a matched face joins the gallery when its distance is below this
}

// DefaultThresholds returns the loose match / strict gallery pair.
func DefaultThresholds() Thresholds {
	return Thresholds{Match: constants.MatchThreshold, Gallery: constants.GalleryThreshold}
}

// Validate requires positive thresholds with Gallery <= Match, so every growth
// candidate is also a match.
func (t Thresholds) Validate() error {
	if t.Match <= 0 || t.Gallery <= 0 {
		return errors.New("thresholds must be positive")
	}
	if t.Gallery > t.Match {
		return fmt.Errorf("gallery threshold %.3f exceeds match threshold %.3f", t.Gallery, t.Match)
	}
	return nil
}

// Decision is the outcome of evaluating one photo.
type Decision struct {
	Matched         bool
	BestDistance    float64
	GrowthCandidate Embedding // nil unless the best face should join the gallery
}

// Matcher classifies photos against a reference gallery.
// It is not safe for concurrent use; the Sequencer is its only caller during a run.
type Matcher struct {
	gallery    *Gallery
	thresholds Thresholds
}

// NewMatcher creates a matcher over the given gallery.
func NewMatcher(gallery *Gallery, thresholds Thresholds) *Matcher {
	return &Matcher{gallery: gallery, thresholds: thresholds}
}

// Evaluate compares every face in a photo with every reference and decides whether
// the photo shows the user. It never mutates the gallery.
func (m *Matcher) Evaluate(faces []Embedding) Decision {
	decision := Decision{BestDistance: math.Inf(1)}
	if len(faces) == 0 {
		return decision
	}

	bestFace := -1
	for i, face := range faces {
		for _, ref := range m.gallery.refs {
			if d := EuclideanDistance(face, ref); d < decision.BestDistance {
				decision.BestDistance = d
				bestFace = i
			}
		}
	}

	decision.Matched = decision.BestDistance < m.thresholds.Match
	if decision.Matched && decision.BestDistance < m.thresholds.Gallery && m.gallery.HasRoom() {
		decision.GrowthCandidate = faces[bestFace].Clone()
	}
	return decision
}

// Grow appends a growth candidate to the gallery.
func (m *Matcher) Grow(e Embedding) error {
	return m.gallery.Append(e)
}

// GallerySize returns the current number of references.
func (m *Matcher) GallerySize() int {
	return m.gallery.Len()
}
