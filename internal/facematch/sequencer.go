package facematch

// Result is the embedding outcome for the photo at catalog position Index.
// Results may arrive in any order.
type Result struct {
	Index   int
	PhotoID string
	Faces   []Embedding
	Err     error // fetch or detection failure; committed as no match
}

// Commit is one photo's applied outcome: classification plus any gallery growth.
type Commit struct {
	Index    int
	PhotoID  string
	Decision Decision
	Grew     bool
	Err      error
}

// Sequencer buffers out-of-order results and applies them to the matcher strictly
// in catalog order, one photo at a time. It has a single owner and no locking.
type Sequencer struct {
	matcher *Matcher
	next    int
	pending map[int]Result
	growth  []string
}

// NewSequencer creates a sequencer that starts at catalog index 0.
func NewSequencer(m *Matcher) *Sequencer {
	return &Sequencer{matcher: m, pending: make(map[int]Result)}
}

// Offer buffers r and releases every contiguous result starting at the next expected
// index. Each released photo is evaluated against the gallery as left by the previous
// photo and, if it produced a growth candidate, the gallery grows before the next one.
// Results for already committed or already buffered indexes are ignored.
func (s *Sequencer) Offer(r Result) []Commit {
	if r.Index < s.next {
		return nil
	}
	if _, dup := s.pending[r.Index]; dup {
		return nil
	}
	s.pending[r.Index] = r

	var commits []Commit
	for {
		ready, ok := s.pending[s.next]
		if !ok {
			break
		}
		delete(s.pending, s.next)
		commits = append(commits, s.apply(ready))
		s.next++
	}
	return commits
}

func (s *Sequencer) apply(r Result) Commit {
	c := Commit{Index: r.Index, PhotoID: r.PhotoID, Err: r.Err}
	if r.Err != nil {
		c.Decision = s.matcher.Evaluate(nil)
		return c
	}
	c.Decision = s.matcher.Evaluate(r.Faces)
	if c.Decision.GrowthCandidate != nil {
		if err := s.matcher.Grow(c.Decision.GrowthCandidate); err == nil {
			c.Grew = true
			s.growth = append(s.growth, r.PhotoID)
		}
	}
	return c
}

// Committed returns how many photos have been applied.
func (s *Sequencer) Committed() int {
	return s.next
}

// Pending returns how many results are buffered waiting for an earlier photo.
func (s *Sequencer) Pending() int {
	return len(s.pending)
}

// Growth returns the ids of photos whose face joined the gallery, in order.
func (s *Sequencer) Growth() []string {
	out := make([]string, len(s.growth))
	copy(out, s.growth)
	return out
}

// GallerySize returns the matcher's current gallery size.
func (s *Sequencer) GallerySize() int {
	return s.matcher.GallerySize()
}
