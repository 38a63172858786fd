package facematch

// MatchSet is a set of photo ids that remembers insertion order.
// Ids are inserted in catalog order by the sequencer, so IDs() is catalog-ordered.
type MatchSet struct {
	index map[string]struct{}
	order []string
}

// NewMatchSet creates an empty match set.
func NewMatchSet() *MatchSet {
	return &MatchSet{index: make(map[string]struct{})}
}

// Add inserts id and reports whether it was new.
func (s *MatchSet) Add(id string) bool {
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Contains reports whether id is in the set.
func (s *MatchSet) Contains(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[id]
	return ok
}

// Len returns the number of ids.
func (s *MatchSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// IDs returns a copy of the ids in insertion order.
func (s *MatchSet) IDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// MatchSetOf builds a set from ids, dropping duplicates.
func MatchSetOf(ids ...string) *MatchSet {
	s := NewMatchSet()
	for _, id := range ids {
		s.Add(id)
	}
	return s
}
