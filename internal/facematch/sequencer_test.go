package facematch

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
)

// scenarioA: photo 1 grows the gallery, photo 2 matches only through the new reference,
// photo 3 matches nothing.
func scenarioA() []Result {
	return []Result{
		{Index: 0, PhotoID: "1", Faces: []Embedding{{0.3, 0}}},
		{Index: 1, PhotoID: "2", Faces: []Embedding{{0.8, 0}}},
		{Index: 2, PhotoID: "3", Faces: []Embedding{{-0.9, 0}}},
	}
}

func runSequence(results []Result) (*MatchSet, *Sequencer) {
	seq := NewSequencer(NewMatcher(NewGallery(Embedding{0, 0}, 3), DefaultThresholds()))
	matches := NewMatchSet()
	for _, r := range results {
		for _, c := range seq.Offer(r) {
			if c.Decision.Matched {
				matches.Add(c.PhotoID)
			}
		}
	}
	return matches, seq
}

func TestSequencer_ScenarioA(t *testing.T) {
	matches, seq := runSequence(scenarioA())

	if !slices.Equal(matches.IDs(), []string{"1", "2"}) {
		t.Errorf("expected matches [1 2], got %v", matches.IDs())
	}
	if seq.GallerySize() != 2 {
		t.Errorf("expected gallery size 2, got %d", seq.GallerySize())
	}
	if !slices.Equal(seq.Growth(), []string{"1"}) {
		t.Errorf("expected growth [1], got %v", seq.Growth())
	}
}

func TestSequencer_OutOfOrderIsDeterministic(t *testing.T) {
	// Photo 2 only matches if photo 1 was applied first, so any out-of-order
	// application would change the result.
	base := scenarioA()
	want, wantSeq := runSequence(base)

	rng := rand.New(rand.NewPCG(1, 2))
	for range 20 {
		shuffled := slices.Clone(base)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, seq := runSequence(shuffled)
		if !slices.Equal(got.IDs(), want.IDs()) {
			t.Fatalf("order %v: matches %v, want %v", shuffled, got.IDs(), want.IDs())
		}
		if !slices.Equal(seq.Growth(), wantSeq.Growth()) {
			t.Fatalf("order %v: growth %v, want %v", shuffled, seq.Growth(), wantSeq.Growth())
		}
	}
}

func TestSequencer_BuffersUntilGapFilled(t *testing.T) {
	seq := NewSequencer(NewMatcher(NewGallery(Embedding{0, 0}, 3), DefaultThresholds()))

	if commits := seq.Offer(Result{Index: 2, PhotoID: "c"}); len(commits) != 0 {
		t.Fatalf("expected no commits before index 0, got %d", len(commits))
	}
	if commits := seq.Offer(Result{Index: 1, PhotoID: "b"}); len(commits) != 0 {
		t.Fatalf("expected no commits before index 0, got %d", len(commits))
	}
	if seq.Pending() != 2 {
		t.Errorf("expected 2 pending, got %d", seq.Pending())
	}

	commits := seq.Offer(Result{Index: 0, PhotoID: "a"})
	if len(commits) != 3 {
		t.Fatalf("expected 3 commits, got %d", len(commits))
	}
	for i, c := range commits {
		if c.Index != i {
			t.Errorf("commit %d has index %d", i, c.Index)
		}
	}
	if seq.Committed() != 3 || seq.Pending() != 0 {
		t.Errorf("committed=%d pending=%d", seq.Committed(), seq.Pending())
	}
}

func TestSequencer_FailedPhotoCommitsAsNoMatch(t *testing.T) {
	seq := NewSequencer(NewMatcher(NewGallery(Embedding{0, 0}, 3), DefaultThresholds()))

	commits := seq.Offer(Result{Index: 0, PhotoID: "x", Faces: []Embedding{{0, 0}}, Err: errors.New("boom")})
	if len(commits) != 1 {
		t.Fatalf("expected 1 commit, got %d", len(commits))
	}
	if commits[0].Decision.Matched || commits[0].Grew {
		t.Error("failed photo must not match or grow")
	}
	if commits[0].Err == nil {
		t.Error("commit should carry the failure")
	}
}

func TestSequencer_IgnoresDuplicates(t *testing.T) {
	seq := NewSequencer(NewMatcher(NewGallery(Embedding{0, 0}, 3), DefaultThresholds()))

	seq.Offer(Result{Index: 1, PhotoID: "b"})
	if commits := seq.Offer(Result{Index: 1, PhotoID: "b"}); commits != nil {
		t.Error("duplicate buffered index should be ignored")
	}
	seq.Offer(Result{Index: 0, PhotoID: "a"})
	if commits := seq.Offer(Result{Index: 0, PhotoID: "a"}); commits != nil {
		t.Error("already committed index should be ignored")
	}
	if seq.Committed() != 2 {
		t.Errorf("expected 2 committed, got %d", seq.Committed())
	}
}

func TestSequencer_GalleryNeverExceedsCapacity(t *testing.T) {
	seq := NewSequencer(NewMatcher(NewGallery(Embedding{0, 0}, 3), DefaultThresholds()))

	for i := range 10 {
		commits := seq.Offer(Result{Index: i, PhotoID: string(rune('a' + i)), Faces: []Embedding{{0.05 * float32(i%3), 0}}})
		for _, c := range commits {
			if !c.Decision.Matched {
				t.Errorf("photo %s should match", c.PhotoID)
			}
		}
		if seq.GallerySize() > 3 {
			t.Fatalf("gallery grew to %d", seq.GallerySize())
		}
	}
	if seq.GallerySize() != 3 {
		t.Errorf("expected full gallery, got %d", seq.GallerySize())
	}
	if len(seq.Growth()) != 2 {
		t.Errorf("expected 2 growth events, got %v", seq.Growth())
	}
}
