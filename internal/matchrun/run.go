package matchrun

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/event-gallery/internal/facematch"
)

// Run is one selfie-matching attempt over a session catalog.
type Run struct {
	EventBroadcaster

	ID        string
	SessionID string
	StartedAt time.Time

	state       State
	progress    Progress
	matches     *facematch.MatchSet
	failures    int
	growth      []string
	gallerySize int
	err         error
	completedAt *time.Time

	done   chan struct{}
	cancel context.CancelFunc
}

// Snapshot is a point-in-time, JSON-serializable view of a run.
type Snapshot struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"session_id"`
	State       State      `json:"state"`
	Progress    Progress   `json:"progress"`
	MatchCount  int        `json:"match_count"`
	Matches     []string   `json:"matches"`
	Failures    int        `json:"failures"`
	GallerySize int        `json:"gallery_size"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Result is the outcome of a finished run.
type Result struct {
	State     State
	Matches   []string
	Failures  int
	Cancelled bool
	Growth    []string
}

func newRun(sessionID string) *Run {
	return &Run{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		StartedAt: time.Now(),
		state:     StateIdle,
		matches:   facematch.NewMatchSet(),
		done:      make(chan struct{}),
		cancel:    func() {},
	}
}

// State returns the current run state.
func (r *Run) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Done is closed once the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Cancel requests cancellation. Work already committed is kept.
func (r *Run) Cancel() {
	r.cancel()
}

// Err returns the fatal error of a failed run.
func (r *Run) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Wait blocks until the run finishes or ctx is done.
func (r *Run) Wait(ctx context.Context) (Result, error) {
	select {
	case <-r.done:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	return r.Result(), r.Err()
}

// Result returns the committed outcome so far.
func (r *Run) Result() Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Result{
		State:     r.state,
		Matches:   r.matches.IDs(),
		Failures:  r.failures,
		Cancelled: r.state == StateCancelled,
		Growth:    append([]string(nil), r.growth...),
	}
}

// MatchSet returns a copy of the committed matches.
func (r *Run) MatchSet() *facematch.MatchSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return facematch.MatchSetOf(r.matches.IDs()...)
}

// Progress returns the last reported progress.
func (r *Run) Progress() Progress {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.progress
}

// Snapshot returns the run status for API responses.
func (r *Run) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Snapshot{
		ID:          r.ID,
		SessionID:   r.SessionID,
		State:       r.state,
		Progress:    r.progress,
		MatchCount:  r.matches.Len(),
		Matches:     r.matches.IDs(),
		Failures:    r.failures,
		GallerySize: r.gallerySize,
		StartedAt:   r.StartedAt,
		CompletedAt: r.completedAt,
	}
	if s.Matches == nil {
		s.Matches = []string{}
	}
	if r.err != nil {
		s.Error = r.err.Error()
	}
	return s
}

// transition moves the run to a new non-terminal state.
func (r *Run) transition(to State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := canTransition(r.state, to); err != nil {
		return err
	}
	r.state = to
	return nil
}

// finish moves the run to a terminal state, broadcasts it and releases waiters.
func (r *Run) finish(to State, cause error) error {
	r.mu.Lock()
	if err := canTransition(r.state, to); err != nil {
		r.mu.Unlock()
		return err
	}
	r.state = to
	r.err = cause
	now := time.Now()
	r.completedAt = &now
	r.mu.Unlock()

	event, _ := r.TerminalEvent()
	r.SendEvent(event)
	close(r.done)
	return nil
}

// TerminalEvent builds the final event of a finished run. It returns false
// while the run is still in progress.
func (r *Run) TerminalEvent() (Event, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event := Event{Data: r.snapshotLocked()}
	switch r.state {
	case StateDone:
		event.Type = EventDone
	case StateFailed:
		event.Type = EventFailed
		if r.err != nil {
			event.Message = r.err.Error()
		}
	case StateCancelled:
		event.Type = EventCancelled
	default:
		return Event{}, false
	}
	return event, true
}

func (r *Run) snapshotLocked() map[string]any {
	return map[string]any{
		"run_id":      r.ID,
		"state":       r.state,
		"match_count": r.matches.Len(),
		"failures":    r.failures,
	}
}

// setProgress records p unless it would move the percentage backwards.
func (r *Run) setProgress(p Progress) Progress {
	r.mu.Lock()
	if p.Percent < r.progress.Percent {
		p.Percent = r.progress.Percent
	}
	r.progress = p
	r.mu.Unlock()

	r.SendEvent(Event{Type: EventProgress, Message: p.Status, Data: p})
	return p
}

// commit applies sequencer output atomically.
func (r *Run) commit(commits []facematch.Commit, seq *facematch.Sequencer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range commits {
		if c.Err != nil {
			r.failures++
			continue
		}
		if c.Decision.Matched {
			r.matches.Add(c.PhotoID)
		}
	}
	r.growth = seq.Growth()
	r.gallerySize = seq.GallerySize()
}
