package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/kozaktomas/event-gallery/internal/matchrun"
)

// sendSSEEvent writes one server-sent event and flushes it.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}

// runEvents is the part of a run the event stream reads.
type runEvents interface {
	AddListener() chan matchrun.Event
	RemoveListener(ch chan matchrun.Event)
	Snapshot() matchrun.Snapshot
	Done() <-chan struct{}
	TerminalEvent() (matchrun.Event, bool)
}

// streamRunEvents sends the current status, then relays run events until the
// run finishes or the client disconnects.
func streamRunEvents(w http.ResponseWriter, r *http.Request, run runEvents) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Subscribe before reading the status so the terminal event cannot slip in between.
	eventCh := run.AddListener()
	defer run.RemoveListener(eventCh)

	snap := run.Snapshot()
	sendSSEEvent(w, flusher, "status", snap)
	if snap.State.Terminal() {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, event.Type, event)
			if isTerminalEvent(event.Type) {
				return
			}
		case <-run.Done():
			finishRunStream(w, flusher, run, eventCh)
			return
		}
	}
}

// finishRunStream relays what is still buffered for a finished run and makes
// sure the stream ends with the terminal event, even if the broadcaster
// dropped it on a full buffer.
func finishRunStream(w http.ResponseWriter, flusher http.Flusher, run runEvents, eventCh <-chan matchrun.Event) {
	for {
		select {
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, event.Type, event)
			if isTerminalEvent(event.Type) {
				return
			}
		default:
			if event, ok := run.TerminalEvent(); ok {
				sendSSEEvent(w, flusher, event.Type, event)
			}
			return
		}
	}
}

func isTerminalEvent(eventType string) bool {
	switch eventType {
	case matchrun.EventDone, matchrun.EventFailed, matchrun.EventCancelled:
		return true
	}
	return false
}
