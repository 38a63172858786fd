package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/kozaktomas/event-gallery/internal/matchrun"
)

// SessionsHandler serves session descriptors and the pre-match gallery.
type SessionsHandler struct {
	gallery *Gallery
	logger  *zap.Logger
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(gallery *Gallery, logger *zap.Logger) *SessionsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionsHandler{gallery: gallery, logger: logger}
}

// Get returns the session descriptor.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := loadSession(w, r, h.gallery, h.logger)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// Photos returns the gallery as seen before any match run.
func (h *SessionsHandler) Photos(w http.ResponseWriter, r *http.Request) {
	session, ok := loadSession(w, r, h.gallery, h.logger)
	if !ok {
		return
	}
	renderPhotos(w, r, h.gallery, viewState{session: session, runState: matchrun.StateIdle}, h.logger)
}

// Download streams an archive without a match run, which only browse sessions allow.
func (h *SessionsHandler) Download(w http.ResponseWriter, r *http.Request) {
	session, ok := loadSession(w, r, h.gallery, h.logger)
	if !ok {
		return
	}
	streamDownload(w, r, h.gallery, viewState{session: session, runState: matchrun.StateIdle}, h.logger)
}
