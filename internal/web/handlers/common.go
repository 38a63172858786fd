package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kozaktomas/event-gallery/internal/catalog"
	"github.com/kozaktomas/event-gallery/internal/facematch"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// Catalog is the subset of the photo catalog client the handlers use.
type Catalog interface {
	GetSession(ctx context.Context, sessionID string) (*catalog.Session, error)
	ListAll(ctx context.Context, sessionID string) ([]catalog.PhotoDescriptor, int, error)
	DownloadArchive(ctx context.Context, sessionID string, photoIDs []string) (io.ReadCloser, error)
}

// SelfieDetector extracts the guest's face from an uploaded selfie.
type SelfieDetector interface {
	DetectOne(ctx context.Context, imageData []byte) (facematch.Embedding, error)
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// loadSession resolves the {sessionId} URL parameter. On failure it writes
// 404 for unknown, 410 for expired and 502 for upstream errors.
func loadSession(w http.ResponseWriter, r *http.Request, gallery *Gallery, logger *zap.Logger) (*catalog.Session, bool) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing session ID")
		return nil, false
	}
	return fetchSession(w, r, gallery, sessionID, logger)
}

// fetchSession loads a session by id, answering 404 for unknown and 410 for
// expired sessions.
func fetchSession(w http.ResponseWriter, r *http.Request, gallery *Gallery, sessionID string, logger *zap.Logger) (*catalog.Session, bool) {
	session, err := gallery.Session(r.Context(), sessionID)
	switch {
	case errors.Is(err, catalog.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "session not found")
		return nil, false
	case err != nil:
		logger.Error("failed to load session", zap.String("session_id", sanitizeForLog(sessionID)), zap.Error(err))
		respondError(w, http.StatusBadGateway, "failed to load session")
		return nil, false
	}

	if session.Expired(time.Now()) {
		respondError(w, http.StatusGone, "session has expired")
		return nil, false
	}
	return session, true
}

// queryPage reads the 1-based page query parameter.
func queryPage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// queryBool reads a boolean query parameter, treating anything unparsable as false.
func queryBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return v
}
