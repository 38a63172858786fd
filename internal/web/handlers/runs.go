package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kozaktomas/event-gallery/internal/constants"
	"github.com/kozaktomas/event-gallery/internal/embedding"
	"github.com/kozaktomas/event-gallery/internal/matchrun"
	"github.com/kozaktomas/event-gallery/internal/web/middleware"
)

// RunsHandler starts match runs and serves their status, events and results.
type RunsHandler struct {
	gallery  *Gallery
	runs     *matchrun.Manager
	detector SelfieDetector
	baseCtx  context.Context
	logger   *zap.Logger
}

// NewRunsHandler creates a new runs handler. Runs outlive the request that
// started them and are bound to baseCtx instead.
func NewRunsHandler(baseCtx context.Context, gallery *Gallery, runs *matchrun.Manager, detector SelfieDetector, logger *zap.Logger) *RunsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunsHandler{
		gallery:  gallery,
		runs:     runs,
		detector: detector,
		baseCtx:  baseCtx,
		logger:   logger,
	}
}

// StartResponse is returned when a match run is accepted.
type StartResponse struct {
	RunID string         `json:"run_id"`
	State matchrun.State `json:"state"`
}

// Start handles a selfie upload and starts a match run. It replaces any run
// the same viewer started before.
func (h *RunsHandler) Start(w http.ResponseWriter, r *http.Request) {
	session, ok := loadSession(w, r, h.gallery, h.logger)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxSelfieSize)
	if err := r.ParseMultipartForm(constants.MaxSelfieSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	file, _, err := r.FormFile("selfie")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing selfie file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		respondError(w, http.StatusBadRequest, "failed to read selfie")
		return
	}

	selfie, err := h.detector.DetectOne(r.Context(), data)
	if err != nil && !errors.Is(err, embedding.ErrNoFace) {
		h.logger.Error("selfie detection failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "failed to analyze selfie")
		return
	}

	viewer := middleware.ViewerFromContext(r.Context())
	run, err := h.runs.Start(h.baseCtx, viewer, session.ID, selfie)
	if errors.Is(err, matchrun.ErrNoFaceDetected) {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusAccepted, StartResponse{RunID: run.ID, State: run.State()})
}

// lookupRun resolves the {runId} URL parameter to a run owned by the viewer.
func (h *RunsHandler) lookupRun(w http.ResponseWriter, r *http.Request) *matchrun.Run {
	runID := chi.URLParam(r, "runId")
	if runID == "" {
		respondError(w, http.StatusBadRequest, "missing run ID")
		return nil
	}
	run := h.runs.GetOwned(middleware.ViewerFromContext(r.Context()), runID)
	if run == nil {
		respondError(w, http.StatusNotFound, "run not found")
		return nil
	}
	return run
}

// Status returns a run snapshot.
func (h *RunsHandler) Status(w http.ResponseWriter, r *http.Request) {
	run := h.lookupRun(w, r)
	if run == nil {
		return
	}
	respondJSON(w, http.StatusOK, run.Snapshot())
}

// Cancel cancels a run. Matches committed so far are kept.
func (h *RunsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	run := h.lookupRun(w, r)
	if run == nil {
		return
	}
	run.Cancel()
	respondJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

// Events streams run events via SSE.
func (h *RunsHandler) Events(w http.ResponseWriter, r *http.Request) {
	run := h.lookupRun(w, r)
	if run == nil {
		return
	}
	streamRunEvents(w, r, run)
}

// Photos returns the photos the viewer may see given the run.
func (h *RunsHandler) Photos(w http.ResponseWriter, r *http.Request) {
	vs, ok := h.runView(w, r)
	if !ok {
		return
	}
	renderPhotos(w, r, h.gallery, vs, h.logger)
}

// Download streams an archive allowed by the run's visibility.
func (h *RunsHandler) Download(w http.ResponseWriter, r *http.Request) {
	vs, ok := h.runView(w, r)
	if !ok {
		return
	}
	streamDownload(w, r, h.gallery, vs, h.logger)
}

func (h *RunsHandler) runView(w http.ResponseWriter, r *http.Request) (viewState, bool) {
	run := h.lookupRun(w, r)
	if run == nil {
		return viewState{}, false
	}
	session, ok := fetchSession(w, r, h.gallery, run.SessionID, h.logger)
	if !ok {
		return viewState{}, false
	}
	return viewState{
		session:  session,
		matches:  run.MatchSet(),
		runState: run.State(),
	}, true
}
