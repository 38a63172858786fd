package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/kozaktomas/event-gallery/internal/catalog"
	"github.com/kozaktomas/event-gallery/internal/facematch"
	"github.com/kozaktomas/event-gallery/internal/matchrun"
	"github.com/kozaktomas/event-gallery/internal/visibility"
)

// PhotosResponse is a page of displayable photos plus the enabled actions.
type PhotosResponse struct {
	SessionID         string                    `json:"session_id"`
	Mode              catalog.Mode              `json:"mode"`
	RunState          matchrun.State            `json:"run_state"`
	ShowOnlyMine      bool                      `json:"show_only_mine"`
	PaginationEnabled bool                      `json:"pagination_enabled"`
	ToggleEnabled     bool                      `json:"toggle_enabled"`
	DownloadAll       bool                      `json:"download_all"`
	DownloadMine      bool                      `json:"download_mine"`
	MatchCount        int                       `json:"match_count"`
	Page              int                       `json:"page"`
	TotalPages        int                       `json:"total_pages"`
	TotalItems        int                       `json:"total_items"`
	Photos            []catalog.PhotoDescriptor `json:"photos"`
}

// DownloadRequest selects the archive scope.
type DownloadRequest struct {
	Scope string `json:"scope"`
}

// viewState is what a guest currently has: the session plus whatever match run they own.
type viewState struct {
	session  *catalog.Session
	matches  *facematch.MatchSet
	runState matchrun.State
}

func evaluate(vs viewState, ids []string, showOnlyMine bool) (visibility.View, error) {
	return visibility.Evaluate(visibility.Input{
		Mode:         vs.session.Mode,
		Catalog:      ids,
		Matches:      vs.matches,
		ShowOnlyMine: showOnlyMine,
		RunState:     vs.runState,
	})
}

func photoIDs(photos []catalog.PhotoDescriptor) []string {
	ids := make([]string, len(photos))
	for i, p := range photos {
		ids[i] = p.ID
	}
	return ids
}

// renderPhotos writes the visible page of photos for vs.
func renderPhotos(w http.ResponseWriter, r *http.Request, gallery *Gallery, vs viewState, logger *zap.Logger) {
	photos, err := gallery.Photos(r.Context(), vs.session.ID)
	if err != nil {
		logger.Error("failed to list photos", zap.String("session_id", vs.session.ID), zap.Error(err))
		respondError(w, http.StatusBadGateway, "failed to list photos")
		return
	}

	showOnlyMine := queryBool(r, "show_only_mine")
	view, err := evaluate(vs, photoIDs(photos), showOnlyMine)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	page := visibility.Whole(view.Display)
	if view.PaginationEnabled {
		page = visibility.Paginate(view.Display, queryPage(r), 0)
	}

	byID := make(map[string]catalog.PhotoDescriptor, len(photos))
	for _, p := range photos {
		byID[p.ID] = p
	}
	out := make([]catalog.PhotoDescriptor, 0, len(page.IDs))
	for _, id := range page.IDs {
		out = append(out, byID[id])
	}

	respondJSON(w, http.StatusOK, PhotosResponse{
		SessionID:         vs.session.ID,
		Mode:              vs.session.Mode,
		RunState:          vs.runState,
		ShowOnlyMine:      showOnlyMine && view.ToggleEnabled,
		PaginationEnabled: view.PaginationEnabled,
		ToggleEnabled:     view.ToggleEnabled,
		DownloadAll:       view.DownloadAll,
		DownloadMine:      view.DownloadMine,
		MatchCount:        vs.matches.Len(),
		Page:              page.Page,
		TotalPages:        page.TotalPages,
		TotalItems:        page.TotalItems,
		Photos:            out,
	})
}

// streamDownload checks the requested scope against the visibility policy and
// streams the archive from the catalog.
func streamDownload(w http.ResponseWriter, r *http.Request, gallery *Gallery, vs viewState, logger *zap.Logger) {
	var req DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	action, err := visibility.ParseAction(req.Scope)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := evaluate(vs, nil, false)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if (action == visibility.DownloadAll && !view.DownloadAll) ||
		(action == visibility.DownloadMine && !view.DownloadMine) {
		respondError(w, http.StatusForbidden, visibility.ErrPolicyViolation.Error())
		return
	}

	ids, err := visibility.Authorize(vs.session.Mode, action, vs.matches, vs.runState)
	if errors.Is(err, visibility.ErrPolicyViolation) {
		respondError(w, http.StatusForbidden, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	archive, err := gallery.Catalog().DownloadArchive(r.Context(), vs.session.ID, ids)
	if err != nil {
		logger.Error("archive download failed", zap.String("session_id", vs.session.ID), zap.Error(err))
		respondError(w, http.StatusBadGateway, "failed to download archive")
		return
	}
	defer archive.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+archiveFilename(vs.session.Name, action)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, archive); err != nil {
		logger.Warn("archive stream interrupted", zap.String("session_id", vs.session.ID), zap.Error(err))
	}
}
