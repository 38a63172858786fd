package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/event-gallery/internal/catalog"
	"github.com/kozaktomas/event-gallery/internal/matchrun"
)

// startRun uploads a selfie and waits for the run to finish.
func startRun(t *testing.T, env *testEnv, sessionID string) string {
	t.Helper()
	rec := env.do(selfieRequest(t, sessionID, []byte("selfie")))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp StartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	run := env.runs.Get(resp.RunID)
	if run == nil {
		t.Fatal("run not stored")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := run.Wait(ctx); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return resp.RunID
}

func TestRunsHandler_PrivacyShowsOnlyMatches(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.addSession("s1", catalog.ModePrivacy, 10)
	runID := startRun(t, env, "s1")

	resp := decodePhotos(t, env.do(httptest.NewRequest(http.MethodGet, "/runs/"+runID+"/photos", nil)))

	var ids []string
	for _, p := range resp.Photos {
		ids = append(ids, p.ID)
	}
	if want := []string{"2", "5"}; !slices.Equal(ids, want) {
		t.Errorf("expected photos %v, got %v", want, ids)
	}
	if resp.RunState != matchrun.StateDone {
		t.Errorf("expected run state done, got %s", resp.RunState)
	}
	if resp.DownloadAll || !resp.DownloadMine || resp.PaginationEnabled || resp.ToggleEnabled {
		t.Errorf("unexpected actions: %+v", resp)
	}
}

func TestRunsHandler_BrowseToggle(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.addSession("s1", catalog.ModeBrowse, 10)
	runID := startRun(t, env, "s1")

	all := decodePhotos(t, env.do(httptest.NewRequest(http.MethodGet, "/runs/"+runID+"/photos", nil)))
	mine := decodePhotos(t, env.do(httptest.NewRequest(http.MethodGet, "/runs/"+runID+"/photos?show_only_mine=true", nil)))

	if all.TotalItems != 10 {
		t.Errorf("expected 10 photos with toggle off, got %d", all.TotalItems)
	}
	if mine.TotalItems != 2 || !mine.ShowOnlyMine {
		t.Errorf("expected 2 photos with toggle on, got %+v", mine)
	}
	if !all.ToggleEnabled || !all.DownloadAll || !all.DownloadMine {
		t.Errorf("unexpected actions: %+v", all)
	}
}

func TestRunsHandler_Download(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.addSession("s1", catalog.ModePrivacy, 10)
	runID := startRun(t, env, "s1")

	rec := env.do(httptest.NewRequest(http.MethodPost, "/runs/"+runID+"/download", strings.NewReader(`{"scope":"all"}`)))
	if rec.Code != http.StatusForbidden {
		t.Errorf("download all: expected status 403, got %d", rec.Code)
	}

	rec = env.do(httptest.NewRequest(http.MethodPost, "/runs/"+runID+"/download", strings.NewReader(`{"scope":"mine"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("download mine: expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(env.catalog.archiveIDs) != 1 || !slices.Equal(env.catalog.archiveIDs[0], []string{"2", "5"}) {
		t.Errorf("expected archive of [2 5], got %v", env.catalog.archiveIDs)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "-mine.zip") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
}

func TestRunsHandler_ExpiredSessionIsGone(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.addSession("s1", catalog.ModeBrowse, 10)
	runID := startRun(t, env, "s1")

	env.catalog.sessions["s1"].ExpiresAt = time.Now().Add(-time.Hour)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/runs/"+runID+"/photos", nil))
	if rec.Code != http.StatusGone {
		t.Errorf("photos: expected status 410, got %d", rec.Code)
	}
	rec = env.do(httptest.NewRequest(http.MethodPost, "/runs/"+runID+"/download", strings.NewReader(`{"scope":"all"}`)))
	if rec.Code != http.StatusGone {
		t.Errorf("download: expected status 410, got %d", rec.Code)
	}
	if len(env.catalog.archiveIDs) != 0 {
		t.Errorf("archive requested for an expired session: %v", env.catalog.archiveIDs)
	}
}

func TestRunsHandler_StartNoFace(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.addSession("s1", catalog.ModeBrowse, 3)

	rec := env.do(selfieRequest(t, "s1", []byte("no-face")))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d: %s", rec.Code, rec.Body.String())
	}
	if env.runs.Active("guest") != nil {
		t.Error("failed run should not become active")
	}
}

func TestRunsHandler_StartBadRequests(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.addSession("s1", catalog.ModeBrowse, 3)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/sessions/s1/match", strings.NewReader("not multipart")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}

	rec = env.do(selfieRequest(t, "missing", []byte("selfie")))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestRunsHandler_OtherViewerCannotSeeRun(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.addSession("s1", catalog.ModePrivacy, 10)
	runID := startRun(t, env, "s1")

	for _, path := range []string{"/runs/" + runID, "/runs/" + runID + "/photos"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Test-Viewer", "someone-else")
		if rec := env.do(req); rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", path, rec.Code)
		}
	}
}

func TestRunsHandler_StatusAndCancel(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.addSession("s1", catalog.ModeBrowse, 10)
	runID := startRun(t, env, "s1")

	rec := env.do(httptest.NewRequest(http.MethodGet, "/runs/"+runID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var snap matchrun.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if snap.State != matchrun.StateDone || snap.MatchCount != 2 || snap.Progress.Percent != 100 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}

	rec = env.do(httptest.NewRequest(http.MethodDelete, "/runs/"+runID, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	rec = env.do(httptest.NewRequest(http.MethodDelete, "/runs/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestRunsHandler_EventsForFinishedRun(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.addSession("s1", catalog.ModeBrowse, 3)
	runID := startRun(t, env, "s1")

	rec := env.do(httptest.NewRequest(http.MethodGet, "/runs/"+runID+"/events", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected event-stream, got %q", ct)
	}
	scanner := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	if !scanner.Scan() || scanner.Text() != "event: status" {
		t.Fatalf("expected status event first, got %q", rec.Body.String())
	}
	if !scanner.Scan() || !strings.Contains(scanner.Text(), `"state":"done"`) {
		t.Errorf("expected done state in status event, got %q", scanner.Text())
	}
}
