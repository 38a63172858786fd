package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/event-gallery/internal/catalog"
	"github.com/kozaktomas/event-gallery/internal/embedding"
	"github.com/kozaktomas/event-gallery/internal/facematch"
	"github.com/kozaktomas/event-gallery/internal/matchrun"
	"github.com/kozaktomas/event-gallery/internal/web/middleware"
)

// mockCatalog serves sessions and photos from memory and records archive requests.
type mockCatalog struct {
	mu          sync.Mutex
	sessions    map[string]*catalog.Session
	photos      map[string][]catalog.PhotoDescriptor
	sessionErr  error
	sessionHits int
	archiveIDs  [][]string
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		sessions: make(map[string]*catalog.Session),
		photos:   make(map[string][]catalog.PhotoDescriptor),
	}
}

func (m *mockCatalog) addSession(id string, mode catalog.Mode, photoCount int) {
	m.sessions[id] = &catalog.Session{ID: id, Mode: mode, Name: "Party " + id, PhotoCount: photoCount}
	photos := make([]catalog.PhotoDescriptor, photoCount)
	for i := range photoCount {
		photos[i] = catalog.PhotoDescriptor{ID: fmt.Sprintf("%d", i+1), Position: i}
	}
	m.photos[id] = photos
}

func (m *mockCatalog) GetSession(_ context.Context, sessionID string) (*catalog.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionHits++
	if m.sessionErr != nil {
		return nil, m.sessionErr
	}
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrSessionNotFound, sessionID)
	}
	return s, nil
}

func (m *mockCatalog) ListAll(_ context.Context, sessionID string) ([]catalog.PhotoDescriptor, int, error) {
	photos := m.photos[sessionID]
	return photos, len(photos), nil
}

func (m *mockCatalog) ListAllWithProgress(ctx context.Context, sessionID string, onPage func(page, totalPages int)) ([]catalog.PhotoDescriptor, int, error) {
	if onPage != nil {
		onPage(1, 1)
	}
	return m.ListAll(ctx, sessionID)
}

func (m *mockCatalog) FetchImage(_ context.Context, photo catalog.PhotoDescriptor) ([]byte, error) {
	return []byte(photo.ID), nil
}

func (m *mockCatalog) DownloadArchive(_ context.Context, _ string, photoIDs []string) (io.ReadCloser, error) {
	m.mu.Lock()
	m.archiveIDs = append(m.archiveIDs, photoIDs)
	m.mu.Unlock()
	return io.NopCloser(strings.NewReader("PK-archive")), nil
}

// mockDetector treats image bytes as a photo id. The selfie "no-face" has no face.
type mockDetector struct {
	faces map[string][]facematch.Embedding
}

func (d *mockDetector) DetectOne(_ context.Context, data []byte) (facematch.Embedding, error) {
	if string(data) == "no-face" {
		return nil, embedding.ErrNoFace
	}
	return facematch.Embedding{0}, nil
}

func (d *mockDetector) DetectAll(_ context.Context, data []byte) ([]facematch.Embedding, error) {
	return d.faces[string(data)], nil
}

// testEnv wires handlers to in-memory fakes through a real chi router.
type testEnv struct {
	catalog  *mockCatalog
	detector *mockDetector
	runs     *matchrun.Manager
	router   chi.Router
}

// newTestEnv creates handlers where photos "2" and "5" match the selfie.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cat := newMockCatalog()
	det := &mockDetector{faces: map[string][]facematch.Embedding{
		"2": {{0.1}},
		"5": {{0.2}, {3}},
	}}
	controller := matchrun.NewController(cat, cat, det, nil, matchrun.Options{Workers: 2})
	runs := matchrun.NewManager(controller, time.Minute)
	t.Cleanup(runs.Shutdown)

	gallery := NewGallery(cat, time.Minute)
	sessions := NewSessionsHandler(gallery, nil)
	runsHandler := NewRunsHandler(context.Background(), gallery, runs, det, nil)

	r := chi.NewRouter()
	r.Use(withViewer)
	r.Get("/sessions/{sessionId}", sessions.Get)
	r.Get("/sessions/{sessionId}/photos", sessions.Photos)
	r.Post("/sessions/{sessionId}/download", sessions.Download)
	r.Post("/sessions/{sessionId}/match", runsHandler.Start)
	r.Get("/runs/{runId}", runsHandler.Status)
	r.Delete("/runs/{runId}", runsHandler.Cancel)
	r.Get("/runs/{runId}/events", runsHandler.Events)
	r.Get("/runs/{runId}/photos", runsHandler.Photos)
	r.Post("/runs/{runId}/download", runsHandler.Download)

	return &testEnv{catalog: cat, detector: det, runs: runs, router: r}
}

// withViewer takes the viewer id from the X-Test-Viewer header, defaulting to "guest".
func withViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer := r.Header.Get("X-Test-Viewer")
		if viewer == "" {
			viewer = "guest"
		}
		next.ServeHTTP(w, r.WithContext(middleware.SetViewerInContext(r.Context(), viewer)))
	})
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// selfieRequest builds a multipart selfie upload.
func selfieRequest(t *testing.T, sessionID string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("selfie", "selfie.jpg")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	part.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID+"/match", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
