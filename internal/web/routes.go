package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/event-gallery/internal/web/handlers"
	"github.com/kozaktomas/event-gallery/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	sessionsHandler := handlers.NewSessionsHandler(s.gallery, s.logger)
	runsHandler := handlers.NewRunsHandler(s.baseCtx, s.gallery, s.runs, s.detector, s.logger)
	signer := middleware.NewViewerSigner(s.config.Web.ViewerSecret)

	// Health check (no viewer cookie)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Viewer(signer))

		// Sessions
		r.Get("/sessions/{sessionId}", sessionsHandler.Get)
		r.Get("/sessions/{sessionId}/photos", sessionsHandler.Photos)
		r.Post("/sessions/{sessionId}/download", sessionsHandler.Download)

		// Match runs (long-running operations)
		r.Post("/sessions/{sessionId}/match", runsHandler.Start)
		r.Get("/runs/{runId}", runsHandler.Status)
		r.Delete("/runs/{runId}", runsHandler.Cancel)
		r.Get("/runs/{runId}/events", runsHandler.Events)
		r.Get("/runs/{runId}/photos", runsHandler.Photos)
		r.Post("/runs/{runId}/download", runsHandler.Download)
	})

	s.router.Get("/", s.serveIndex)
}

// serveIndex returns a placeholder page; the guest frontend is deployed separately.
func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>Event Gallery</title>
    <style>
        body { font-family: system-ui, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #1a1a2e; color: #eee; }
        .container { text-align: center; }
        h1 { color: #00d9ff; }
        a { color: #00d9ff; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Event Gallery API</h1>
        <p>API is available at <a href="/api/v1/health">/api/v1/health</a></p>
    </div>
</body>
</html>`))
}
