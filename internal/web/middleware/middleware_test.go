package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestIsOriginAllowed(t *testing.T) {
	allowed := originSet([]string{"https://gallery.example.com/"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", false},
		{"http://localhost:5173", true},
		{"https://localhost", true},
		{"http://127.0.0.1:8080", true},
		{"http://localhost.evil.com", false},
		{"https://gallery.example.com", true},
		{"https://other.example.com", false},
		{"ftp://localhost", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			if got := isOriginAllowed(tt.origin, allowed); got != tt.want {
				t.Errorf("isOriginAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	handler := CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if called {
		t.Error("preflight should not reach the handler")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestViewer_IssuesAndReusesCookie(t *testing.T) {
	signer := NewViewerSigner("test-secret")
	var seen []string
	handler := Viewer(signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, ViewerFromContext(r.Context()))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != viewerCookieName {
		t.Fatalf("cookies = %v, want one viewer cookie", cookies)
	}
	if seen[0] == "" {
		t.Fatal("viewer id not set in context")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen[1] != seen[0] {
		t.Errorf("viewer id = %q, want %q", seen[1], seen[0])
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("valid cookie should not be reissued")
	}
}

func TestViewer_RejectsTamperedCookie(t *testing.T) {
	signer := NewViewerSigner("test-secret")
	var got string
	handler := Viewer(signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ViewerFromContext(r.Context())
	}))

	forged := "11111111-1111-1111-1111-111111111111"
	other := NewViewerSigner("other-secret")

	tests := []struct {
		name  string
		value string
	}{
		{"no signature", forged},
		{"wrong signature", forged + "." + other.sign(forged)},
		{"not a uuid", "admin." + signer.sign("admin")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: viewerCookieName, Value: tt.value})
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if got == "" || got == forged || got == "admin" {
				t.Errorf("viewer id = %q, want a fresh id", got)
			}
			if len(rec.Result().Cookies()) != 1 {
				t.Error("expected a new cookie")
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) {
		t.Errorf("status field = %v", fields["status"])
	}
	if path, _ := fields["path"].(string); !strings.HasSuffix(path, "/health") {
		t.Errorf("path field = %v", fields["path"])
	}
}
