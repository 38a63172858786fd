package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const (
	viewerContextKey contextKey = "viewer"
	viewerCookieName            = "event_gallery_viewer"
	viewerCookieMaxAge          = 30 * 24 * time.Hour
	devViewerSecret             = "event-gallery-dev-secret-change-in-production"
)

// ViewerSigner issues and verifies anonymous viewer ids.
type ViewerSigner struct {
	secret []byte
}

// NewViewerSigner creates a signer. An empty secret falls back to a development default.
func NewViewerSigner(secret string) *ViewerSigner {
	if secret == "" {
		secret = devViewerSecret
	}
	return &ViewerSigner{secret: []byte(secret)}
}

// Viewer is middleware that identifies the anonymous guest by a signed cookie,
// issuing a new id when the cookie is missing or tampered with.
func Viewer(signer *ViewerSigner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewerID := signer.viewerFromRequest(r)
			if viewerID == "" {
				viewerID = uuid.New().String()
				signer.setCookie(w, viewerID)
			}
			ctx := context.WithValue(r.Context(), viewerContextKey, viewerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ViewerFromContext returns the viewer id set by Viewer, or "".
func ViewerFromContext(ctx context.Context) string {
	id, _ := ctx.Value(viewerContextKey).(string)
	return id
}

// SetViewerInContext adds a viewer id to the context.
// This is primarily for testing - use the Viewer middleware in production.
func SetViewerInContext(ctx context.Context, viewerID string) context.Context {
	return context.WithValue(ctx, viewerContextKey, viewerID)
}

func (s *ViewerSigner) viewerFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(viewerCookieName)
	if err != nil {
		return ""
	}
	id, signature, ok := strings.Cut(cookie.Value, ".")
	if !ok || !s.verify(id, signature) {
		return ""
	}
	if _, err := uuid.Parse(id); err != nil {
		return ""
	}
	return id
}

func (s *ViewerSigner) setCookie(w http.ResponseWriter, viewerID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     viewerCookieName,
		Value:    viewerID + "." + s.sign(viewerID),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(viewerCookieMaxAge.Seconds()),
	})
}

// sign creates an HMAC signature for data.
func (s *ViewerSigner) sign(data string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

func (s *ViewerSigner) verify(data, signature string) bool {
	return hmac.Equal([]byte(signature), []byte(s.sign(data)))
}
