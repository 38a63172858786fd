package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Mode is the session-level visibility policy. It has exactly two values.
type Mode string

const (
	ModeBrowse  Mode = "browse"
	ModePrivacy Mode = "privacy"
)

// ParseMode validates a mode string from the session service.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeBrowse:
		return ModeBrowse, nil
	case ModePrivacy:
		return ModePrivacy, nil
	default:
		return "", fmt.Errorf("unknown session mode %q", s)
	}
}

// Session is the descriptor of a shared event gallery.
type Session struct {
	ID             string    `json:"id"`
	Mode           Mode      `json:"mode"`
	Name           string    `json:"name"`
	WelcomeMessage string    `json:"welcome_message,omitempty"`
	CoverPhotoURL  string    `json:"cover_photo_url,omitempty"`
	ExpiresAt      time.Time `json:"expires_at"`
	PhotoCount     int       `json:"photo_count"`
}

// Expired reports whether the session is past its expiry. A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// PhotoDescriptor identifies one photo in catalog order.
type PhotoDescriptor struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	ThumbnailURL string `json:"thumbnail_url"`
	OriginalURL  string `json:"original_url"`
	PageIndex    int    `json:"page_index"`
	Position     int    `json:"position"`
}

// Pagination is the listing metadata returned with each page.
type Pagination struct {
	Page        int `json:"page"`
	PerPage     int `json:"per_page"`
	TotalPages  int `json:"total_pages"`
	TotalPhotos int `json:"total_photos"`
}

// PhotoPage is one page of the upstream listing.
type PhotoPage struct {
	Photos     []PhotoDescriptor `json:"photos"`
	Pagination Pagination        `json:"pagination"`
}

// sessionResponse is the upstream session payload. Mode is parsed separately so
// unknown values are rejected at the boundary.
type sessionResponse struct {
	ID             string    `json:"id"`
	Mode           string    `json:"mode"`
	Name           string    `json:"name"`
	WelcomeMessage string    `json:"welcome_message"`
	CoverPhotoURL  string    `json:"cover_photo_url"`
	ExpiresAt      time.Time `json:"expires_at"`
	PhotoCount     int       `json:"photo_count"`
}
