// Package catalog is the HTTP client for the event session service: session
// descriptors, the paginated photo listing, image fetches and archive downloads.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kozaktomas/event-gallery/internal/constants"
)

// ErrSessionNotFound is returned when the session service has no such session.
var ErrSessionNotFound = errors.New("session not found")

// ErrPhotoTooLarge is returned when a photo body exceeds the fetch limit.
var ErrPhotoTooLarge = errors.New("photo too large")

// Client talks to the session service.
type Client struct {
	baseURL   string
	parsedURL *url.URL
	pageSize  int
	maxPhoto  int64
	http      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithPageSize overrides the listing page size.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithMaxPhotoSize caps the number of bytes FetchImage reads per photo.
func WithMaxPhotoSize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPhoto = n
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a client for the session service at rawURL.
func New(rawURL string, opts ...Option) (*Client, error) {
	rawURL = strings.TrimSuffix(rawURL, "/")
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid catalog URL %q: scheme and host are required", rawURL)
	}
	c := &Client{
		baseURL:   rawURL,
		parsedURL: parsed,
		pageSize:  constants.CatalogPageSize,
		maxPhoto:  constants.MaxPhotoSize,
		http:      http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// PageSize returns the listing page size.
func (c *Client) PageSize() int {
	return c.pageSize
}

// resolveURL builds a full URL from the base URL and the given path segments.
// If the last segment contains a query string (e.g. "photos?page=2"), it is
// split so JoinPath only receives the path portion and the query is appended.
func (c *Client) resolveURL(pathSegments ...string) string {
	if len(pathSegments) == 0 {
		return c.parsedURL.String()
	}
	last := pathSegments[len(pathSegments)-1]
	if pathPart, query, ok := strings.Cut(last, "?"); ok {
		pathSegments[len(pathSegments)-1] = pathPart
		result := c.parsedURL.JoinPath(pathSegments...)
		result.RawQuery = query
		return result.String()
	}
	return c.parsedURL.JoinPath(pathSegments...).String()
}

// resolveAssetURL resolves a photo URL that may be relative to the service root.
func (c *Client) resolveAssetURL(raw string) (string, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid photo URL %q: %w", raw, err)
	}
	return c.parsedURL.ResolveReference(ref).String(), nil
}

// readErrorBody reads the response body for error messages.
// Returns a placeholder if reading fails (we're already in an error path).
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "(could not read error body)"
	}
	return string(body)
}
