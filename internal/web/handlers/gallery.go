package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/kozaktomas/event-gallery/internal/catalog"
	"github.com/kozaktomas/event-gallery/internal/constants"
)

// Gallery caches session descriptors and photo listings for a short time so
// page flips do not relist the whole catalog.
type Gallery struct {
	catalog Catalog
	cache   *cache.Cache
}

// NewGallery creates a gallery cache in front of the catalog.
func NewGallery(c Catalog, ttl time.Duration) *Gallery {
	if ttl <= 0 {
		ttl = constants.SessionCacheTTL
	}
	return &Gallery{catalog: c, cache: cache.New(ttl, 2*ttl)}
}

// Catalog returns the underlying catalog.
func (g *Gallery) Catalog() Catalog {
	return g.catalog
}

// Session returns the session descriptor.
func (g *Gallery) Session(ctx context.Context, sessionID string) (*catalog.Session, error) {
	key := "session:" + sessionID
	if v, ok := g.cache.Get(key); ok {
		return v.(*catalog.Session), nil
	}
	session, err := g.catalog.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	g.cache.Set(key, session, cache.DefaultExpiration)
	return session, nil
}

// Photos returns all photo descriptors of a session in catalog order.
func (g *Gallery) Photos(ctx context.Context, sessionID string) ([]catalog.PhotoDescriptor, error) {
	key := "photos:" + sessionID
	if v, ok := g.cache.Get(key); ok {
		return v.([]catalog.PhotoDescriptor), nil
	}
	photos, _, err := g.catalog.ListAll(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing photos of session %s: %w", sessionID, err)
	}
	g.cache.Set(key, photos, cache.DefaultExpiration)
	return photos, nil
}
