// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Catalog constants
const (
	// CatalogPageSize is the number of photos requested per catalog page.
	// Matches the per_page default of the upstream session service.
	CatalogPageSize = 10

	// MaxCatalogPages guards against a catalog that never reports exhaustion
	MaxCatalogPages = 10000
)

// Face matching constants
const (
	// MatchThreshold is the maximum Euclidean distance (exclusive) for a photo
	// face to count as the user
	MatchThreshold = 0.7

	// GalleryThreshold is the maximum Euclidean distance (exclusive) for a matched
	// face to be admitted into the reference gallery
	GalleryThreshold = 0.4

	// GalleryCapacity is the maximum number of reference embeddings, selfie included
	GalleryCapacity = 3
)

// Processing constants
const (
	// WorkerPoolSize is the default number of parallel fetch+detect workers
	WorkerPoolSize = 6

	// MaxWorkerPoolSize caps user-supplied worker counts
	MaxWorkerPoolSize = 32

	// DetectTimeout bounds a single photo fetch plus embedding call
	DetectTimeout = 30 * time.Second

	// MaxImageSize is the maximum dimension (width or height) sent to the embedding service
	MaxImageSize = 1920
)

// Progress milestones (percent)
const (
	ProgressListingStart = 10
	ProgressListingDone  = 20
	ProgressAnalyzingEnd = 95
	ProgressDone         = 100
)

// Web constants
const (
	// EventChannelBuffer is the buffer size for event channels
	EventChannelBuffer = 100

	// MaxSelfieSize is the maximum selfie upload size in bytes (20MB)
	MaxSelfieSize = 20 << 20

	// MaxPhotoSize is the largest catalog photo fetched for analysis (50MB)
	MaxPhotoSize = 50 << 20

	// DefaultRunTTL is how long finished runs stay queryable
	DefaultRunTTL = time.Hour

	// SessionCacheTTL is how long session descriptors are cached
	SessionCacheTTL = 5 * time.Minute

	// DisplayPageSize is the page size for the browse-mode photo grid
	DisplayPageSize = 10
)
