package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/kozaktomas/event-gallery/internal/constants"
)

// ListPage retrieves one page of a session's photos. Pages are 1-based.
func (c *Client) ListPage(ctx context.Context, sessionID string, page, pageSize int) (*PhotoPage, error) {
	endpoint := fmt.Sprintf("photos?page=%d&per_page=%d", page, pageSize)
	result, err := doGetJSON[PhotoPage](ctx, c, "api", "session", sessionID, endpoint)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, err
	}

	for i := range result.Photos {
		result.Photos[i].PageIndex = page
		result.Photos[i].Position = i
	}
	return result, nil
}

// ListAll pages through the whole listing and returns every photo in catalog order
// (ascending page, then position) along with the total count. Any page failure fails
// the whole listing.
func (c *Client) ListAll(ctx context.Context, sessionID string) ([]PhotoDescriptor, int, error) {
	return c.ListAllWithProgress(ctx, sessionID, nil)
}

// ListAllWithProgress is ListAll with a callback invoked after each page.
func (c *Client) ListAllWithProgress(ctx context.Context, sessionID string, onPage func(page, totalPages int)) ([]PhotoDescriptor, int, error) {
	var all []PhotoDescriptor
	total := 0

	for page := 1; page <= constants.MaxCatalogPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		result, err := c.ListPage(ctx, sessionID, page, c.pageSize)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list page %d: %w", page, err)
		}

		total = result.Pagination.TotalPhotos
		all = append(all, result.Photos...)

		if onPage != nil {
			onPage(page, result.Pagination.TotalPages)
		}

		if len(result.Photos) == 0 || page >= result.Pagination.TotalPages {
			break
		}
	}

	if total < len(all) {
		total = len(all)
	}
	return all, total, nil
}

// FetchImage downloads the original image of a photo.
func (c *Client) FetchImage(ctx context.Context, photo PhotoDescriptor) ([]byte, error) {
	if photo.OriginalURL == "" {
		return nil, fmt.Errorf("photo %s has no original URL", photo.ID)
	}
	u, err := c.resolveAssetURL(photo.OriginalURL)
	if err != nil {
		return nil, err
	}
	data, err := doGetBytes(ctx, c, u, c.maxPhoto)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch photo %s: %w", photo.ID, err)
	}
	return data, nil
}

// DownloadArchive requests a zip of the given photos. An empty list asks for every
// photo in the session; callers must only send it when that is permitted.
// The caller must close the returned reader.
func (c *Client) DownloadArchive(ctx context.Context, sessionID string, photoIDs []string) (io.ReadCloser, error) {
	if photoIDs == nil {
		photoIDs = []string{}
	}
	body, _, err := doPostStream(ctx, c, photoIDs, "api", "session", sessionID, "download")
	if err != nil {
		return nil, fmt.Errorf("failed to download archive for session %s: %w", sessionID, err)
	}
	return body, nil
}
