package catalog

import (
	"context"
	"fmt"
)

// GetSession retrieves a session descriptor.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	raw, err := doGetJSON[sessionResponse](ctx, c, "api", "session", sessionID)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("could not get session %s: %w", sessionID, err)
	}

	mode, err := ParseMode(raw.Mode)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	return &Session{
		ID:             raw.ID,
		Mode:           mode,
		Name:           raw.Name,
		WelcomeMessage: raw.WelcomeMessage,
		CoverPhotoURL:  raw.CoverPhotoURL,
		ExpiresAt:      raw.ExpiresAt,
		PhotoCount:     raw.PhotoCount,
	}, nil
}
