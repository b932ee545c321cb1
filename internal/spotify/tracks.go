package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/zmb3/spotify/v2"
)

// ErrTrackNotFound is returned when a track ID does not resolve.
var ErrTrackNotFound = errors.New("track not found")

// GetTrack resolves a track ID to its reference. IDs the API rejects as
// unknown or invalid yield ErrTrackNotFound; other failures are wrapped.
func (c *Client) GetTrack(ctx context.Context, id string) (*TrackReference, error) {
	track, err := c.api.GetTrack(ctx, spotify.ID(id))
	if err != nil {
		var apiErr spotify.Error
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusNotFound || apiErr.Status == http.StatusBadRequest) {
			return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, id)
		}
		return nil, fmt.Errorf("getting track %s: %w", id, err)
	}
	if track == nil || track.ID == "" {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}

	uri := string(track.URI)
	if uri == "" {
		uri = "spotify:track:" + track.ID.String()
	}
	return &TrackReference{ID: track.ID.String(), URI: uri}, nil
}
