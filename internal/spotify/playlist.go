package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/zmb3/spotify/v2"
)

// maxItemsPerRequest is the playlist items page size limit of the API.
const maxItemsPerRequest = 100

// FetchTrackIDs pages through a playlist and returns the IDs of its tracks.
// Items without a track (episodes, removed or local entries) are skipped.
// If a page fails, the IDs gathered so far are returned together with the
// error; callers that need certainty must check the error.
func (c *Client) FetchTrackIDs(ctx context.Context, playlistID string) (TrackSet, error) {
	ids := make(TrackSet)
	skipped := 0

	for offset := 0; ; offset += maxItemsPerRequest {
		page, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID),
			spotify.Limit(maxItemsPerRequest),
			spotify.Offset(offset),
		)
		if err != nil {
			c.logger.Error("fetching playlist page", "playlist", playlistID, "offset", offset, "err", err)
			return ids, fmt.Errorf("fetching playlist %s (offset %d): %w", playlistID, offset, err)
		}

		c.logger.Debug("fetched playlist page",
			"playlist", playlistID, "items", len(page.Items), "offset", offset, "total", page.Total)

		for _, item := range page.Items {
			track := item.Track.Track
			if track == nil || track.ID == "" {
				skipped++
				continue
			}
			ids[track.ID.String()] = struct{}{}
		}

		if offset+maxItemsPerRequest >= int(page.Total) {
			break
		}
	}

	c.logger.Info("fetched playlist", "playlist", playlistID, "tracks", len(ids), "skipped", skipped)
	return ids, nil
}

// IsDuplicate reports whether trackID is in the playlist. A non-nil error
// means membership could not be determined; the bool is then meaningless.
func (c *Client) IsDuplicate(ctx context.Context, playlistID, trackID string) (bool, error) {
	ids, err := c.FetchTrackIDs(ctx, playlistID)
	if err != nil {
		return false, fmt.Errorf("checking for duplicate: %w", err)
	}
	return ids.Contains(trackID), nil
}

type addItemsRequest struct {
	URIs     []string `json:"uris"`
	Position int      `json:"position"`
}

// InsertTrack adds a track URI to a playlist at position. The wrapped
// library cannot set a position, so the request is issued directly.
func (c *Client) InsertTrack(ctx context.Context, playlistID, uri string, position int) error {
	body, err := json.Marshal(addItemsRequest{URIs: []string{uri}, Position: position})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	endpoint := c.baseURL + "playlists/" + url.PathEscape(playlistID) + "/tracks"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("adding track to playlist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return decodeError(resp)
	}

	c.logger.Info("track added to playlist", "playlist", playlistID, "uri", uri)
	return nil
}

// decodeError turns an API error response into a spotify.Error.
func decodeError(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("spotify: HTTP %d: reading body: %w", resp.StatusCode, err)
	}

	var e struct {
		Error spotify.Error `json:"error"`
	}
	if err := json.Unmarshal(data, &e); err != nil || e.Error.Message == "" {
		return fmt.Errorf("spotify: HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	if e.Error.Status == 0 {
		e.Error.Status = resp.StatusCode
	}
	return e.Error
}
