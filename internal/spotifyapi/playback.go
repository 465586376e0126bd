package spotifyapi

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// Play starts playback of the given track on the user's active device.
// When contextURI is non-empty, playback starts inside that playlist or
// album so the queue continues from there.
func (c *Client) Play(ctx context.Context, trackID, contextURI string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	trackURI := spotify.URI("spotify:track:" + trackID)

	opts := &spotify.PlayOptions{}
	if contextURI != "" {
		uri := spotify.URI(contextURI)
		opts.PlaybackContext = &uri
		opts.PlaybackOffset = &spotify.PlaybackOffset{URI: trackURI}
	} else {
		opts.URIs = []spotify.URI{trackURI}
	}

	if err := c.api.PlayOpt(ctx, opts); err != nil {
		return fmt.Errorf("playing track %s: %w", trackID, err)
	}
	return nil
}

// Enqueue adds the given track to the end of the user's playback queue.
func (c *Client) Enqueue(ctx context.Context, trackID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if err := c.api.QueueSong(ctx, spotify.ID(trackID)); err != nil {
		return fmt.Errorf("queueing track %s: %w", trackID, err)
	}
	return nil
}
