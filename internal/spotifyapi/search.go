package spotifyapi

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"

	"github.com/Lucasrsv1/spotify-sm-module/internal/music"
)

const searchLimit = 20

// SearchTracks runs a track search against the Spotify catalog and returns
// the first page of results. The resolver consumes a single page; it narrows
// the query instead of paging through weak matches.
func (c *Client) SearchTracks(ctx context.Context, query string) ([]music.Track, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := c.api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(searchLimit))
	if err != nil {
		return nil, fmt.Errorf("searching tracks: %w", err)
	}

	if result.Tracks == nil {
		return nil, nil
	}

	tracks := make([]music.Track, 0, len(result.Tracks.Tracks))
	for _, t := range result.Tracks.Tracks {
		tracks = append(tracks, convertTrack(t))
	}
	return tracks, nil
}
