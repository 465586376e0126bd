package spotifyapi

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"

	"github.com/Lucasrsv1/spotify-sm-module/internal/music"
)

// playlistTrackFields restricts the playlist items payload to the track
// metadata the resolver needs.
const playlistTrackFields = "limit,next,items(track(id,name,duration_ms,album(id,name,uri,images),artists(id,name)))"

// ListPlaylists retrieves all of the current user's playlists, following the
// pagination cursor until the collection is drained.
func (c *Client) ListPlaylists(ctx context.Context) ([]music.Playlist, error) {
	return collectPages(ctx, func(ctx context.Context, offset int) (Page[music.Playlist], error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return Page[music.Playlist]{}, err
		}

		page, err := c.api.CurrentUsersPlaylists(ctx, spotify.Limit(pageSize), spotify.Offset(offset))
		if err != nil {
			return Page[music.Playlist]{}, fmt.Errorf("listing playlists: %w", err)
		}

		items := make([]music.Playlist, 0, len(page.Playlists))
		for _, p := range page.Playlists {
			items = append(items, music.Playlist{
				ID:          string(p.ID),
				Name:        p.Name,
				URI:         string(p.URI),
				TotalTracks: int(p.Tracks.Total),
			})
		}

		return Page[music.Playlist]{Items: items, Limit: int(page.Limit), Next: page.Next}, nil
	})
}

// ListPlaylistTracks retrieves the full track listing of a playlist. Items
// lacking an associated track (removed or unavailable catalog entries, or
// podcast episodes) are dropped, and artists are projected down to id/name.
func (c *Client) ListPlaylistTracks(ctx context.Context, playlistID string) ([]music.Track, error) {
	return collectPages(ctx, func(ctx context.Context, offset int) (Page[music.Track], error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return Page[music.Track]{}, err
		}

		page, err := c.api.GetPlaylistItems(ctx, spotify.ID(playlistID),
			spotify.Limit(pageSize), spotify.Offset(offset), spotify.Fields(playlistTrackFields))
		if err != nil {
			return Page[music.Track]{}, fmt.Errorf("listing tracks of playlist %s: %w", playlistID, err)
		}

		items := make([]music.Track, 0, len(page.Items))
		for _, item := range page.Items {
			if item.Track.Track == nil {
				continue
			}
			items = append(items, convertTrack(*item.Track.Track))
		}

		return Page[music.Track]{Items: items, Limit: int(page.Limit), Next: page.Next}, nil
	})
}

// convertTrack projects a Spotify track down to the domain Track.
func convertTrack(t spotify.FullTrack) music.Track {
	artists := make([]music.Artist, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = music.Artist{ID: string(a.ID), Name: a.Name}
	}

	images := make([]music.Image, len(t.Album.Images))
	for i, img := range t.Album.Images {
		images[i] = music.Image{URL: img.URL, Height: int(img.Height), Width: int(img.Width)}
	}

	return music.Track{
		ID:         string(t.ID),
		Name:       t.Name,
		DurationMS: int(t.Duration),
		Album: music.Album{
			ID:     string(t.Album.ID),
			Name:   t.Album.Name,
			URI:    string(t.Album.URI),
			Images: images,
		},
		Artists: artists,
	}
}
