// Package music defines the domain types shared by the playlist cache,
// the track resolver and the Spotify API wrapper.
package music

// Artist is the projection of a Spotify artist kept in the cache.
type Artist struct {
	ID   string
	Name string
}

// Image is a cover image in one of the sizes Spotify provides.
type Image struct {
	URL    string
	Height int
	Width  int
}

// Album carries the album metadata needed for matching and display.
type Album struct {
	ID     string
	Name   string
	URI    string
	Images []Image
}

// Track is an immutable catalog track. Multiple Track values may carry the
// same ID when the track was found through different paths (cache vs remote
// search); consumers deduplicate by ID.
type Track struct {
	ID         string
	Name       string
	DurationMS int
	Album      Album
	Artists    []Artist

	// ContextURI identifies the playlist or album used to start contextual
	// playback of this track.
	ContextURI string
}

// Playlist is one of the user's playlists. Values are replaced wholesale on
// every cache refresh, never mutated field by field.
type Playlist struct {
	ID          string
	Name        string
	URI         string
	TotalTracks int
}
