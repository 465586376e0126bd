package resolver

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lucasrsv1/spotify-sm-module/internal/library"
	"github.com/Lucasrsv1/spotify-sm-module/internal/music"
)

type fakeCatalog struct {
	mu      sync.Mutex
	results map[string][]music.Track
	err     error
	queries []string
}

func (f *fakeCatalog) SearchTracks(_ context.Context, query string) ([]music.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

type dispatchCall struct {
	trackID    string
	contextURI string
}

type fakePlayer struct {
	mu     sync.Mutex
	err    error
	played []dispatchCall
	queued []string
}

func (f *fakePlayer) Play(_ context.Context, trackID, contextURI string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.played = append(f.played, dispatchCall{trackID, contextURI})
	return nil
}

func (f *fakePlayer) Enqueue(_ context.Context, trackID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.queued = append(f.queued, trackID)
	return nil
}

type stubSource struct {
	playlists []music.Playlist
	tracks    map[string][]music.Track
	block     chan struct{} // when non-nil, ListPlaylists never returns
}

func (s *stubSource) ListPlaylists(ctx context.Context) ([]music.Playlist, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
		}
		return nil, ctx.Err()
	}
	return s.playlists, nil
}

func (s *stubSource) ListPlaylistTracks(_ context.Context, playlistID string) ([]music.Track, error) {
	return s.tracks[playlistID], nil
}

// readyCache builds a cache, applies the given selection and waits for the
// rebuild to complete.
func readyCache(t *testing.T, source *stubSource, active []string) *library.Cache {
	t.Helper()

	cache := library.New(source, log.New(io.Discard))
	t.Cleanup(cache.Close)
	cache.Apply(library.PreferenceChange{Active: active})

	require.Eventually(t, func() bool {
		_, state := cache.Snapshot()
		return state == library.StateReady
	}, 2*time.Second, 5*time.Millisecond)
	return cache
}

func emptyCache(t *testing.T) *library.Cache {
	t.Helper()
	return readyCache(t, &stubSource{}, nil)
}

func newResolver(catalog Catalog, player Player, cache *library.Cache) *Resolver {
	return New(catalog, player, cache, DefaultConfig(), log.New(io.Discard))
}

func TestResolveFromCache(t *testing.T) {
	source := &stubSource{
		playlists: []music.Playlist{{ID: "rock", Name: "Rock", URI: "spotify:playlist:rock"}},
		tracks:    map[string][]music.Track{"rock": {numb, letMeGoPlain}},
	}
	catalog := &fakeCatalog{}
	player := &fakePlayer{}
	r := newResolver(catalog, player, readyCache(t, source, []string{"rock"}))

	res := r.Resolve(context.Background(), Query{Song: "Numb"}, []string{"rock"})

	assert.True(t, res.Dispatched)
	require.Len(t, res.Tracks, 1)
	assert.Equal(t, "numb", res.Tracks[0].ID)
	assert.Equal(t, "spotify:playlist:rock", res.Tracks[0].ContextURI,
		"cache hits start playback inside their playlist")
	assert.Empty(t, catalog.queries, "remote search must not run when the cache matched")
	require.Len(t, player.played, 1)
	assert.Equal(t, dispatchCall{"numb", "spotify:playlist:rock"}, player.played[0])
}

func TestResolveAlbumURIFallback(t *testing.T) {
	source := &stubSource{
		playlists: []music.Playlist{{ID: "rock", Name: "Rock"}}, // playlist has no URI
		tracks:    map[string][]music.Track{"rock": {numb}},
	}
	player := &fakePlayer{}
	r := newResolver(&fakeCatalog{}, player, readyCache(t, source, []string{"rock"}))

	res := r.Resolve(context.Background(), Query{Song: "Numb"}, []string{"rock"})

	require.Len(t, res.Tracks, 1)
	assert.Equal(t, "spotify:album:meteora", res.Tracks[0].ContextURI)
}

func TestResolveScanOrderRanking(t *testing.T) {
	// Equal blended coefficients: the strict coefficient breaks the tie, so
	// the exact title outranks the live version found earlier in the scan.
	source := &stubSource{
		playlists: []music.Playlist{
			{ID: "live", Name: "Live", URI: "spotify:playlist:live"},
			{ID: "studio", Name: "Studio", URI: "spotify:playlist:studio"},
		},
		tracks: map[string][]music.Track{
			"live":   {{ID: "numb-live", Name: "Numb (Live)", Album: music.Album{URI: "spotify:album:lv"}}},
			"studio": {numb},
		},
	}
	player := &fakePlayer{}
	r := newResolver(&fakeCatalog{}, player, readyCache(t, source, []string{"live", "studio"}))

	res := r.Resolve(context.Background(), Query{Song: "Numb"}, []string{"live", "studio"})

	require.Len(t, res.Tracks, 2)
	assert.Equal(t, "numb", res.Tracks[0].ID)
	assert.Equal(t, "numb-live", res.Tracks[1].ID)
	require.Len(t, player.played, 1)
	assert.Equal(t, "numb", player.played[0].trackID)
}

func TestResolveSkipsCacheWhileLoading(t *testing.T) {
	source := &stubSource{block: make(chan struct{})}
	defer close(source.block)

	cache := library.New(source, log.New(io.Discard))
	t.Cleanup(cache.Close)
	cache.Apply(library.PreferenceChange{Active: []string{"rock"}})

	require.Eventually(t, func() bool {
		_, state := cache.Snapshot()
		return state == library.StateLoading
	}, 2*time.Second, time.Millisecond)

	catalog := &fakeCatalog{results: map[string][]music.Track{"track:Numb": {numb}}}
	player := &fakePlayer{}
	r := newResolver(catalog, player, cache)

	res := r.Resolve(context.Background(), Query{Song: "Numb"}, []string{"rock"})

	assert.True(t, res.Dispatched)
	assert.Equal(t, []string{"track:Numb"}, catalog.queries,
		"a rebuilding cache must fall straight through to remote search")
}

func TestResolveSearchNarrowing(t *testing.T) {
	// The artist-narrowed query yields nothing; the bare query matches.
	catalog := &fakeCatalog{results: map[string][]music.Track{
		"track:Let Me Go": {letMeGoFeat},
	}}
	player := &fakePlayer{}
	r := newResolver(catalog, player, emptyCache(t))

	q := Query{Song: "Let Me Go", SearchBy: SearchByArtist, Target: "Chad Kroeger"}
	res := r.Resolve(context.Background(), q, nil)

	assert.Equal(t, []string{"track:Let Me Go artist:Chad Kroeger", "track:Let Me Go"}, catalog.queries)
	assert.True(t, res.Dispatched)
	require.Len(t, res.Tracks, 1)
	assert.Equal(t, "lmg-feat", res.Tracks[0].ID)
	assert.Equal(t, "spotify:album:us", res.Tracks[0].ContextURI,
		"search hits start playback from their album")
}

func TestResolveStopsAtFirstProductiveQuery(t *testing.T) {
	catalog := &fakeCatalog{results: map[string][]music.Track{
		"track:Numb album:Meteora": {numb},
	}}
	player := &fakePlayer{}
	r := newResolver(catalog, player, emptyCache(t))

	q := Query{Song: "Numb", SearchBy: SearchByAlbum, Target: "Meteora"}
	res := r.Resolve(context.Background(), q, nil)

	assert.Equal(t, []string{"track:Numb album:Meteora"}, catalog.queries)
	assert.True(t, res.Dispatched)
}

func TestResolveSearchFailure(t *testing.T) {
	catalog := &fakeCatalog{err: errors.New("spotify down")}
	player := &fakePlayer{}
	r := newResolver(catalog, player, emptyCache(t))

	res := r.Resolve(context.Background(), Query{Song: "Numb"}, nil)

	assert.False(t, res.Dispatched)
	assert.Empty(t, res.Tracks)
	assert.Empty(t, player.played)
}

func TestResolveDispatchFailure(t *testing.T) {
	source := &stubSource{
		playlists: []music.Playlist{{ID: "rock", URI: "spotify:playlist:rock"}},
		tracks:    map[string][]music.Track{"rock": {numb}},
	}
	player := &fakePlayer{err: errors.New("no active device")}
	r := newResolver(&fakeCatalog{}, player, readyCache(t, source, []string{"rock"}))

	res := r.Resolve(context.Background(), Query{Song: "Numb"}, []string{"rock"})

	assert.False(t, res.Dispatched)
	require.Len(t, res.Tracks, 1, "candidates are still reported when dispatch fails")
}

func TestResolveQueueOnly(t *testing.T) {
	source := &stubSource{
		playlists: []music.Playlist{{ID: "rock", URI: "spotify:playlist:rock"}},
		tracks:    map[string][]music.Track{"rock": {numb}},
	}
	player := &fakePlayer{}
	r := newResolver(&fakeCatalog{}, player, readyCache(t, source, []string{"rock"}))

	res := r.Resolve(context.Background(), Query{Song: "Numb", QueueOnly: true}, []string{"rock"})

	assert.True(t, res.Dispatched)
	assert.Empty(t, player.played)
	assert.Equal(t, []string{"numb"}, player.queued)
}

func TestResolveByID(t *testing.T) {
	t.Run("play", func(t *testing.T) {
		player := &fakePlayer{}
		r := newResolver(&fakeCatalog{}, player, emptyCache(t))

		res := r.ResolveByID(context.Background(), "abc", "ctx:123", false)

		assert.True(t, res.Dispatched)
		require.Len(t, res.Tracks, 1)
		assert.Equal(t, "abc", res.Tracks[0].ID)
		assert.Equal(t, "ctx:123", res.Tracks[0].ContextURI)
		assert.Equal(t, []dispatchCall{{"abc", "ctx:123"}}, player.played)
	})

	t.Run("enqueue", func(t *testing.T) {
		player := &fakePlayer{}
		r := newResolver(&fakeCatalog{}, player, emptyCache(t))

		res := r.ResolveByID(context.Background(), "abc", "ctx:123", true)

		assert.True(t, res.Dispatched)
		assert.Equal(t, []string{"abc"}, player.queued)
	})

	t.Run("dispatch failure", func(t *testing.T) {
		player := &fakePlayer{err: errors.New("no active device")}
		r := newResolver(&fakeCatalog{}, player, emptyCache(t))

		res := r.ResolveByID(context.Background(), "abc", "ctx:123", false)

		assert.False(t, res.Dispatched)
		assert.Len(t, res.Tracks, 1)
	})
}

func TestResolveIsIdempotent(t *testing.T) {
	source := &stubSource{
		playlists: []music.Playlist{{ID: "rock", URI: "spotify:playlist:rock"}},
		tracks: map[string][]music.Track{"rock": {
			{ID: "a", Name: "Numb (Live)", Album: music.Album{URI: "spotify:album:x"}},
			numb,
			{ID: "b", Name: "Numb (Acoustic)", Album: music.Album{URI: "spotify:album:y"}},
		}},
	}
	cache := readyCache(t, source, []string{"rock"})

	var orders [][]string
	for i := 0; i < 3; i++ {
		r := newResolver(&fakeCatalog{}, &fakePlayer{}, cache)
		res := r.Resolve(context.Background(), Query{Song: "Numb"}, []string{"rock"})

		var ids []string
		for _, track := range res.Tracks {
			ids = append(ids, track.ID)
		}
		orders = append(orders, ids)
	}

	assert.Equal(t, orders[0], orders[1])
	assert.Equal(t, orders[1], orders[2])
	assert.Equal(t, "numb", orders[0][0], "the exact title stays on top")
}
