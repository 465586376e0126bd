// Package library maintains an in-memory cache of the user's selected
// playlists and their full track listings, rebuilt asynchronously from the
// Spotify API.
package library

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Lucasrsv1/spotify-sm-module/internal/music"
)

// DefaultRetryDelay is how long a failed rebuild waits before trying again.
const DefaultRetryDelay = 5 * time.Second

// State describes what readers can expect from a snapshot.
type State int

const (
	// StateEmpty means no rebuild has ever completed.
	StateEmpty State = iota

	// StateLoading means a rebuild is in flight; the last complete snapshot
	// (possibly empty) is still served, but readers that cannot tolerate a
	// stale view should fall back to remote search instead of scanning it.
	StateLoading

	// StateReady means the snapshot is the result of a complete rebuild.
	StateReady
)

// Snapshot is one complete, immutable generation of the cache. Readers always
// receive a consistent generation; the cache never hands out a half-built map.
type Snapshot struct {
	// Generation increments once per successful rebuild.
	Generation uint64

	// Available lists all of the user's playlists, active or not, in the
	// order Spotify returned them.
	Available []music.Playlist

	// Tracks maps an active playlist's ID to its full track listing.
	Tracks map[string][]music.Track
}

// Playlist looks up one of the available playlists by ID.
func (s Snapshot) Playlist(id string) (music.Playlist, bool) {
	for _, p := range s.Available {
		if p.ID == id {
			return p, true
		}
	}
	return music.Playlist{}, false
}

// PreferenceChange is the explicit state transition fed into the cache when
// the user's playlist selection changes.
type PreferenceChange struct {
	// Active holds the IDs of the playlists whose tracks should be cached.
	Active []string
}

// Source lists playlists and their tracks from the remote catalog.
type Source interface {
	ListPlaylists(ctx context.Context) ([]music.Playlist, error)
	ListPlaylistTracks(ctx context.Context, playlistID string) ([]music.Track, error)
}

// Cache holds the playlist snapshots. A single rebuild goroutine writes;
// any number of resolution requests read concurrently through Snapshot.
type Cache struct {
	source     Source
	logger     *log.Logger
	retryDelay time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State
	snap       Snapshot
	generation uint64
	desired    []string
}

// Option configures a Cache.
type Option func(*Cache)

// WithRetryDelay overrides the delay between failed rebuild attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Cache) {
		c.retryDelay = d
	}
}

// New creates an empty Cache reading from the given source.
func New(source Source, logger *log.Logger, opts ...Option) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		source:     source,
		logger:     logger,
		retryDelay: DefaultRetryDelay,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the last complete snapshot together with the current
// state. It never blocks on an in-flight rebuild.
func (c *Cache) Snapshot() (Snapshot, State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap, c.state
}

// Apply records the new playlist selection and triggers a full rebuild.
// If a rebuild is already in flight the trigger is coalesced: the running
// rebuild re-checks the desired selection after each completed attempt, so
// its eventual completion reflects the latest request.
func (c *Cache) Apply(change PreferenceChange) {
	c.mu.Lock()
	c.desired = slices.Clone(change.Active)

	if c.state == StateLoading {
		c.mu.Unlock()
		c.logger.Debug("playlist refresh already in progress, trigger coalesced")
		return
	}

	c.state = StateLoading
	c.mu.Unlock()

	go c.rebuild()
}

// Close stops any in-flight rebuild and its retry loop.
func (c *Cache) Close() {
	c.cancel()
}

// rebuild fetches a fresh snapshot, retrying on failure after a fixed delay
// until it succeeds or the cache is closed. Failed attempts leave the
// previous snapshot in place.
func (c *Cache) rebuild() {
	for {
		c.mu.Lock()
		active := slices.Clone(c.desired)
		c.mu.Unlock()

		snap, err := c.build(c.ctx, active)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.logger.Error("rebuilding playlist cache, will retry",
				"err", err, "retry_in", c.retryDelay)

			select {
			case <-time.After(c.retryDelay):
				continue
			case <-c.ctx.Done():
				return
			}
		}

		c.mu.Lock()
		if !slices.Equal(active, c.desired) {
			// Selection changed while this attempt ran; build again.
			c.mu.Unlock()
			continue
		}

		c.generation++
		snap.Generation = c.generation
		c.snap = snap
		c.state = StateReady
		generation := c.generation
		c.mu.Unlock()

		c.logger.Info("playlist cache rebuilt",
			"generation", generation, "playlists", len(snap.Tracks))
		return
	}
}

// build assembles a complete snapshot: every user playlist, plus the track
// listing of each active one.
func (c *Cache) build(ctx context.Context, active []string) (Snapshot, error) {
	playlists, err := c.source.ListPlaylists(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	available := make(map[string]struct{}, len(playlists))
	for _, p := range playlists {
		available[p.ID] = struct{}{}
	}

	tracks := make(map[string][]music.Track, len(active))
	for _, id := range active {
		if _, ok := available[id]; !ok {
			// Selected playlist no longer exists on the account.
			continue
		}

		listing, err := c.source.ListPlaylistTracks(ctx, id)
		if err != nil {
			return Snapshot{}, err
		}
		tracks[id] = listing
	}

	return Snapshot{Available: playlists, Tracks: tracks}, nil
}
