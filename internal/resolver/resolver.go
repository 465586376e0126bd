package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/Lucasrsv1/spotify-sm-module/internal/library"
	"github.com/Lucasrsv1/spotify-sm-module/internal/music"
)

// Catalog is the remote full-text search capability.
type Catalog interface {
	SearchTracks(ctx context.Context, query string) ([]music.Track, error)
}

// Player dispatches playback actions on the user's active device.
type Player interface {
	Play(ctx context.Context, trackID, contextURI string) error
	Enqueue(ctx context.Context, trackID string) error
}

// Result is the outcome of one resolution. Tracks holds every candidate that
// survived filtering, ranked best first; the caller decides whether more than
// one candidate constitutes ambiguity worth surfacing to the user.
type Result struct {
	// Dispatched reports whether the top-ranked track was played or queued.
	Dispatched bool
	Tracks     []music.Track
}

// Resolver orchestrates the cache scan, the search fallback, ranking and
// playback dispatch. It is read-only with respect to shared state and safe
// for concurrent use.
type Resolver struct {
	catalog Catalog
	player  Player
	cache   *library.Cache
	cfg     Config
	logger  *log.Logger
}

// New creates a Resolver over the given collaborators.
func New(catalog Catalog, player Player, cache *library.Cache, cfg Config, logger *log.Logger) *Resolver {
	return &Resolver{
		catalog: catalog,
		player:  player,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
	}
}

// Resolve identifies the track the user requested and dispatches playback of
// the best match. scanOrder is the user-configured playlist priority order.
// Remote failures never surface as errors: they degrade to an empty or
// partial candidate list and Dispatched=false.
func (r *Resolver) Resolve(ctx context.Context, q Query, scanOrder []string) Result {
	candidates := r.scanCache(q, scanOrder)

	if len(candidates) == 0 {
		candidates = r.searchRemote(ctx, q)
	}

	// Most relevant first; the stricter score breaks ties so the track
	// closest to the literal input tops the list.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Coefficient != candidates[j].Coefficient {
			return candidates[i].Coefficient > candidates[j].Coefficient
		}
		return candidates[i].StrictCoefficient > candidates[j].StrictCoefficient
	})

	tracks := make([]music.Track, len(candidates))
	for i, c := range candidates {
		tracks[i] = c.Track
	}

	dispatched := false
	if len(tracks) > 0 {
		if err := r.dispatch(ctx, tracks[0].ID, tracks[0].ContextURI, q.QueueOnly); err != nil {
			r.logger.Error("dispatching top-ranked track", "track", tracks[0].ID, "err", err)
		} else {
			dispatched = true
		}
	}

	return Result{Dispatched: dispatched, Tracks: tracks}
}

// ResolveByID dispatches a track the caller already identified, e.g. when the
// user answers an earlier disambiguation. No scoring is involved.
func (r *Resolver) ResolveByID(ctx context.Context, trackID, contextURI string, queueOnly bool) Result {
	if err := r.dispatch(ctx, trackID, contextURI, queueOnly); err != nil {
		r.logger.Error("dispatching track by id", "track", trackID, "err", err)
		return Result{Tracks: []music.Track{{ID: trackID, ContextURI: contextURI}}}
	}
	return Result{
		Dispatched: true,
		Tracks:     []music.Track{{ID: trackID, ContextURI: contextURI}},
	}
}

// scanCache runs the filter over the cached playlists in priority order.
// While the cache is rebuilding the scan is skipped entirely: a half-filled
// cache would produce false negatives for playlists not yet populated.
func (r *Resolver) scanCache(q Query, scanOrder []string) []Candidate {
	snap, state := r.cache.Snapshot()
	if state != library.StateReady {
		return nil
	}

	var candidates []Candidate
	for _, playlistID := range scanOrder {
		tracks, ok := snap.Tracks[playlistID]
		if !ok {
			continue
		}

		contextURI := ""
		if playlist, ok := snap.Playlist(playlistID); ok {
			contextURI = playlist.URI
		}

		admitted := filterTracks(tracks, q, candidates, r.cfg)
		for i := range admitted {
			if contextURI != "" {
				admitted[i].Track.ContextURI = contextURI
			} else {
				admitted[i].Track.ContextURI = admitted[i].Track.Album.URI
			}
		}
		candidates = append(candidates, admitted...)
	}
	return candidates
}

// searchRemote issues progressively less specific catalog searches, stopping
// at the first query that yields an admissible candidate. A search failure
// aborts the remaining queries; resolution continues with what was gathered.
func (r *Resolver) searchRemote(ctx context.Context, q Query) []Candidate {
	var candidates []Candidate
	for _, searchQuery := range searchQueries(q) {
		tracks, err := r.catalog.SearchTracks(ctx, searchQuery)
		if err != nil {
			r.logger.Error("searching catalog", "query", searchQuery, "err", err)
			break
		}

		admitted := filterTracks(tracks, q, candidates, r.cfg)
		for i := range admitted {
			// No playlist context here; start playback from the album.
			admitted[i].Track.ContextURI = admitted[i].Track.Album.URI
		}
		candidates = append(candidates, admitted...)

		if len(candidates) > 0 {
			break
		}
	}
	return candidates
}

// searchQueries builds the catalog queries from most to least specific.
func searchQueries(q Query) []string {
	queries := make([]string, 0, 2)
	switch {
	case q.qualified() && q.SearchBy == SearchByAlbum:
		queries = append(queries, fmt.Sprintf("track:%s album:%s", q.Song, q.Target))
	case q.qualified() && q.SearchBy == SearchByArtist:
		queries = append(queries, fmt.Sprintf("track:%s artist:%s", q.Song, q.Target))
	}
	return append(queries, "track:"+q.Song)
}

func (r *Resolver) dispatch(ctx context.Context, trackID, contextURI string, queueOnly bool) error {
	if queueOnly {
		return r.player.Enqueue(ctx, trackID)
	}
	return r.player.Play(ctx, trackID, contextURI)
}
