// Package command implements the host-runtime-facing side of the module: the
// "play" voice command, the user's playlist preferences and the session
// lifecycle around the authenticated Spotify client.
package command

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"

	"github.com/Lucasrsv1/spotify-sm-module/internal/library"
	"github.com/Lucasrsv1/spotify-sm-module/internal/music"
	"github.com/Lucasrsv1/spotify-sm-module/internal/resolver"
	"github.com/Lucasrsv1/spotify-sm-module/internal/spotifyapi"
)

// trackResolver is the slice of the resolver the command layer consumes.
type trackResolver interface {
	Resolve(ctx context.Context, q resolver.Query, scanOrder []string) resolver.Result
	ResolveByID(ctx context.Context, trackID, contextURI string, queueOnly bool) resolver.Result
}

// session bundles everything that exists only while a user is logged in.
type session struct {
	userID   string
	userName string
	cache    *library.Cache
	resolver trackResolver
}

// Service owns the authenticated session and the playlist preferences, and
// handles incoming play commands.
type Service struct {
	logger      *log.Logger
	resolverCfg resolver.Config
	prefs       Preferences

	mu      sync.RWMutex
	session *session
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithResolverConfig overrides the filter thresholds.
func WithResolverConfig(cfg resolver.Config) ServiceOption {
	return func(s *Service) {
		s.resolverCfg = cfg
	}
}

// NewService creates a Service with no authenticated user.
func NewService(logger *log.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		logger:      logger,
		resolverCfg: resolver.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login binds an authenticated Spotify API client to the service and starts
// building the playlist cache in the background.
func (s *Service) Login(ctx context.Context, api *spotify.Client) error {
	client := spotifyapi.New(api)

	userID, userName, err := client.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("fetching user profile: %w", err)
	}

	cache := library.New(client, s.logger.With("component", "library"))
	res := resolver.New(client, client, cache, s.resolverCfg, s.logger.With("component", "resolver"))

	s.bind(&session{
		userID:   userID,
		userName: userName,
		cache:    cache,
		resolver: res,
	})
	s.logger.Info("user authenticated", "user", userName)
	return nil
}

// Logout drops the current session and stops its cache.
func (s *Service) Logout() {
	s.bind(nil)
	s.logger.Info("user logged out")
}

func (s *Service) bind(next *session) {
	s.mu.Lock()
	previous := s.session
	s.session = next
	s.mu.Unlock()

	if previous != nil {
		previous.cache.Close()
	}
	if next != nil {
		// The cache lists all playlists even when nothing is active yet;
		// the preference UI needs the full listing.
		next.cache.Apply(library.PreferenceChange{Active: s.prefs.Active()})
	}
}

func (s *Service) current() *session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Authenticated reports whether a user is currently logged in.
func (s *Service) Authenticated() bool {
	return s.current() != nil
}

// CurrentUser returns the logged user's display name.
func (s *Service) CurrentUser() (string, bool) {
	sess := s.current()
	if sess == nil {
		return "", false
	}
	return sess.userName, true
}

// HandlePlay resolves and dispatches a play command. A malformed command
// (missing song, or missing uri in direct-id mode) or an unauthenticated
// session yields a negative response without touching any remote capability.
func (s *Service) HandlePlay(ctx context.Context, cmd PlayCommand) PlayResponse {
	sess := s.current()
	if sess == nil {
		return PlayResponse{}
	}

	queueOnly := cmd.OnlyAddToQueue == "TRUE"

	var result resolver.Result
	if cmd.ID != "" {
		if cmd.URI == "" {
			s.logger.Warn("play command with id but no uri rejected", "id", cmd.ID)
			return PlayResponse{}
		}
		result = sess.resolver.ResolveByID(ctx, cmd.ID, cmd.URI, queueOnly)
	} else {
		if cmd.Song == "" {
			s.logger.Warn("play command without song rejected")
			return PlayResponse{}
		}

		query := resolver.Query{
			Song:      cmd.Song,
			SearchBy:  resolver.SearchBy(cmd.SearchBy),
			Target:    cmd.Target,
			QueueOnly: queueOnly,
		}
		if query.Target == "" {
			query.SearchBy = ""
		}

		result = sess.resolver.Resolve(ctx, query, s.prefs.Order())
	}

	response := PlayResponse{Played: result.Dispatched}
	if len(result.Tracks) > 1 {
		response.Options = make([]Option, len(result.Tracks))
		for i, track := range result.Tracks {
			response.Options[i] = optionFromTrack(track)
		}
	}
	return response
}

// PlaylistStatus describes one of the user's playlists for the preference UI.
type PlaylistStatus struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URI         string `json:"uri"`
	TotalTracks int    `json:"totalTracks"`
	Active      bool   `json:"active"`
}

// PlaylistsView is the preference UI's view of the playlist state.
type PlaylistsView struct {
	Playlists []PlaylistStatus `json:"playlists"`
	Order     []string         `json:"order"`
	Loading   bool             `json:"loading"`
}

// Playlists lists the user's playlists together with the active selection
// and the scan order.
func (s *Service) Playlists() PlaylistsView {
	view := PlaylistsView{Order: s.prefs.Order()}

	sess := s.current()
	if sess == nil {
		return view
	}

	snap, state := sess.cache.Snapshot()
	view.Loading = state == library.StateLoading

	active := s.prefs.Active()
	view.Playlists = make([]PlaylistStatus, len(snap.Available))
	for i, p := range snap.Available {
		view.Playlists[i] = playlistStatus(p, active)
	}
	return view
}

func playlistStatus(p music.Playlist, active []string) PlaylistStatus {
	status := PlaylistStatus{
		ID:          p.ID,
		Name:        p.Name,
		URI:         p.URI,
		TotalTracks: p.TotalTracks,
	}
	for _, id := range active {
		if id == p.ID {
			status.Active = true
			break
		}
	}
	return status
}

// SetActivePlaylists replaces the searchable playlist selection and triggers
// a full cache rebuild. Returns the reconciled scan order.
func (s *Service) SetActivePlaylists(ids []string) []string {
	order := s.prefs.SetActive(ids)

	if sess := s.current(); sess != nil {
		sess.cache.Apply(library.PreferenceChange{Active: s.prefs.Active()})
	}
	return order
}

// SetPlaylistOrder replaces the scan priority order. No rebuild is needed:
// the order only affects how the cache is scanned, not what it holds.
func (s *Service) SetPlaylistOrder(order []string) []string {
	return s.prefs.SetOrder(order)
}
