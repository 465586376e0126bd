package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
)

// ErrNoToken is returned when no token has been cached yet.
var ErrNoToken = errors.New("no cached token")

// scopes covers playback control plus the playlist reads the track cache
// depends on.
var scopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopePlaylistReadPrivate,
}

// Authenticator handles the Spotify OAuth2 authorization-code flow. The web
// layer drives the redirect dance; tokens are cached on disk so a restart
// does not require logging in again.
type Authenticator struct {
	auth   *spotifyauth.Authenticator
	cache  *TokenCache
	logger *log.Logger
}

// New creates an Authenticator for the given application credentials.
func New(clientID, clientSecret, redirectURI string, cache *TokenCache, logger *log.Logger) *Authenticator {
	return &Authenticator{
		auth: spotifyauth.New(
			spotifyauth.WithClientID(clientID),
			spotifyauth.WithClientSecret(clientSecret),
			spotifyauth.WithRedirectURL(redirectURI),
			spotifyauth.WithScopes(scopes...),
		),
		cache:  cache,
		logger: logger,
	}
}

// AuthURL returns the Spotify consent page URL for the given state.
func (a *Authenticator) AuthURL(state string) string {
	return a.auth.AuthURL(state)
}

// Exchange completes the authorization-code flow from the callback request
// and returns an authenticated client. The token is cached; a cache write
// failure only costs the persistence across restarts, not the session.
func (a *Authenticator) Exchange(ctx context.Context, state string, r *http.Request) (*spotify.Client, error) {
	token, err := a.auth.Token(ctx, state, r)
	if err != nil {
		return nil, fmt.Errorf("exchanging code for token: %w", err)
	}

	if err := a.cache.Save(token); err != nil {
		a.logger.Warn("failed to cache token", "err", err)
	}
	return spotify.New(a.auth.Client(ctx, token), spotify.WithRetry(true)), nil
}

// Restore builds a client from the cached token, if any. Returns ErrNoToken
// when no token was ever cached. The oauth2 transport refreshes the token
// transparently; whether Spotify still accepts it only shows on the first
// API call.
func (a *Authenticator) Restore(ctx context.Context) (*spotify.Client, error) {
	token, err := a.cache.Load()
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			return nil, err
		}
		return nil, fmt.Errorf("loading cached token: %w", err)
	}
	return spotify.New(a.auth.Client(ctx, token), spotify.WithRetry(true)), nil
}

// Forget removes the cached token.
func (a *Authenticator) Forget() error {
	return a.cache.Delete()
}
