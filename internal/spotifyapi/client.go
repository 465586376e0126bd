// Package spotifyapi wraps the Spotify Web API with the operations the
// playback module consumes: playlist listing, track search and playback
// dispatch.
package spotifyapi

import (
	"context"
	"fmt"
	"time"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/time/rate"
)

const pageSize = 50

// Client wraps an authenticated Spotify API client. Pagination drains issue
// many requests back to back, so every call goes through a client-side rate
// limiter.
type Client struct {
	api     *spotify.Client
	limiter *rate.Limiter
}

// New creates a Client around an already authenticated Spotify API client.
func New(api *spotify.Client) *Client {
	return &Client{
		api:     api,
		limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 4),
	}
}

// CurrentUser returns the logged user's ID and display name.
func (c *Client) CurrentUser(ctx context.Context) (id, displayName string, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", "", err
	}

	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return "", "", fmt.Errorf("getting current user: %w", err)
	}
	return user.ID, user.DisplayName, nil
}
