// Package config loads the process configuration from the environment,
// with an optional .env file for development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const defaultPort = 4400

// ErrMissingCredentials is returned when SPOTIFY_CLIENT_ID or
// SPOTIFY_CLIENT_SECRET is not set.
var ErrMissingCredentials = errors.New("missing SPOTIFY_CLIENT_ID or SPOTIFY_CLIENT_SECRET environment variable")

// Config holds everything the process needs to run.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Port         int
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment variables
// take precedence over it.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		ClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		RedirectURI:  os.Getenv("SPOTIFY_REDIRECT_URI"),
		Port:         defaultPort,
	}

	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return Config{}, ErrMissingCredentials
	}

	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT %q", raw)
		}
		cfg.Port = port
	}

	// Spotify requires the redirect URI to use explicit IPv4 loopback for
	// local apps.
	if cfg.RedirectURI == "" {
		cfg.RedirectURI = fmt.Sprintf("http://127.0.0.1:%d/api/v1/login/callback", cfg.Port)
	}

	return cfg, nil
}
