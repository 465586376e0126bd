// Command spotify-sm-module runs the Spotify voice-command module API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/Lucasrsv1/spotify-sm-module/internal/auth"
	"github.com/Lucasrsv1/spotify-sm-module/internal/command"
	"github.com/Lucasrsv1/spotify-sm-module/internal/config"
	"github.com/Lucasrsv1/spotify-sm-module/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "spotify-sm",
	})

	tokenCache, err := auth.DefaultTokenCache()
	if err != nil {
		return fmt.Errorf("creating token cache: %w", err)
	}

	authenticator := auth.New(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI, tokenCache, logger.With("component", "auth"))
	service := command.NewService(logger)

	restoreSession(authenticator, service, logger)

	server := web.NewServer(cfg.Addr(), authenticator, service, logger.With("component", "web"))
	return server.Run()
}

// restoreSession tries to log in with a token cached by a previous run. Any
// failure just means the user has to visit /api/v1/login again.
func restoreSession(authenticator *auth.Authenticator, service *command.Service, logger *log.Logger) {
	ctx := context.Background()

	client, err := authenticator.Restore(ctx)
	if err != nil {
		if !errors.Is(err, auth.ErrNoToken) {
			logger.Warn("could not restore cached token", "err", err)
		}
		return
	}

	if err := service.Login(ctx, client); err != nil {
		logger.Warn("cached token rejected, login required", "err", err)
		return
	}
	logger.Info("session restored from cached token")
}
