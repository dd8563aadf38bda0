package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentloop/rentloop-server/internal/auth"
	"github.com/rentloop/rentloop-server/internal/config"
	"github.com/rentloop/rentloop-server/internal/core"
	"github.com/rentloop/rentloop-server/internal/store"
	"github.com/rentloop/rentloop-server/internal/store/sqlite"
	transporthttp "github.com/rentloop/rentloop-server/internal/transport/http"
)

// App wires together the store, auth service, realtime hub and HTTP server.
type App struct {
	cfg    config.Config
	log    *zerolog.Logger
	store  store.Store
	hub    *core.Hub
	server *http.Server
}

// New builds the application from configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// Schema statements are IF NOT EXISTS, safe to run on every start.
	if err := st.InitSchema(context.Background()); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.TokenTTL,
	}
	authService := auth.NewService(st, jwtConfig)

	hub := core.NewHub()
	server := transporthttp.NewServer(hub, authService, st, cfg, logger)

	return &App{
		cfg:    cfg,
		log:    logger,
		store:  st,
		hub:    hub,
		server: server,
	}, nil
}

// Run starts the hub and HTTP server and blocks until ctx is cancelled
// or the server fails.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	hubCtx, cancelHub := context.WithCancel(context.Background())
	defer cancelHub()
	go a.hub.Run(hubCtx)

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.Addr).Msg("http server listening")
		serverErr <- a.server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Warn().Err(err).Msg("graceful shutdown failed, closing")
		_ = a.server.Close()
	}

	// Drain the listener goroutine.
	select {
	case <-serverErr:
	case <-time.After(time.Second):
	}

	return nil
}

func (a *App) cleanup() {
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close store")
	}
}
