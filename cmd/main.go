package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openai-api-blueprint/blueprint/internal/api"
	"github.com/openai-api-blueprint/blueprint/internal/config"
	"github.com/openai-api-blueprint/blueprint/internal/connections"
	"github.com/openai-api-blueprint/blueprint/internal/services"
	"github.com/openai-api-blueprint/blueprint/pkg/logger"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	l := logger.For(logger.APP)

	r, svc, err := setupRouter(cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to initialize services")
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	l.Info().
		Str("addr", srv.Addr).
		Str("environment", string(cfg.Environment)).
		Str("project", cfg.Project.Name).
		Str("version", cfg.Project.Version).
		Msg("Server starting")

	err = serve(ctx, srv, svc, l)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// lifecycle is the part of the service container the server loop needs
type lifecycle interface {
	GetStreamManager() *connections.Manager
	Close() error
}

// serve runs srv until ctx is done or the listener fails. svc is released on
// every path; a listener failure is returned.
func serve(ctx context.Context, srv *http.Server, svc lifecycle, l zerolog.Logger) error {
	defer func() {
		if err := svc.Close(); err != nil {
			l.Error().Err(err).Msg("Failed to release services")
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		l.Error().Err(err).Msg("ListenAndServe error")
		return err
	case <-ctx.Done():
		l.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	streams := svc.GetStreamManager()
	l.Info().Int("active_streams", streams.GetConnectionCount()).Msg("Draining connections")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		cancelled := streams.CancelAll()
		l.Error().Err(err).Int("cancelled_streams", cancelled).Msg("Graceful shutdown timed out")
		_ = srv.Close()
		return nil
	}
	l.Info().Msg("Server stopped")
	return nil
}

func setupRouter(cfg *config.Config) (http.Handler, *services.Services, error) {
	svc, err := services.InitializeServices(cfg)
	if err != nil {
		return nil, nil, err
	}
	return api.NewRouter(svc, logger.For(logger.HANDLER)), svc, nil
}
