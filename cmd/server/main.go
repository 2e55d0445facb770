package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/cowork/internal/adapters/http"
	"github.com/dkeye/cowork/internal/adapters/store"
	"github.com/dkeye/cowork/internal/app"
	"github.com/dkeye/cowork/internal/app/orch"
	"github.com/dkeye/cowork/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "release" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Err(err).Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping info")
	}

	contents, err := store.New(cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init content store")
	}

	reg := app.NewRegistry()
	coordinator := orch.New(reg, app.PolicyByName(cfg.Backpressure), contents)
	coordinator.StoreTimeout = cfg.Store.Timeout

	r := router.SetupRouter(ctx, cfg, coordinator)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("cowork server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	// Hijacked WebSocket connections are not tracked by srv.
	coordinator.Shutdown()
	log.Info().Msg("Server exited gracefully")
}
