package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg := loadConfig()
	if cfg.HostKey == "" {
		log.Fatal().Msg("ROOM_HOST_KEY environment variable is required")
	}

	services, err := setupServices(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go services.Gateway.ConnectionManager().Start(ctx)

	if services.PgStore != nil {
		go func() {
			if err := services.PgStore.Run(ctx); err != nil {
				log.Error().Err(err).Msg("room watcher stopped")
			}
		}()
		go runRetention(ctx, cfg, services)
	}

	server := setupServer(cfg, services)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("scoreroom gateway listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	if services.Consumer != nil {
		services.Consumer.Close()
	}
	if services.Publisher != nil {
		services.Publisher.Close()
	}

	os.Exit(0)
}

// runRetention prunes rooms past the retention window on a fixed cadence.
func runRetention(ctx context.Context, cfg Config, services *Services) {
	ticker := time.NewTicker(cfg.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-cfg.Retention)
			pruned, err := services.PgStore.PruneBefore(ctx, cutoff)
			if err != nil {
				log.Error().Err(err).Msg("failed to prune rooms")
				continue
			}
			if pruned > 0 {
				log.Info().Int64("rooms", pruned).Time("cutoff", cutoff).Msg("pruned expired rooms")
			}
		}
	}
}
