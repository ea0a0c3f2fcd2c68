package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ovenbird/gingerhaus/internal/app"
	"github.com/ovenbird/gingerhaus/internal/config"
	"github.com/ovenbird/gingerhaus/internal/store"
	"github.com/ovenbird/gingerhaus/internal/transport/httpapi"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	st, err := buildStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open snapshot store")
	}

	mgrCfg := app.Config{
		Room:         cfg.RoomConfig(),
		GraceWindow:  cfg.Lifecycle.GraceWindow,
		IdleAfter:    cfg.Lifecycle.IdleAfter,
		EmptyRoomTTL: cfg.Lifecycle.EmptyRoomTTL,
	}
	mgr := app.NewManager(mgrCfg, st, log.Logger, nil)

	hydrateCtx, hydrateCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := mgr.Hydrate(hydrateCtx); err != nil {
		log.Error().Err(err).Msg("hydration failed, starting empty")
	}
	hydrateCancel()

	r := httpapi.SetupRouter(cfg, mgr, log.Logger)
	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go runMaintenance(ctx, mgr, cfg.Lifecycle.SweepInterval, cfg.Lifecycle.FlushInterval)

	go func() {
		log.Info().Str("addr", addr).Msg("gingerhaus server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	mgr.FlushAll(shutdownCtx)
	log.Info().Msg("Server exited gracefully")
}

func buildStore(cfg *config.Config) (store.SnapshotStore, error) {
	switch cfg.Snapshot.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Snapshot.RedisAddr,
			Password: cfg.Snapshot.RedisPassword,
			DB:       cfg.Snapshot.RedisDB,
		})
		return store.NewRedisStore(client, cfg.Snapshot.KeyPrefix, cfg.Snapshot.TTL), nil
	case "file", "":
		return store.NewFileStore(cfg.Snapshot.Dir)
	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
	}
}

// runMaintenance drives the periodic sweep (grace expiry, idle marking,
// empty-room retirement) and the steady-state flush cadence.
func runMaintenance(ctx context.Context, mgr *app.Manager, sweepEvery, flushEvery time.Duration) {
	sweep := time.NewTicker(sweepEvery)
	flush := time.NewTicker(flushEvery)
	defer sweep.Stop()
	defer flush.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			mgr.Sweep(ctx)
		case <-flush.C:
			mgr.RequestFlush()
		}
	}
}
