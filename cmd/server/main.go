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

	"github.com/Clark-Hu/cinerank/internal/cache"
	"github.com/Clark-Hu/cinerank/internal/catalog"
	"github.com/Clark-Hu/cinerank/internal/config"
	httpserver "github.com/Clark-Hu/cinerank/internal/http"
	"github.com/Clark-Hu/cinerank/internal/logging"
	"github.com/Clark-Hu/cinerank/internal/repository"
	"github.com/Clark-Hu/cinerank/internal/store"
	"github.com/Clark-Hu/cinerank/internal/tmdb"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New(logging.Config{})
		bootLogger.Fatal().Err(err).Msg("config error")
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "cinerank"})

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := store.New(dbCtx, cfg.DBURL, store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logging.WithComponent(logger, "store"),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer st.Close()

	if err := st.Migrate(dbCtx); err != nil {
		logger.Fatal().Err(err).Msg("migrate database")
	}

	backend := newCacheBackend(ctx, cfg, logging.WithComponent(logger, "cache"))
	defer backend.Close()

	repo := repository.New(st)
	svc := catalog.New(repo.Movies, backend, catalog.Options{
		TTL:      cfg.CacheTTL(),
		TopLimit: cfg.TopLimit,
		Logger:   logging.WithComponent(logger, "catalog"),
	})

	deps := httpserver.Deps{
		Store:   st,
		Cache:   svc.Cache(),
		Catalog: svc,
		Logger:  logger,
	}
	if cfg.SearchEnabled() {
		client, err := tmdb.NewHTTPClient(cfg.TMDBURL, cfg.TMDBAPIKey, tmdb.Options{
			Timeout: time.Duration(cfg.TMDBTimeoutSecs) * time.Second,
			Logger:  logging.WithComponent(logger, "tmdb"),
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("init tmdb client")
		}
		deps.Search = client
	} else {
		logger.Warn().Msg("TMDB_API_KEY not set, movie search disabled")
	}

	server := httpserver.New(cfg, deps)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}

// newCacheBackend prefers Redis and degrades to an in-process cache when Redis
// is not configured or not reachable at boot.
func newCacheBackend(ctx context.Context, cfg config.Config, logger zerolog.Logger) cache.Backend {
	if cfg.RedisAddr != "" {
		backend, err := cache.NewRedisBackend(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err == nil {
			return backend
		}
		logger.Warn().Err(err).Msg("redis unavailable, using in-memory cache")
	}
	return cache.NewMemoryBackend(cfg.CacheTTL())
}
