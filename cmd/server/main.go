package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/airoverhead/flight-tracker/internal/api"
	"github.com/airoverhead/flight-tracker/internal/api/handler"
	"github.com/airoverhead/flight-tracker/internal/api/metrics"
	"github.com/airoverhead/flight-tracker/internal/cache"
	"github.com/airoverhead/flight-tracker/internal/core/domain"
	"github.com/airoverhead/flight-tracker/internal/core/ports"
	"github.com/airoverhead/flight-tracker/internal/core/service"
	"github.com/airoverhead/flight-tracker/internal/infrastructure/aerodatabox"
	"github.com/airoverhead/flight-tracker/internal/infrastructure/config"
	"github.com/airoverhead/flight-tracker/internal/infrastructure/opensky"
	"github.com/airoverhead/flight-tracker/internal/infrastructure/poller"
	"github.com/airoverhead/flight-tracker/internal/infrastructure/registry"
	"github.com/airoverhead/flight-tracker/internal/infrastructure/vestaboard"
	"github.com/airoverhead/flight-tracker/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if !cfg.OpenSky.CredentialsLoaded() {
		log.Warn().Msg("opensky credentials not configured, anonymous access will be rate limited")
	}
	if !cfg.AeroDataBox.CredentialsLoaded() {
		log.Warn().Msg("aerodatabox credentials not configured, enrichment will rely on public sources")
	}

	// --- Optional persistent snapshot store ---
	var snapshot ports.SnapshotStore
	rdb, err := connectRedis(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, metadata snapshots disabled")
	} else if rdb != nil {
		snapshot = cache.NewSnapshot(rdb, cfg.Cache.SnapshotTTL, log)
		log.Info().Str("addr", cfg.Cache.RedisAddr).Msg("metadata snapshot store enabled")
	}

	// --- Data sources ---
	positionSource := opensky.NewClient(opensky.Config{
		ClientID:     cfg.OpenSky.ClientID,
		ClientSecret: cfg.OpenSky.ClientSecret,
		BaseURL:      cfg.OpenSky.BaseURL,
		TokenURL:     cfg.OpenSky.TokenURL,
		Timeout:      cfg.OpenSky.Timeout,
	}, log)
	primary := aerodatabox.NewClient(aerodatabox.Config{
		APIKey:  cfg.AeroDataBox.APIKey,
		APIHost: cfg.AeroDataBox.APIHost,
		BaseURL: cfg.AeroDataBox.BaseURL,
		Timeout: cfg.AeroDataBox.Timeout,
	}, log)

	// Fallback order is fixed: primary API, public registries, offline DB.
	sources := []ports.MetadataSource{
		primary,
		registry.NewHexDB(cfg.Registry.HexDBBaseURL, log),
		registry.NewADSBExchange(cfg.Registry.ADSBExchangeBaseURL, log),
		registry.NewCSVDatabase(cfg.Registry.CSVPath, log),
	}

	// --- Services ---
	metadataCache := cache.New[domain.MetadataRecord](cfg.Cache.TTL)
	metrics.RegisterCache("metadata", metadataCache)
	chain := service.NewMetadataChain(sources, metadataCache, snapshot, log)
	tracker := service.NewTrackerService(positionSource, chain, primary, primary, cfg.Cache.TTL, log)
	for name, store := range tracker.Caches() {
		metrics.RegisterCache(name, store)
	}

	var display ports.DisplayClient
	if cfg.Vestaboard.Configured() {
		display = vestaboard.NewClient(vestaboard.Config{
			BaseURL: cfg.Vestaboard.BaseURL,
			APIKey:  cfg.Vestaboard.APIKey,
		}, log)
	} else {
		log.Info().Msg("vestaboard not configured, flight notifications disabled")
	}
	notifier := service.NewNotifierService(display, cfg.Vestaboard.ResetThreshold, log)

	// --- Automated detection ---
	var detection handler.DetectionStats
	if cfg.Poller.Enabled {
		p := poller.New(tracker, notifier, poller.Config{
			Lat:        cfg.Poller.Lat,
			Lon:        cfg.Poller.Lon,
			RadiusKm:   cfg.Poller.RadiusKm,
			Interval:   cfg.Poller.Interval,
			MaxRetries: cfg.Poller.MaxRetries,
			RetryDelay: cfg.Poller.RetryDelay,
		}, log)
		go p.Run(ctx)
		detection = p
	}

	// --- HTTP server ---
	e := api.NewRouter(api.Deps{
		Tracker:          tracker,
		Notifier:         notifier,
		OpenSkyCreds:     cfg.OpenSky.CredentialsLoaded(),
		AeroDataBoxCreds: cfg.AeroDataBox.CredentialsLoaded(),
		Redis:            rdb,
		Detection:        detection,
		Log:              log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server start failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Msg("flight tracker backend started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}

// connectRedis returns (nil, nil) when no Redis address is configured.
func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.Cache.RedisAddr == "" {
		return nil, nil
	}
	return cache.Connect(ctx, cache.RedisConfig{
		Addr: cfg.Cache.RedisAddr,
		DB:   cfg.Cache.RedisDB,
	})
}
