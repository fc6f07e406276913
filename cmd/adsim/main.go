// Package main runs a scripted ad session against a platform strategy and
// prints the resulting lifecycle report. Only the debug and null platforms
// work without vendor SDK objects; every other platform falls back to null.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/thenexusengine/tne_adbridge/internal/adapters/crazygames"
	_ "github.com/thenexusengine/tne_adbridge/internal/adapters/facebook"
	_ "github.com/thenexusengine/tne_adbridge/internal/adapters/null"
	_ "github.com/thenexusengine/tne_adbridge/internal/adapters/poki"
	_ "github.com/thenexusengine/tne_adbridge/internal/adapters/rakuten"
	_ "github.com/thenexusengine/tne_adbridge/internal/adapters/wortal"
	_ "github.com/thenexusengine/tne_adbridge/internal/adapters/yandex"
	"github.com/thenexusengine/tne_adbridge/internal/ads"
	"github.com/thenexusengine/tne_adbridge/internal/config"
	"github.com/thenexusengine/tne_adbridge/internal/metrics"
	"github.com/thenexusengine/tne_adbridge/pkg/logger"
	"github.com/thenexusengine/tne_adbridge/pkg/redis"
)

func main() {
	platform := flag.String("platform", string(ads.PlatformDebug), "Platform to simulate")
	gameID := flag.String("game-id", "", "Game ID used for the catalog lookup")
	catalogURL := flag.String("catalog-url", "", "Catalog endpoint, e.g. http://localhost:8080/ads")
	redisURL := flag.String("redis-url", os.Getenv("REDIS_URL"), "Redis URL for the catalog cache")
	duration := flag.Duration("ad-duration", config.DebugAdDuration, "How long debug ads play")
	timeout := flag.Duration("ad-timeout", 30*time.Second, "How long to wait for each ad to finish")
	watchdog := flag.Duration("watchdog", config.DefaultWatchdog, "Resolve wedged ads through noFill after this long (0 disables)")
	preroll := flag.Bool("preroll", true, "Request the preroll on initialization")
	interstitials := flag.Int("interstitials", 2, "Number of interstitials to show")
	rewarded := flag.Int("rewarded", 2, "Number of rewarded ads to show")
	banner := flag.Bool("banner", false, "Show a bottom banner at the end")
	logLevel := flag.String("log-level", "info", "Log level")
	logFormat := flag.String("log-format", "console", "Log format (json or console)")
	flag.Parse()

	logger.Init(logger.Config{Level: *logLevel, Format: *logFormat, TimeFormat: time.RFC3339})
	log := logger.Log

	if !ads.Platform(*platform).IsKnown() {
		log.Warn().Str("platform", *platform).Strs("known", ads.KnownPlatforms()).Msg("Unknown platform")
	}

	opts := Options{
		Platform:      ads.Platform(*platform),
		GameID:        *gameID,
		CatalogURL:    *catalogURL,
		AdDuration:    *duration,
		AdTimeout:     *timeout,
		Watchdog:      *watchdog,
		Preroll:       *preroll,
		Interstitials: *interstitials,
		Rewarded:      *rewarded,
		Banner:        *banner,
		Metrics:       metrics.NewMetricsWithRegistry("adsim", prometheus.NewRegistry()),
	}

	if *redisURL != "" && *catalogURL != "" {
		cache, err := redis.New(*redisURL)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, catalog cache disabled")
		} else {
			defer cache.Close()
			opts.Cache = cache
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := Run(ctx, opts, os.Stdout); err != nil {
		log.Error().Err(err).Msg("Simulation failed")
		stop()
		os.Exit(1)
	}
}
