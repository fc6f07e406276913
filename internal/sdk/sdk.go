// Package sdk wires a platform strategy, its AdConfig and the orchestrator
// into the facade a game talks to.
package sdk

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/thenexusengine/tne_adbridge/internal/adapters/null"
	"github.com/thenexusengine/tne_adbridge/internal/ads"
	"github.com/thenexusengine/tne_adbridge/pkg/catalog"
	"github.com/thenexusengine/tne_adbridge/pkg/logger"
)

// PrerollCallbacks are the game callbacks for the automatic preroll
type PrerollCallbacks struct {
	BeforeAd func()
	AfterAd  func()
	NoFill   func()
}

// Config configures an SDK instance
type Config struct {
	Platform ads.Platform
	GameID   string

	// Globals holds the vendor SDK objects by global name
	Globals map[string]any

	// UnitSource overrides where ad unit IDs come from. When nil, a strategy
	// that provides its own source is used, then the catalog endpoint at
	// CatalogURL for platforms that need unit IDs.
	UnitSource ads.UnitSource
	CatalogURL string
	Catalog    catalog.Options

	// Wortal routing IDs
	ClientID  string
	HostID    string
	ChannelID string

	AutoPreroll      bool
	PrerollCallbacks PrerollCallbacks

	PrerollWindow time.Duration
	Watchdog      time.Duration
	Metrics       ads.MetricsRecorder
	Clock         ads.Clock
	Logger        *zerolog.Logger
}

// SDK is the game-facing ad API. Show calls fail with NOT_INITIALIZED until
// Initialize has completed.
type SDK struct {
	cfg          Config
	platform     ads.Platform
	strategy     ads.Strategy
	config       *ads.AdConfig
	orchestrator *ads.Orchestrator
	log          *zerolog.Logger

	ready    atomic.Bool
	initOnce sync.Once
}

// New resolves the strategy for cfg.Platform from registry (nil means
// ads.DefaultRegistry) and builds the orchestrator. An unknown platform or a
// failing factory falls back to the null strategy.
func New(cfg Config, registry *ads.Registry) *SDK {
	if registry == nil {
		registry = ads.DefaultRegistry
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Ads()
	}

	platform := cfg.Platform
	if platform == "" {
		platform = ads.PlatformNull
	}

	adConfig := ads.NewAdConfig(cfg.GameID, nil)
	adConfig.SetLogger(*log)

	strategy, err := registry.Build(platform, &ads.Environment{Globals: cfg.Globals, Config: adConfig})
	if err != nil {
		log.Warn().
			Err(err).
			Str("platform", string(platform)).
			Msg("Failed to initialize platform strategy, ads will be unavailable.")
		platform = ads.PlatformNull
		strategy = nullStrategy(registry)
	}

	adConfig.SetSource(resolveSource(cfg, platform, strategy))

	s := &SDK{
		cfg:      cfg,
		platform: platform,
		strategy: strategy,
		config:   adConfig,
		log:      log,
	}
	s.orchestrator = ads.NewOrchestrator(ads.Options{
		Platform:      platform,
		Strategy:      strategy,
		Config:        adConfig,
		Session:       ads.NewSession(cfg.Clock),
		Metrics:       cfg.Metrics,
		Logger:        log,
		PrerollWindow: cfg.PrerollWindow,
		Watchdog:      cfg.Watchdog,
	})
	return s
}

func nullStrategy(registry *ads.Registry) ads.Strategy {
	if strategy, err := registry.Build(ads.PlatformNull, &ads.Environment{}); err == nil {
		return strategy
	}
	return null.New()
}

func resolveSource(cfg Config, platform ads.Platform, strategy ads.Strategy) ads.UnitSource {
	if cfg.UnitSource != nil {
		return cfg.UnitSource
	}
	if p, ok := strategy.(ads.UnitSourceProvider); ok {
		if src := p.UnitSource(); src != nil {
			return src
		}
	}
	if platform.Info().RequiresAdUnitIDs && cfg.CatalogURL != "" {
		return catalog.NewClient(cfg.CatalogURL, cfg.Catalog)
	}
	return nil
}

// Initialize loads the ad configuration and runs ad-block detection. Neither
// can fail the SDK: errors are logged and ads degrade to noFill. Subsequent
// calls are no-ops.
func (s *SDK) Initialize(ctx context.Context) {
	s.initOnce.Do(func() { s.initialize(ctx) })
}

func (s *SDK) initialize(ctx context.Context) {
	// Detection failures must not cancel the config fetch, so the group has
	// no shared context
	var g errgroup.Group
	g.Go(func() error {
		s.config.Initialize(ctx)
		return nil
	})
	if detector, ok := s.strategy.(ads.AdBlockDetector); ok {
		g.Go(func() error {
			blocked, err := detector.DetectAdBlock(ctx)
			if err != nil {
				return fmt.Errorf("ad blocker detection: %w", err)
			}
			s.config.SetAdBlocked(blocked)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warn().Err(err).Msg("Ad blocker detection failed.")
	}

	if s.cfg.ClientID != "" {
		s.config.SetClientID(s.cfg.ClientID)
	}
	if s.cfg.HostID != "" {
		s.config.SetHostID(s.cfg.HostID)
	}
	if s.cfg.ChannelID != "" {
		s.config.SetChannelID(s.cfg.ChannelID)
	}

	s.ready.Store(true)
	s.log.Info().
		Str("platform", string(s.platform)).
		Bool("ad_blocked", s.config.IsAdBlocked()).
		Msg("Ads initialized.")

	if s.cfg.AutoPreroll && s.platform.Info().SupportsPreroll && !s.config.IsAdBlocked() {
		s.showPreroll()
	}
}

func (s *SDK) showPreroll() {
	cb := s.cfg.PrerollCallbacks
	if cb.BeforeAd == nil {
		cb.BeforeAd = func() {}
	}
	if cb.AfterAd == nil {
		cb.AfterAd = func() {}
	}
	if err := s.orchestrator.ShowInterstitial(ads.PlacementPreroll, "Preroll", cb.BeforeAd, cb.AfterAd, cb.NoFill); err != nil {
		s.log.Debug().Err(err).Msg("Preroll not shown.")
	}
}

// IsReady reports whether Initialize has completed
func (s *SDK) IsReady() bool {
	return s.ready.Load()
}

// Platform returns the active platform. It is PlatformNull after a fallback.
func (s *SDK) Platform() ads.Platform {
	return s.platform
}

// Config returns the session ad configuration
func (s *SDK) Config() *ads.AdConfig {
	return s.config
}

// IsAdBlocked reports whether an ad blocker was detected
func (s *SDK) IsAdBlocked() bool {
	return s.config.IsAdBlocked()
}

// ShowBanner shows or hides a banner ad
func (s *SDK) ShowBanner(shouldShow bool, position ads.BannerPosition) error {
	if err := s.checkReady(ads.APIShowBanner); err != nil {
		return err
	}
	return s.orchestrator.ShowBanner(shouldShow, position)
}

// ShowInterstitial requests an interstitial ad
func (s *SDK) ShowInterstitial(placement ads.Placement, description string, beforeAd, afterAd, noFill func()) error {
	if err := s.checkReady(ads.APIShowInterstitial); err != nil {
		return err
	}
	return s.orchestrator.ShowInterstitial(placement, description, beforeAd, afterAd, noFill)
}

// ShowRewarded requests a rewarded ad
func (s *SDK) ShowRewarded(description string, beforeAd, afterAd, adDismissed, adViewed, noFill func()) error {
	if err := s.checkReady(ads.APIShowRewarded); err != nil {
		return err
	}
	return s.orchestrator.ShowRewarded(description, beforeAd, afterAd, adDismissed, adViewed, noFill)
}

func (s *SDK) checkReady(api string) error {
	if s.ready.Load() {
		return nil
	}
	return ads.NotInitialized("Ads have not been initialized yet.", api)
}
