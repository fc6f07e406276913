// Package debug implements a synthetic ad strategy for local testing. It
// never contacts a vendor: ads "play" for a fixed duration on a timer.
package debug

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/thenexusengine/tne_adbridge/internal/adapters"
	"github.com/thenexusengine/tne_adbridge/internal/ads"
	"github.com/thenexusengine/tne_adbridge/internal/config"
)

// Scheduler runs fn after d
type Scheduler func(d time.Duration, fn func())

// AfterFunc schedules on the runtime timer
func AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// Strategy simulates ads. Rewarded calls alternate between adViewed on odd
// calls and adDismissed on even calls.
type Strategy struct {
	duration time.Duration
	schedule Scheduler
	log      *zerolog.Logger

	mu       sync.Mutex
	rewarded int
	banner   bool
}

// New creates a debug strategy. Zero duration uses config.DebugAdDuration and
// a nil scheduler uses AfterFunc.
func New(duration time.Duration, schedule Scheduler) *Strategy {
	if duration <= 0 {
		duration = config.DebugAdDuration
	}
	if schedule == nil {
		schedule = AfterFunc
	}
	return &Strategy{
		duration: duration,
		schedule: schedule,
		log:      adapters.Logger(ads.PlatformDebug),
	}
}

// ShowBanner records the requested banner state
func (s *Strategy) ShowBanner(_ context.Context, shouldShow bool, position ads.BannerPosition) error {
	s.mu.Lock()
	s.banner = shouldShow
	s.mu.Unlock()
	s.log.Info().
		Bool("show", shouldShow).
		Str("position", string(position)).
		Msg("Simulating banner ad call..")
	return nil
}

// BannerShowing reports the last requested banner state
func (s *Strategy) BannerShowing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.banner
}

// ShowInterstitial plays a synthetic interstitial
func (s *Strategy) ShowInterstitial(_ context.Context, req *ads.AdRequest) error {
	s.log.Info().
		Str("ad_request_id", req.ID).
		Str("placement", string(req.PlacementType)).
		Str("description", req.Description).
		Msg("Simulating interstitial ad call..")

	req.Fire(ads.EventBeforeAd)
	s.finish(req)
	return nil
}

// ShowRewarded plays a synthetic rewarded ad
func (s *Strategy) ShowRewarded(_ context.Context, req *ads.AdRequest) error {
	s.mu.Lock()
	s.rewarded++
	n := s.rewarded
	s.mu.Unlock()

	s.log.Info().
		Str("ad_request_id", req.ID).
		Str("description", req.Description).
		Int("call", n).
		Msg("Simulating rewarded ad call..")

	req.Fire(ads.EventBeforeAd)
	if n%2 == 0 {
		req.Fire(ads.EventAdDismissed)
	} else {
		req.Fire(ads.EventAdViewed)
	}
	s.finish(req)
	return nil
}

func (s *Strategy) finish(req *ads.AdRequest) {
	s.log.Debug().Dur("duration", s.duration).Msg("Ad finishing..")
	s.schedule(s.duration, func() { req.Fire(ads.EventAfterAd) })
}

func init() {
	adapters.MustRegister(ads.PlatformDebug, func(*ads.Environment) (ads.Strategy, error) {
		return New(0, nil), nil
	})
}
