// Package rakuten implements the strategy for the Rakuten messaging platforms
// (Link and Viber). Ads go through the triggerWortalAd bridge with explicit
// ad unit IDs reported by the platform SDK.
package rakuten

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/thenexusengine/tne_adbridge/internal/adapters"
	"github.com/thenexusengine/tne_adbridge/internal/adapters/wortal"
	"github.com/thenexusengine/tne_adbridge/internal/ads"
	"github.com/thenexusengine/tne_adbridge/pkg/catalog"
)

// GlobalGame is the global name of the platform game SDK
const GlobalGame = "wortalGame"

// AdUnit is an ad unit reported by getAdUnitsAsync
type AdUnit struct {
	ID   string
	Type string
}

// GameSDK is the subset of the platform game SDK used for ads
type GameSDK interface {
	GetAdUnitsAsync(ctx context.Context) ([]AdUnit, error)
}

// Callback maps. noBreak is the platform's no-inventory signal.
var (
	InterstitialEvents = map[string][]ads.Event{
		wortal.EventBeforeAd: {ads.EventBeforeAd},
		wortal.EventAfterAd:  {ads.EventAfterAd},
		wortal.EventNoBreak:  {ads.EventNoFill},
	}

	RewardedEvents = map[string][]ads.Event{
		wortal.EventBeforeAd:    {ads.EventBeforeAd},
		wortal.EventAfterAd:     {ads.EventAfterAd},
		wortal.EventNoBreak:     {ads.EventAdDismissed, ads.EventNoFill},
		wortal.EventAdDismissed: {ads.EventAdDismissed},
		wortal.EventAdViewed:    {ads.EventAdViewed},
	}
)

// Strategy serves ads on Link or Viber
type Strategy struct {
	platform     ads.Platform
	trigger      wortal.Trigger
	game         GameSDK
	interstitial *ads.CallbackAdapter
	rewarded     *ads.CallbackAdapter
	log          *zerolog.Logger
}

// New creates a strategy for platform. game may be nil, in which case the
// strategy provides no UnitSource.
func New(platform ads.Platform, trigger wortal.Trigger, game GameSDK) *Strategy {
	return &Strategy{
		platform:     platform,
		trigger:      trigger,
		game:         game,
		interstitial: ads.NewCallbackAdapter(string(platform), InterstitialEvents),
		rewarded:     ads.NewCallbackAdapter(string(platform), RewardedEvents),
		log:          adapters.Logger(platform),
	}
}

// ShowBanner is not supported
func (s *Strategy) ShowBanner(context.Context, bool, ads.BannerPosition) error {
	return ads.NotSupported("", ads.APIShowBanner)
}

// ShowInterstitial triggers an interstitial on the resolved ad unit
func (s *Strategy) ShowInterstitial(_ context.Context, req *ads.AdRequest) error {
	a := s.interstitial
	cb := wortal.AdCallbacks{
		BeforeAd: a.Callback(req, wortal.EventBeforeAd),
		AfterAd:  a.Callback(req, wortal.EventAfterAd),
		NoBreak:  s.noBreak(a, req),
	}
	if err := s.trigger.TriggerWortalAd(string(req.PlacementType), req.AdUnitID, req.Description, cb); err != nil {
		return adapters.NewSDKError(s.platform, err)
	}
	return nil
}

// ShowRewarded triggers a rewarded ad on the resolved ad unit
func (s *Strategy) ShowRewarded(_ context.Context, req *ads.AdRequest) error {
	a := s.rewarded
	cb := wortal.AdCallbacks{
		BeforeAd:    a.Callback(req, wortal.EventBeforeAd),
		AfterAd:     a.Callback(req, wortal.EventAfterAd),
		NoBreak:     s.noBreak(a, req),
		AdDismissed: a.Callback(req, wortal.EventAdDismissed),
		AdViewed:    a.Callback(req, wortal.EventAdViewed),
	}
	if err := s.trigger.TriggerWortalAd(string(ads.PlacementReward), req.AdUnitID, req.Description, cb); err != nil {
		return adapters.NewSDKError(s.platform, err)
	}
	return nil
}

func (s *Strategy) noBreak(a *ads.CallbackAdapter, req *ads.AdRequest) func() {
	return func() {
		s.log.Debug().Err(adapters.NewNoInventoryError(s.platform)).Str("ad_request_id", req.ID).Msg("NoBreak")
		a.Handle(req, wortal.EventNoBreak)
	}
}

// UnitSource returns the getAdUnitsAsync-backed unit source, or nil when the
// game SDK is unavailable
func (s *Strategy) UnitSource() ads.UnitSource {
	if s.game == nil {
		return nil
	}
	return &unitSource{platform: s.platform, game: s.game, log: s.log}
}

// unitSource converts getAdUnitsAsync results into a catalog. The platform
// returns the interstitial unit first and the rewarded unit second.
type unitSource struct {
	platform ads.Platform
	game     GameSDK
	log      *zerolog.Logger
}

var errNoAdUnits = errors.New("getAdUnitsAsync returned fewer than two ad units")

func (u *unitSource) FetchAdUnits(ctx context.Context, _ string) (*catalog.Response, error) {
	units, err := u.game.GetAdUnitsAsync(ctx)
	if err != nil {
		return nil, adapters.NewSDKError(u.platform, err)
	}
	if len(units) < 2 {
		return nil, errNoAdUnits
	}

	u.log.Info().
		Str("interstitial_id", units[0].ID).
		Str("rewarded_id", units[1].ID).
		Msg("AdUnit IDs returned")

	return &catalog.Response{Ads: []catalog.AdUnit{
		{DisplayFormat: catalog.FormatInterstitial, PlacementID: units[0].ID},
		{DisplayFormat: catalog.FormatRewardedVideo, PlacementID: units[1].ID},
	}}, nil
}

func factory(platform ads.Platform) ads.StrategyFactory {
	return func(env *ads.Environment) (ads.Strategy, error) {
		trigger, err := ads.LookupGlobal[wortal.Trigger](env, wortal.GlobalTrigger)
		if err != nil {
			return nil, adapters.NewMissingGlobalError(platform, err)
		}
		game, err := ads.LookupGlobal[GameSDK](env, GlobalGame)
		if err != nil {
			adapters.Logger(platform).Warn().Err(err).Msg("Game SDK not available, ad unit IDs will not be loaded")
			game = nil
		}
		return New(platform, trigger, game), nil
	}
}

func init() {
	adapters.MustRegister(ads.PlatformLink, factory(ads.PlatformLink))
	adapters.MustRegister(ads.PlatformViber, factory(ads.PlatformViber))
}
