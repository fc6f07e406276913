// Package crazygames implements the strategy for the CrazyGames portal
package crazygames

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/thenexusengine/tne_adbridge/internal/adapters"
	"github.com/thenexusengine/tne_adbridge/internal/ads"
)

// GlobalSDK is the global name of the CrazyGames SDK
const GlobalSDK = "CrazyGames.SDK"

// Ad types accepted by requestAd
const (
	AdTypeMidgame  = "midgame"
	AdTypeRewarded = "rewarded"
)

// Vendor callback names
const (
	EventAdStarted  = "adStarted"
	EventAdFinished = "adFinished"
	EventAdError    = "adError"
)

// AdCallbacks is passed to requestAd
type AdCallbacks struct {
	AdStarted  func()
	AdFinished func()
	AdError    func(err error)
}

// SDK is the subset of CrazyGames.SDK.ad used here
type SDK interface {
	RequestAd(adType string, callbacks AdCallbacks) error
	HasAdblock(ctx context.Context) (bool, error)
}

// Callback maps. A finished rewarded ad counts as watched.
var (
	MidgameEvents = map[string][]ads.Event{
		EventAdStarted:  {ads.EventBeforeAd},
		EventAdFinished: {ads.EventAfterAd},
		EventAdError:    {ads.EventNoFill},
	}

	RewardedEvents = map[string][]ads.Event{
		EventAdStarted:  {ads.EventBeforeAd},
		EventAdFinished: {ads.EventAdViewed, ads.EventAfterAd},
		EventAdError:    {ads.EventAdDismissed, ads.EventNoFill},
	}
)

// Strategy serves ads through the CrazyGames SDK
type Strategy struct {
	sdk      SDK
	midgame  *ads.CallbackAdapter
	rewarded *ads.CallbackAdapter
	log      *zerolog.Logger
}

// New creates a CrazyGames strategy
func New(sdk SDK) *Strategy {
	vendor := string(ads.PlatformCrazyGames)
	return &Strategy{
		sdk:      sdk,
		midgame:  ads.NewCallbackAdapter(vendor, MidgameEvents),
		rewarded: ads.NewCallbackAdapter(vendor, RewardedEvents),
		log:      adapters.Logger(ads.PlatformCrazyGames),
	}
}

// ShowBanner is not supported
func (s *Strategy) ShowBanner(context.Context, bool, ads.BannerPosition) error {
	return ads.NotSupported("", ads.APIShowBanner)
}

// ShowInterstitial requests a midgame ad
func (s *Strategy) ShowInterstitial(_ context.Context, req *ads.AdRequest) error {
	return s.request(AdTypeMidgame, s.midgame, req)
}

// ShowRewarded requests a rewarded ad
func (s *Strategy) ShowRewarded(_ context.Context, req *ads.AdRequest) error {
	return s.request(AdTypeRewarded, s.rewarded, req)
}

func (s *Strategy) request(adType string, a *ads.CallbackAdapter, req *ads.AdRequest) error {
	err := s.sdk.RequestAd(adType, AdCallbacks{
		AdStarted:  a.Callback(req, EventAdStarted),
		AdFinished: a.Callback(req, EventAdFinished),
		AdError: func(err error) {
			s.log.Error().Err(err).Str("ad_request_id", req.ID).Msg("Ad instance encountered an error or was not filled.")
			a.Handle(req, EventAdError)
		},
	})
	if err != nil {
		return adapters.NewSDKError(ads.PlatformCrazyGames, err)
	}
	return nil
}

// DetectAdBlock asks the SDK whether an ad blocker is active
func (s *Strategy) DetectAdBlock(ctx context.Context) (bool, error) {
	blocked, err := s.sdk.HasAdblock(ctx)
	if err != nil {
		return false, adapters.NewSDKError(ads.PlatformCrazyGames, err)
	}
	s.log.Debug().Bool("blocked", blocked).Msg("CrazyGames adblock check complete.")
	return blocked, nil
}

func init() {
	adapters.MustRegister(ads.PlatformCrazyGames, func(env *ads.Environment) (ads.Strategy, error) {
		sdk, err := ads.LookupGlobal[SDK](env, GlobalSDK)
		if err != nil {
			return nil, adapters.NewMissingGlobalError(ads.PlatformCrazyGames, err)
		}
		return New(sdk), nil
	})
}
