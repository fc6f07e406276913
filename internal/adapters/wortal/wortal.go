// Package wortal implements the strategy for Wortal-hosted games, which serve
// ads through the triggerWortalAd bridge
package wortal

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/thenexusengine/tne_adbridge/internal/adapters"
	"github.com/thenexusengine/tne_adbridge/internal/ads"
)

// Global names
const (
	GlobalTrigger = "triggerWortalAd"
	GlobalAdSense = "adsbygoogle"
)

// Vendor callback names
const (
	EventBeforeAd     = "beforeAd"
	EventAfterAd      = "afterAd"
	EventNoShow       = "noShow"
	EventNoBreak      = "noBreak"
	EventAdBreakDone  = "adBreakDone"
	EventBeforeReward = "beforeReward"
	EventAdDismissed  = "adDismissed"
	EventAdViewed     = "adViewed"
)

// AdCallbacks is the callback object passed to triggerWortalAd. Unused
// callbacks may be nil.
type AdCallbacks struct {
	BeforeAd     func()
	AfterAd      func()
	NoShow       func()
	NoBreak      func()
	AdBreakDone  func()
	BeforeReward func(showAd func())
	AdDismissed  func()
	AdViewed     func()
}

// Trigger is the triggerWortalAd bridge
type Trigger interface {
	TriggerWortalAd(placement, adUnitID, description string, callbacks AdCallbacks) error
}

// TriggerFunc adapts a plain function to Trigger
type TriggerFunc func(placement, adUnitID, description string, callbacks AdCallbacks) error

// TriggerWortalAd calls f
func (f TriggerFunc) TriggerWortalAd(placement, adUnitID, description string, callbacks AdCallbacks) error {
	return f(placement, adUnitID, description, callbacks)
}

// Callback maps for the H5 ad bridge. afterAd is not fired for prerolls, so
// adBreakDone ends them. For other placements adBreakDone only arrives after
// afterAd or noShow, so on its own it means nothing was shown.
var (
	InterstitialEvents = map[string][]ads.Event{
		EventBeforeAd:    {ads.EventBeforeAd},
		EventAfterAd:     {ads.EventAfterAd},
		EventNoShow:      {ads.EventNoFill},
		EventAdBreakDone: {ads.EventNoFill},
	}

	PrerollEvents = map[string][]ads.Event{
		EventBeforeAd:    {ads.EventBeforeAd},
		EventAfterAd:     {ads.EventAfterAd},
		EventNoShow:      {ads.EventNoFill},
		EventAdBreakDone: {ads.EventAfterAd},
	}

	RewardedEvents = map[string][]ads.Event{
		EventBeforeAd:    {ads.EventBeforeAd},
		EventAfterAd:     {ads.EventAfterAd},
		EventNoShow:      {ads.EventAdDismissed, ads.EventNoFill},
		EventAdDismissed: {ads.EventAdDismissed},
		EventAdViewed:    {ads.EventAdViewed},
		EventAdBreakDone: {ads.EventAdDismissed, ads.EventNoFill},
	}
)

// Strategy serves ads through triggerWortalAd
type Strategy struct {
	trigger      Trigger
	interstitial *ads.CallbackAdapter
	preroll      *ads.CallbackAdapter
	rewarded     *ads.CallbackAdapter
	log          *zerolog.Logger

	// adSenseMissing is set when the ad script failed to load, which on
	// Wortal means an ad blocker is active
	adSenseMissing bool
}

// New creates a Wortal strategy
func New(trigger Trigger) *Strategy {
	vendor := string(ads.PlatformWortal)
	return &Strategy{
		trigger:      trigger,
		interstitial: ads.NewCallbackAdapter(vendor, InterstitialEvents),
		preroll:      ads.NewCallbackAdapter(vendor, PrerollEvents),
		rewarded:     ads.NewCallbackAdapter(vendor, RewardedEvents),
		log:          adapters.Logger(ads.PlatformWortal),
	}
}

// ShowBanner is not supported on Wortal
func (s *Strategy) ShowBanner(context.Context, bool, ads.BannerPosition) error {
	return ads.NotSupported("", ads.APIShowBanner)
}

// ShowInterstitial triggers an interstitial break
func (s *Strategy) ShowInterstitial(_ context.Context, req *ads.AdRequest) error {
	adapter := s.interstitial
	if req.PlacementType == ads.PlacementPreroll {
		adapter = s.preroll
	}

	cb := AdCallbacks{
		BeforeAd:    adapter.Callback(req, EventBeforeAd),
		AfterAd:     adapter.Callback(req, EventAfterAd),
		NoShow:      adapter.Callback(req, EventNoShow),
		AdBreakDone: adapter.Callback(req, EventAdBreakDone),
	}
	if err := s.trigger.TriggerWortalAd(string(req.PlacementType), "", req.Description, cb); err != nil {
		return adapters.NewSDKError(ads.PlatformWortal, err)
	}
	return nil
}

// ShowRewarded triggers a reward break. The reward prompt is accepted
// immediately since the game already asked the player.
func (s *Strategy) ShowRewarded(_ context.Context, req *ads.AdRequest) error {
	a := s.rewarded
	cb := AdCallbacks{
		BeforeAd:    a.Callback(req, EventBeforeAd),
		AfterAd:     a.Callback(req, EventAfterAd),
		NoShow:      a.Callback(req, EventNoShow),
		AdBreakDone: a.Callback(req, EventAdBreakDone),
		AdDismissed: a.Callback(req, EventAdDismissed),
		AdViewed:    a.Callback(req, EventAdViewed),
		BeforeReward: func(showAd func()) {
			s.log.Debug().Str("ad_request_id", req.ID).Msg("BeforeReward")
			if showAd != nil {
				showAd()
			}
		},
	}
	if err := s.trigger.TriggerWortalAd(string(ads.PlacementReward), "", req.Description, cb); err != nil {
		return adapters.NewSDKError(ads.PlatformWortal, err)
	}
	return nil
}

// DetectAdBlock reports an ad blocker when the ad script is missing
func (s *Strategy) DetectAdBlock(context.Context) (bool, error) {
	if s.adSenseMissing {
		s.log.Debug().Msg("Ad blocker detected. Wortal platform SDK initialized without ads.")
	}
	return s.adSenseMissing, nil
}

func init() {
	adapters.MustRegister(ads.PlatformWortal, func(env *ads.Environment) (ads.Strategy, error) {
		trigger, err := ads.LookupGlobal[Trigger](env, GlobalTrigger)
		if err != nil {
			return nil, adapters.NewMissingGlobalError(ads.PlatformWortal, err)
		}
		s := New(trigger)
		_, loaded := env.Global(GlobalAdSense)
		s.adSenseMissing = !loaded
		return s, nil
	})
}
