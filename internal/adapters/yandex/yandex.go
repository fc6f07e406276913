// Package yandex implements the strategy for Yandex Games
package yandex

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/thenexusengine/tne_adbridge/internal/adapters"
	"github.com/thenexusengine/tne_adbridge/internal/ads"
)

// GlobalSDK is the global name of the Yandex Games SDK
const GlobalSDK = "ysdk"

// Vendor callback names
const (
	EventOpen     = "onOpen"
	EventClose    = "onClose"
	EventError    = "onError"
	EventOffline  = "onOffline"
	EventRewarded = "onRewarded"
)

// FullscreenCallbacks is passed to showFullscreenAdv
type FullscreenCallbacks struct {
	OnOpen    func()
	OnClose   func(wasShown bool)
	OnError   func(err error)
	OnOffline func()
}

// RewardedCallbacks is passed to showRewardedVideo
type RewardedCallbacks struct {
	OnOpen     func()
	OnRewarded func()
	OnClose    func()
	OnError    func(err error)
}

// BannerStatus is the result of getBannerAdvStatus
type BannerStatus struct {
	StickyAdvIsShowing bool
	Reason             string
}

// SDK is the subset of ysdk.adv used for ads
type SDK interface {
	ShowFullscreenAdv(callbacks FullscreenCallbacks) error
	ShowRewardedVideo(callbacks RewardedCallbacks) error
	GetBannerAdvStatus(ctx context.Context) (BannerStatus, error)
	ShowBannerAdv(ctx context.Context) error
	HideBannerAdv(ctx context.Context) error
}

// Events maps ysdk callbacks to canonical events. A rewarded close without
// onRewarded resolves as dismissed in the lifecycle tracker.
var Events = map[string][]ads.Event{
	EventOpen:     {ads.EventBeforeAd},
	EventClose:    {ads.EventAfterAd},
	EventError:    {ads.EventAdDismissed, ads.EventNoFill},
	EventOffline:  {ads.EventAdDismissed, ads.EventNoFill},
	EventRewarded: {ads.EventAdViewed},
}

// Strategy serves ads through ysdk.adv
type Strategy struct {
	sdk     SDK
	adapter *ads.CallbackAdapter
	log     *zerolog.Logger
}

// New creates a Yandex strategy
func New(sdk SDK) *Strategy {
	return &Strategy{
		sdk:     sdk,
		adapter: ads.NewCallbackAdapter(string(ads.PlatformYandex), Events),
		log:     adapters.Logger(ads.PlatformYandex),
	}
}

// ShowBanner toggles the sticky banner. The vendor is only called when the
// desired state differs from the reported one.
func (s *Strategy) ShowBanner(ctx context.Context, shouldShow bool, _ ads.BannerPosition) error {
	status, err := s.sdk.GetBannerAdvStatus(ctx)
	if err != nil {
		return adapters.NewSDKError(ads.PlatformYandex, err)
	}

	switch {
	case shouldShow && !status.StickyAdvIsShowing && status.Reason != "":
		return adapters.NewSDKError(ads.PlatformYandex, errors.New("banner ad failed to load: "+status.Reason))
	case shouldShow && !status.StickyAdvIsShowing:
		return s.sdk.ShowBannerAdv(ctx)
	case !shouldShow && status.StickyAdvIsShowing:
		return s.sdk.HideBannerAdv(ctx)
	}
	s.log.Debug().Bool("show", shouldShow).Msg("Banner already in requested state")
	return nil
}

// ShowInterstitial shows a fullscreen ad
func (s *Strategy) ShowInterstitial(_ context.Context, req *ads.AdRequest) error {
	a := s.adapter
	return s.sdk.ShowFullscreenAdv(FullscreenCallbacks{
		OnOpen: a.Callback(req, EventOpen),
		OnClose: func(wasShown bool) {
			s.log.Debug().Bool("was_shown", wasShown).Str("ad_request_id", req.ID).Msg("Fullscreen ad closed")
			a.Handle(req, EventClose)
		},
		OnError: func(err error) {
			s.log.Error().Err(err).Str("ad_request_id", req.ID).Msg("Ad instance encountered an error or was not filled.")
			a.Handle(req, EventError)
		},
		OnOffline: func() {
			s.log.Warn().Err(adapters.NewOfflineError(ads.PlatformYandex)).Str("ad_request_id", req.ID).Msg("Ad instance not shown due to network error. Please check your internet connection.")
			a.Handle(req, EventOffline)
		},
	})
}

// ShowRewarded shows a rewarded video
func (s *Strategy) ShowRewarded(_ context.Context, req *ads.AdRequest) error {
	a := s.adapter
	return s.sdk.ShowRewardedVideo(RewardedCallbacks{
		OnOpen:     a.Callback(req, EventOpen),
		OnRewarded: a.Callback(req, EventRewarded),
		OnClose:    a.Callback(req, EventClose),
		OnError: func(err error) {
			s.log.Error().Err(err).Str("ad_request_id", req.ID).Msg("Ad instance encountered an error or was not filled.")
			a.Handle(req, EventError)
		},
	})
}

func init() {
	adapters.MustRegister(ads.PlatformYandex, func(env *ads.Environment) (ads.Strategy, error) {
		sdk, err := ads.LookupGlobal[SDK](env, GlobalSDK)
		if err != nil {
			return nil, adapters.NewMissingGlobalError(ads.PlatformYandex, err)
		}
		return New(sdk), nil
	})
}
