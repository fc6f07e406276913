// Package facebook implements the strategy for Facebook Instant Games
package facebook

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/thenexusengine/tne_adbridge/internal/adapters"
	"github.com/thenexusengine/tne_adbridge/internal/ads"
)

// GlobalSDK is the global name of the Instant Games SDK
const GlobalSDK = "FBInstant"

// AdInstance is a preloadable ad returned by the Instant Games SDK
type AdInstance interface {
	LoadAsync(ctx context.Context) error
	ShowAsync(ctx context.Context) error
}

// SDK is the subset of FBInstant used for ads
type SDK interface {
	GetInterstitialAdAsync(ctx context.Context, placementID string) (AdInstance, error)
	GetRewardedVideoAsync(ctx context.Context, placementID string) (AdInstance, error)
	LoadBannerAdAsync(ctx context.Context, placementID string) error
	HideBannerAdAsync(ctx context.Context) error
}

// BannerConfig supplies the banner ad unit ID
type BannerConfig interface {
	BannerID() string
}

// Strategy serves ads through FBInstant. Each show runs the get, load and
// show steps on its own goroutine.
type Strategy struct {
	sdk    SDK
	banner BannerConfig
	log    *zerolog.Logger
}

// New creates a Facebook strategy. banner may be nil.
func New(sdk SDK, banner BannerConfig) *Strategy {
	return &Strategy{sdk: sdk, banner: banner, log: adapters.Logger(ads.PlatformFacebook)}
}

// ShowBanner loads or hides the banner ad
func (s *Strategy) ShowBanner(ctx context.Context, shouldShow bool, _ ads.BannerPosition) error {
	if !shouldShow {
		return s.sdk.HideBannerAdAsync(ctx)
	}
	if s.banner == nil || s.banner.BannerID() == "" {
		return ads.InvalidParams("Banner ad unit ID is missing or invalid.", ads.APIShowBanner)
	}
	return s.sdk.LoadBannerAdAsync(ctx, s.banner.BannerID())
}

// ShowInterstitial loads and shows an interstitial
func (s *Strategy) ShowInterstitial(ctx context.Context, req *ads.AdRequest) error {
	adapters.Async(s.log, ads.PlatformFacebook, req, func() error {
		ad, err := s.sdk.GetInterstitialAdAsync(ctx, req.AdUnitID)
		if err != nil {
			return fmt.Errorf("get interstitial %s: %w", req.AdUnitID, err)
		}
		return s.play(ctx, req, ad)
	})
	return nil
}

// ShowRewarded loads and shows a rewarded video. A completed ShowAsync means
// the video was watched.
func (s *Strategy) ShowRewarded(ctx context.Context, req *ads.AdRequest) error {
	adapters.Async(s.log, ads.PlatformFacebook, req, func() error {
		ad, err := s.sdk.GetRewardedVideoAsync(ctx, req.AdUnitID)
		if err != nil {
			return fmt.Errorf("get rewarded video %s: %w", req.AdUnitID, err)
		}
		return s.play(ctx, req, ad)
	})
	return nil
}

func (s *Strategy) play(ctx context.Context, req *ads.AdRequest, ad AdInstance) error {
	if err := ad.LoadAsync(ctx); err != nil {
		return fmt.Errorf("load ad: %w", err)
	}
	req.Fire(ads.EventBeforeAd)
	if err := ad.ShowAsync(ctx); err != nil {
		return fmt.Errorf("show ad: %w", err)
	}
	if req.IsRewarded() {
		req.Fire(ads.EventAdViewed)
	}
	req.Fire(ads.EventAfterAd)
	return nil
}

func init() {
	adapters.MustRegister(ads.PlatformFacebook, func(env *ads.Environment) (ads.Strategy, error) {
		sdk, err := ads.LookupGlobal[SDK](env, GlobalSDK)
		if err != nil {
			return nil, adapters.NewMissingGlobalError(ads.PlatformFacebook, err)
		}
		var banner BannerConfig
		if env.Config != nil {
			banner = env.Config
		}
		return New(sdk, banner), nil
	})
}
