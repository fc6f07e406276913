// Package poki implements the strategy for the Poki web portal
package poki

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/thenexusengine/tne_adbridge/internal/adapters"
	"github.com/thenexusengine/tne_adbridge/internal/ads"
)

// GlobalSDK is the global name of the Poki SDK
const GlobalSDK = "PokiSDK"

// SDK is the subset of PokiSDK used for ads. Both calls block until the break
// is over; onStart runs when the ad starts playing.
type SDK interface {
	CommercialBreak(ctx context.Context, onStart func()) error
	RewardedBreak(ctx context.Context, onStart func()) (rewarded bool, err error)
}

// Strategy serves ads through PokiSDK
type Strategy struct {
	sdk SDK
	log *zerolog.Logger
}

// New creates a Poki strategy
func New(sdk SDK) *Strategy {
	return &Strategy{sdk: sdk, log: adapters.Logger(ads.PlatformPoki)}
}

// ShowBanner is not supported on Poki
func (s *Strategy) ShowBanner(context.Context, bool, ads.BannerPosition) error {
	return ads.NotSupported("", ads.APIShowBanner)
}

// ShowInterstitial runs a commercial break
func (s *Strategy) ShowInterstitial(ctx context.Context, req *ads.AdRequest) error {
	adapters.Async(s.log, ads.PlatformPoki, req, func() error {
		if err := s.sdk.CommercialBreak(ctx, req.Callbacks.BeforeAd); err != nil {
			return err
		}
		req.Fire(ads.EventAfterAd)
		return nil
	})
	return nil
}

// ShowRewarded runs a rewarded break
func (s *Strategy) ShowRewarded(ctx context.Context, req *ads.AdRequest) error {
	adapters.Async(s.log, ads.PlatformPoki, req, func() error {
		rewarded, err := s.sdk.RewardedBreak(ctx, req.Callbacks.BeforeAd)
		if err != nil {
			return err
		}
		if rewarded {
			req.Fire(ads.EventAdViewed)
		} else {
			req.Fire(ads.EventAdDismissed)
		}
		req.Fire(ads.EventAfterAd)
		return nil
	})
	return nil
}

func init() {
	adapters.MustRegister(ads.PlatformPoki, func(env *ads.Environment) (ads.Strategy, error) {
		sdk, err := ads.LookupGlobal[SDK](env, GlobalSDK)
		if err != nil {
			return nil, adapters.NewMissingGlobalError(ads.PlatformPoki, err)
		}
		return New(sdk), nil
	})
}
