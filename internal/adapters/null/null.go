// Package null implements the strategy used when ads are unavailable
package null

import (
	"context"

	"github.com/thenexusengine/tne_adbridge/internal/adapters"
	"github.com/thenexusengine/tne_adbridge/internal/ads"
)

// Strategy rejects every ad call with NOT_SUPPORTED. The orchestrator resolves
// rejected requests through the noFill path.
type Strategy struct{}

// New creates a null strategy
func New() *Strategy {
	return &Strategy{}
}

// ShowBanner always fails
func (s *Strategy) ShowBanner(context.Context, bool, ads.BannerPosition) error {
	return ads.NotSupported("", ads.APIShowBanner)
}

// ShowInterstitial always fails
func (s *Strategy) ShowInterstitial(context.Context, *ads.AdRequest) error {
	return ads.NotSupported("", ads.APIShowInterstitial)
}

// ShowRewarded always fails
func (s *Strategy) ShowRewarded(context.Context, *ads.AdRequest) error {
	return ads.NotSupported("", ads.APIShowRewarded)
}

func init() {
	adapters.MustRegister(ads.PlatformNull, func(*ads.Environment) (ads.Strategy, error) {
		return New(), nil
	})
}
