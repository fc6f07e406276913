package null

import (
	"context"
	"testing"

	"github.com/thenexusengine/tne_adbridge/internal/ads"
)

func TestStrategy_NotSupported(t *testing.T) {
	s := New()
	ctx := context.Background()

	tests := []struct {
		name string
		err  error
	}{
		{"banner", s.ShowBanner(ctx, true, ads.BannerTop)},
		{"interstitial", s.ShowInterstitial(ctx, &ads.AdRequest{Kind: ads.KindInterstitial})},
		{"rewarded", s.ShowRewarded(ctx, &ads.AdRequest{Kind: ads.KindRewarded})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ads.ErrorCodeOf(tt.err) != ads.ErrorCodeNotSupported {
				t.Errorf("Expected NOT_SUPPORTED, got %v", tt.err)
			}
		})
	}
}

func TestStrategy_RewardedResolvesThroughNoFill(t *testing.T) {
	o := ads.NewOrchestrator(ads.Options{Platform: ads.PlatformNull, Strategy: New()})

	var events []string
	err := o.ShowRewarded("test",
		func() { events = append(events, "beforeAd") },
		func() { events = append(events, "afterAd") },
		func() { events = append(events, "adDismissed") },
		func() { events = append(events, "adViewed") },
		func() { events = append(events, "noFill") },
	)

	if ads.ErrorCodeOf(err) != ads.ErrorCodeNotSupported {
		t.Errorf("Expected NOT_SUPPORTED, got %v", err)
	}
	if len(events) != 2 || events[0] != "adDismissed" || events[1] != "noFill" {
		t.Errorf("Expected [adDismissed noFill], got %v", events)
	}
}

func TestRegistered(t *testing.T) {
	if _, ok := ads.DefaultRegistry.Get(ads.PlatformNull); !ok {
		t.Error("Expected null strategy to be registered")
	}
}
