package yandex

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/thenexusengine/tne_adbridge/internal/ads"
)

type fakeSDK struct {
	fullscreen FullscreenCallbacks
	rewarded   RewardedCallbacks

	status    BannerStatus
	statusErr error
	shows     int
	hides     int
}

func (s *fakeSDK) ShowFullscreenAdv(cb FullscreenCallbacks) error {
	s.fullscreen = cb
	return nil
}

func (s *fakeSDK) ShowRewardedVideo(cb RewardedCallbacks) error {
	s.rewarded = cb
	return nil
}

func (s *fakeSDK) GetBannerAdvStatus(context.Context) (BannerStatus, error) {
	return s.status, s.statusErr
}

func (s *fakeSDK) ShowBannerAdv(context.Context) error {
	s.shows++
	return nil
}

func (s *fakeSDK) HideBannerAdv(context.Context) error {
	s.hides++
	return nil
}

func newOrchestrator(sdk *fakeSDK) *ads.Orchestrator {
	nop := zerolog.Nop()
	return ads.NewOrchestrator(ads.Options{Platform: ads.PlatformYandex, Strategy: New(sdk), Logger: &nop})
}

func TestShowInterstitial(t *testing.T) {
	tests := []struct {
		name   string
		vendor func(cb FullscreenCallbacks)
		want   []string
	}{
		{"shown", func(cb FullscreenCallbacks) { cb.OnOpen(); cb.OnClose(true) }, []string{"beforeAd", "afterAd"}},
		{"error", func(cb FullscreenCallbacks) { cb.OnError(errors.New("no fill")) }, []string{"noFill"}},
		{"offline", func(cb FullscreenCallbacks) { cb.OnOffline() }, []string{"noFill"}},
		{"error after close", func(cb FullscreenCallbacks) {
			cb.OnOpen()
			cb.OnClose(true)
			cb.OnError(errors.New("late"))
		}, []string{"beforeAd", "afterAd"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sdk := &fakeSDK{}
			o := newOrchestrator(sdk)
			var events []string
			add := func(name string) func() { return func() { events = append(events, name) } }

			if err := o.ShowInterstitial(ads.PlacementNext, "", add("beforeAd"), add("afterAd"), add("noFill")); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			tt.vendor(sdk.fullscreen)

			if !reflect.DeepEqual(events, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, events)
			}
		})
	}
}

func TestShowRewarded(t *testing.T) {
	tests := []struct {
		name   string
		vendor func(cb RewardedCallbacks)
		want   []string
	}{
		{"rewarded", func(cb RewardedCallbacks) { cb.OnOpen(); cb.OnRewarded(); cb.OnClose() }, []string{"beforeAd", "adViewed", "afterAd"}},
		{"closed without reward", func(cb RewardedCallbacks) { cb.OnOpen(); cb.OnClose() }, []string{"beforeAd", "adDismissed", "afterAd"}},
		{"error", func(cb RewardedCallbacks) { cb.OnError(errors.New("no fill")) }, []string{"adDismissed", "noFill"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sdk := &fakeSDK{}
			o := newOrchestrator(sdk)
			var events []string
			add := func(name string) func() { return func() { events = append(events, name) } }

			if err := o.ShowRewarded("", add("beforeAd"), add("afterAd"), add("adDismissed"), add("adViewed"), add("noFill")); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			tt.vendor(sdk.rewarded)

			if !reflect.DeepEqual(events, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, events)
			}
		})
	}
}

func TestShowBanner_TogglesOnlyOnChange(t *testing.T) {
	tests := []struct {
		name      string
		showing   bool
		show      bool
		wantShows int
		wantHides int
	}{
		{"show when hidden", false, true, 1, 0},
		{"show when showing", true, true, 0, 0},
		{"hide when showing", true, false, 0, 1},
		{"hide when hidden", false, false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sdk := &fakeSDK{status: BannerStatus{StickyAdvIsShowing: tt.showing}}
			o := newOrchestrator(sdk)

			if err := o.ShowBanner(tt.show, ads.BannerBottom); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if sdk.shows != tt.wantShows || sdk.hides != tt.wantHides {
				t.Errorf("Expected shows=%d hides=%d, got shows=%d hides=%d",
					tt.wantShows, tt.wantHides, sdk.shows, sdk.hides)
			}
		})
	}
}

func TestShowBanner_Failures(t *testing.T) {
	t.Run("load failure reason", func(t *testing.T) {
		sdk := &fakeSDK{status: BannerStatus{Reason: "ADV_IS_NOT_CONNECTED"}}
		o := newOrchestrator(sdk)
		if err := o.ShowBanner(true, ads.BannerTop); ads.ErrorCodeOf(err) != ads.ErrorCodeOperationFailed {
			t.Errorf("Expected OPERATION_FAILED, got %v", err)
		}
		if sdk.shows != 0 {
			t.Errorf("Expected no show call, got %d", sdk.shows)
		}
	})

	t.Run("status error", func(t *testing.T) {
		sdk := &fakeSDK{statusErr: errors.New("sdk not ready")}
		o := newOrchestrator(sdk)
		if err := o.ShowBanner(true, ads.BannerTop); ads.ErrorCodeOf(err) != ads.ErrorCodeOperationFailed {
			t.Errorf("Expected OPERATION_FAILED, got %v", err)
		}
	})
}
