// Package ads implements the ad lifecycle engine: request validation, the
// single-flight guard, strategy dispatch and normalization of vendor callbacks
// into the canonical beforeAd/afterAd/noFill/adDismissed/adViewed lifecycle.
package ads

// Placement is the contextual trigger for an ad
type Placement string

const (
	PlacementPreroll Placement = "preroll"
	PlacementStart   Placement = "start"
	PlacementNext    Placement = "next"
	PlacementPause   Placement = "pause"
	PlacementReward  Placement = "reward"
)

// IsValid reports whether p is a recognized placement
func (p Placement) IsValid() bool {
	switch p {
	case PlacementPreroll, PlacementStart, PlacementNext, PlacementPause, PlacementReward:
		return true
	}
	return false
}

// BannerPosition is where a banner is anchored on screen
type BannerPosition string

const (
	BannerTop    BannerPosition = "top"
	BannerBottom BannerPosition = "bottom"
)

// IsValid reports whether b is a recognized banner position
func (b BannerPosition) IsValid() bool {
	return b == BannerTop || b == BannerBottom
}

// AdKind distinguishes interstitial and rewarded requests
type AdKind string

const (
	KindBanner       AdKind = "banner"
	KindInterstitial AdKind = "interstitial"
	KindRewarded     AdKind = "rewarded"
)
