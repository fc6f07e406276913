package ads

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/thenexusengine/tne_adbridge/pkg/catalog"
	"github.com/thenexusengine/tne_adbridge/pkg/logger"
)

// UnitSource fetches the ad unit catalog for a game
type UnitSource interface {
	FetchAdUnits(ctx context.Context, gameID string) (*catalog.Response, error)
}

// AdConfig holds the per-session ad configuration: unit IDs, block and
// preroll flags, and call/show counters. Safe for concurrent use.
type AdConfig struct {
	mu     sync.RWMutex
	gameID string
	source UnitSource
	log    zerolog.Logger

	interstitialID string
	rewardedID     string
	bannerID       string

	clientID  string
	hostID    string
	channelID string

	adBlocked    bool
	prerollShown bool

	adsCalled int64
	adsShown  int64
}

// AdConfigSnapshot is a point-in-time copy of an AdConfig
type AdConfigSnapshot struct {
	InterstitialID  string `json:"interstitial_id"`
	RewardedID      string `json:"rewarded_id"`
	BannerID        string `json:"banner_id"`
	ClientID        string `json:"client_id,omitempty"`
	HostID          string `json:"host_id,omitempty"`
	ChannelID       string `json:"channel_id,omitempty"`
	IsAdBlocked     bool   `json:"is_ad_blocked"`
	HasPrerollShown bool   `json:"has_preroll_shown"`
	AdsCalled       int64  `json:"ads_called"`
	AdsShown        int64  `json:"ads_shown"`
}

// NewAdConfig creates an AdConfig that loads unit IDs for gameID from source.
// A nil source gives the null variant, for platforms that need no unit IDs.
func NewAdConfig(gameID string, source UnitSource) *AdConfig {
	return &AdConfig{
		gameID: gameID,
		source: source,
		log:    *logger.Ads(),
	}
}

// NewNullAdConfig creates an AdConfig whose Initialize is a no-op
func NewNullAdConfig() *AdConfig {
	return NewAdConfig("", nil)
}

// SetSource replaces the unit source. It must be called before Initialize.
func (c *AdConfig) SetSource(source UnitSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.source = source
}

// SetLogger replaces the logger used for initialization diagnostics
func (c *AdConfig) SetLogger(l zerolog.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = l
}

// Initialize populates the unit IDs. It never fails: fetch or parse errors are
// logged and leave the IDs empty, so later show calls fail validation instead.
func (c *AdConfig) Initialize(ctx context.Context) {
	c.log.Debug().Msg("Initializing AdConfig..")

	c.mu.RLock()
	source := c.source
	c.mu.RUnlock()

	if source == nil {
		c.log.Debug().Interface("config", c.Snapshot()).Msg("AdConfig initialized.")
		return
	}

	if c.gameID == "" {
		c.log.Error().
			Str("context", APIInitialize).
			Msg("Failed to retrieve game ID. Ad unit IDs will not be available.")
		return
	}

	resp, err := source.FetchAdUnits(ctx, c.gameID)
	if err != nil {
		c.log.Error().
			Err(err).
			Str("game_id", c.gameID).
			Str("context", APIInitialize).
			Msg("Failed to retrieve ad units. This may be due to a server issue or the API being currently unavailable.")
		return
	}

	c.ApplyCatalog(resp)
	c.log.Debug().Interface("config", c.Snapshot()).Msg("AdConfig initialized.")
}

// ApplyCatalog takes the first ad unit of each display format from resp and
// returns a warning for every entry it ignored
func (c *AdConfig) ApplyCatalog(resp *catalog.Response) []string {
	if resp == nil || resp.Ads == nil {
		c.log.Error().
			Str("context", APIInitialize).
			Msg("Failed to retrieve ad units. This may be due to a server issue or the API being currently unavailable.")
		return nil
	}

	var warnings []string
	warn := func(msg string) {
		warnings = append(warnings, msg)
		c.log.Warn().Str("game_id", c.gameID).Msg(msg)
	}

	if len(resp.Ads) == 0 {
		warn("No ad units returned. Ad units must be set up before attempting to show ads.")
		return warnings
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, unit := range resp.Ads {
		var slot *string
		var label string
		switch unit.DisplayFormat {
		case catalog.FormatInterstitial:
			slot, label = &c.interstitialID, "interstitial"
		case catalog.FormatRewardedVideo:
			slot, label = &c.rewardedID, "rewarded"
		case catalog.FormatBanner:
			slot, label = &c.bannerID, "banner"
		default:
			c.log.Debug().Str("display_format", unit.DisplayFormat).Msg("Ignoring ad unit with unknown display format")
			continue
		}

		if unit.PlacementID == "" {
			warn("Ignoring " + label + " ad unit with empty placement ID.")
			continue
		}
		if *slot != "" {
			warn("Multiple " + label + " ad units found. Using the first one.")
			continue
		}
		*slot = unit.PlacementID
	}

	return warnings
}

// InterstitialID returns the interstitial ad unit ID, or "" if unset
func (c *AdConfig) InterstitialID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.interstitialID
}

// RewardedID returns the rewarded ad unit ID, or "" if unset
func (c *AdConfig) RewardedID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rewardedID
}

// BannerID returns the banner ad unit ID, or "" if unset
func (c *AdConfig) BannerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bannerID
}

// ClientID returns the Wortal client routing ID
func (c *AdConfig) ClientID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clientID
}

// HostID returns the Wortal host routing ID
func (c *AdConfig) HostID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hostID
}

// ChannelID returns the Wortal channel routing ID
func (c *AdConfig) ChannelID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channelID
}

// IsAdBlocked reports whether an ad blocker was detected this session
func (c *AdConfig) IsAdBlocked() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.adBlocked
}

// HasPrerollShown reports whether a preroll was already attempted
func (c *AdConfig) HasPrerollShown() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prerollShown
}

// AdsCalled returns the number of accepted show requests
func (c *AdConfig) AdsCalled() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.adsCalled
}

// AdsShown returns the number of requests that reached afterAd
func (c *AdConfig) AdsShown() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.adsShown
}

// SetAdBlocked records ad blocker detection. Once blocked, the flag sticks.
func (c *AdConfig) SetAdBlocked(blocked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adBlocked = c.adBlocked || blocked
}

// SetPrerollShown marks the preroll as attempted. It is never reset.
func (c *AdConfig) SetPrerollShown(shown bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prerollShown = c.prerollShown || shown
}

// SetClientID sets the Wortal client routing ID
func (c *AdConfig) SetClientID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clientID = id
}

// SetHostID sets the Wortal host routing ID
func (c *AdConfig) SetHostID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hostID = id
}

// SetChannelID sets the Wortal channel routing ID
func (c *AdConfig) SetChannelID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channelID = id
}

func (c *AdConfig) adCalled() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adsCalled++
}

func (c *AdConfig) adShown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adsShown++
}

// unitIDFor resolves the ad unit ID for kind
func (c *AdConfig) unitIDFor(kind AdKind) string {
	switch kind {
	case KindInterstitial:
		return c.InterstitialID()
	case KindRewarded:
		return c.RewardedID()
	case KindBanner:
		return c.BannerID()
	}
	return ""
}

// Snapshot returns a copy of the current configuration
func (c *AdConfig) Snapshot() AdConfigSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return AdConfigSnapshot{
		InterstitialID:  c.interstitialID,
		RewardedID:      c.rewardedID,
		BannerID:        c.bannerID,
		ClientID:        c.clientID,
		HostID:          c.hostID,
		ChannelID:       c.channelID,
		IsAdBlocked:     c.adBlocked,
		HasPrerollShown: c.prerollShown,
		AdsCalled:       c.adsCalled,
		AdsShown:        c.adsShown,
	}
}
