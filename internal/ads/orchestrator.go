package ads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/thenexusengine/tne_adbridge/internal/config"
	"github.com/thenexusengine/tne_adbridge/pkg/logger"
)

// Options configures an Orchestrator
type Options struct {
	Platform Platform
	Strategy Strategy
	Config   *AdConfig
	Session  *Session
	Metrics  MetricsRecorder
	Logger   *zerolog.Logger

	// PrerollWindow bounds how long after session start a preroll is accepted
	PrerollWindow time.Duration

	// Watchdog resolves a request through noFill if the platform has not
	// ended it in time. Zero disables it.
	Watchdog time.Duration

	// Context is passed to strategy calls
	Context context.Context
}

// Orchestrator is the game-facing ad API. It validates show requests, owns
// the single-flight guard and drives the active strategy.
type Orchestrator struct {
	platform      Platform
	strategy      Strategy
	config        *AdConfig
	session       *Session
	metrics       MetricsRecorder
	log           zerolog.Logger
	prerollWindow time.Duration
	watchdog      time.Duration
	ctx           context.Context
}

// NewOrchestrator creates an Orchestrator. Missing options fall back to a null
// configuration, a fresh session and no metrics.
func NewOrchestrator(opts Options) *Orchestrator {
	o := &Orchestrator{
		platform:      opts.Platform,
		strategy:      opts.Strategy,
		config:        opts.Config,
		session:       opts.Session,
		metrics:       opts.Metrics,
		prerollWindow: opts.PrerollWindow,
		watchdog:      opts.Watchdog,
		ctx:           opts.Context,
	}
	if o.platform == "" {
		o.platform = PlatformNull
	}
	if o.config == nil {
		o.config = NewNullAdConfig()
	}
	if o.session == nil {
		o.session = NewSession(nil)
	}
	if o.metrics == nil {
		o.metrics = NopMetrics()
	}
	if o.prerollWindow <= 0 {
		o.prerollWindow = config.PrerollWindow
	}
	if o.ctx == nil {
		o.ctx = context.Background()
	}
	if opts.Logger != nil {
		o.log = *opts.Logger
	} else {
		o.log = *logger.Platform(string(o.platform))
	}
	return o
}

// Platform returns the active platform
func (o *Orchestrator) Platform() Platform { return o.platform }

// Config returns the session ad configuration
func (o *Orchestrator) Config() *AdConfig { return o.config }

// Session returns the session guard
func (o *Orchestrator) Session() *Session { return o.session }

// IsAdBlocked reports whether an ad blocker was detected
func (o *Orchestrator) IsAdBlocked() bool {
	return o.config.IsAdBlocked()
}

// ShowBanner shows or hides a banner ad
func (o *Orchestrator) ShowBanner(shouldShow bool, position BannerPosition) (err error) {
	if !position.IsValid() {
		return o.reject(KindBanner, InvalidParams(
			fmt.Sprintf("showBanner called with invalid position: %s", position), APIShowBanner))
	}
	if o.config.IsAdBlocked() {
		o.log.Debug().Msg("Ads are blocked, skipping banner.")
		return nil
	}
	if !o.platform.Info().SupportsBanner {
		return o.reject(KindBanner, NotSupported("Current platform does not support banner ads.", APIShowBanner))
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy panic: %v", r)
		}
		if err != nil {
			err = asAdsError(err, APIShowBanner)
			o.log.Error().Err(err).Str("context", APIShowBanner).Msg("Banner ad failed.")
		}
	}()
	return o.strategy.ShowBanner(o.ctx, shouldShow, position)
}

// ShowInterstitial requests an interstitial ad. Validation failures are
// returned and no callback runs. A nil noFill falls back to afterAd.
func (o *Orchestrator) ShowInterstitial(placement Placement, description string, beforeAd, afterAd, noFill func()) error {
	if !placement.IsValid() {
		return o.reject(KindInterstitial, InvalidParams(
			fmt.Sprintf("showInterstitial called with invalid placement type: %s", placement), APIShowInterstitial))
	}
	if placement == PlacementReward {
		return o.reject(KindInterstitial, InvalidParams(
			"showInterstitial called with placement type 'reward'. Call showRewarded instead to display a rewarded ad.",
			APIShowInterstitial))
	}
	if placement == PlacementPreroll {
		if err := o.checkPreroll(); err != nil {
			return o.reject(KindInterstitial, err)
		}
	}

	req := &AdRequest{
		Kind:          KindInterstitial,
		PlacementType: placement,
		Description:   description,
		AdUnitID:      o.config.unitIDFor(KindInterstitial),
	}
	if o.platform.Info().RequiresAdUnitIDs && req.AdUnitID == "" {
		return o.reject(KindInterstitial, InvalidParams("Interstitial ad unit ID is missing or invalid.", APIShowInterstitial))
	}

	if beforeAd == nil {
		return o.reject(KindInterstitial, InvalidParams("showInterstitial called with invalid beforeAd callback.", APIShowInterstitial))
	}
	if afterAd == nil {
		return o.reject(KindInterstitial, InvalidParams("showInterstitial called with invalid afterAd callback.", APIShowInterstitial))
	}
	if noFill == nil {
		noFill = afterAd
	}

	req.Callbacks = Callbacks{BeforeAd: beforeAd, AfterAd: afterAd, NoFill: noFill}
	return o.dispatch(req, APIShowInterstitial)
}

// ShowRewarded requests a rewarded ad. Exactly one of adViewed or adDismissed
// fires before the terminal callback. Nil reward callbacks are no-ops and a
// nil noFill falls back to afterAd.
func (o *Orchestrator) ShowRewarded(description string, beforeAd, afterAd, adDismissed, adViewed, noFill func()) error {
	req := &AdRequest{
		Kind:          KindRewarded,
		PlacementType: PlacementReward,
		Description:   description,
		AdUnitID:      o.config.unitIDFor(KindRewarded),
	}
	if o.platform.Info().RequiresAdUnitIDs && req.AdUnitID == "" {
		return o.reject(KindRewarded, InvalidParams("Rewarded ad unit ID is missing or invalid.", APIShowRewarded))
	}

	if beforeAd == nil {
		return o.reject(KindRewarded, InvalidParams("showRewarded called with invalid beforeAd callback.", APIShowRewarded))
	}
	if afterAd == nil {
		return o.reject(KindRewarded, InvalidParams("showRewarded called with invalid afterAd callback.", APIShowRewarded))
	}
	if noFill == nil {
		noFill = afterAd
	}
	if adDismissed == nil {
		adDismissed = func() {}
	}
	if adViewed == nil {
		adViewed = func() {}
	}

	req.Callbacks = Callbacks{
		BeforeAd:    beforeAd,
		AfterAd:     afterAd,
		NoFill:      noFill,
		AdDismissed: adDismissed,
		AdViewed:    adViewed,
	}
	return o.dispatch(req, APIShowRewarded)
}

func (o *Orchestrator) checkPreroll() *Error {
	if o.config.HasPrerollShown() || o.session.Elapsed() > o.prerollWindow {
		return InvalidOperation("Preroll ads can only be shown once during game load.", APIShowInterstitial)
	}
	if !o.platform.Info().SupportsPreroll {
		return NotSupported("Current platform does not support preroll ads.", APIShowInterstitial)
	}
	return nil
}

func (o *Orchestrator) reject(kind AdKind, err *Error) error {
	o.metrics.RecordAdRejected(string(kind), string(err.Code))
	o.log.Warn().
		Str("kind", string(kind)).
		Str("code", string(err.Code)).
		Str("context", err.Context).
		Msg(err.Message)
	return err
}

// dispatch runs a validated request: blocked requests resolve immediately,
// everything else goes through the guard to the strategy
func (o *Orchestrator) dispatch(user *AdRequest, api string) error {
	kind := string(user.Kind)
	placement := string(user.PlacementType)

	if o.config.IsAdBlocked() {
		o.config.adCalled()
		if user.PlacementType == PlacementPreroll {
			o.config.SetPrerollShown(true)
		}
		o.metrics.RecordAdRequest(string(o.platform), kind, placement)
		o.metrics.RecordAdOutcome(string(o.platform), kind, OutcomeBlocked, 0)
		o.log.Debug().Str("kind", kind).Msg("Ads are blocked, resolving as no fill.")
		user.Fail()
		return nil
	}

	if !o.session.TryAcquire() {
		return o.reject(user.Kind, InvalidOperation("Already showing an ad.", api))
	}

	o.config.adCalled()
	if user.PlacementType == PlacementPreroll {
		o.config.SetPrerollShown(true)
	}
	o.metrics.RecordAdRequest(string(o.platform), kind, placement)
	o.metrics.SetAdInFlight(true)

	f := newFlight(o, user.Kind, user.Callbacks)
	req := &AdRequest{
		ID:            uuid.NewString(),
		Kind:          user.Kind,
		PlacementType: user.PlacementType,
		Description:   user.Description,
		AdUnitID:      user.AdUnitID,
		Callbacks:     f.callbacks(),
	}
	o.log.Debug().
		Str("ad_request_id", req.ID).
		Str("kind", kind).
		Str("placement", placement).
		Str("description", req.Description).
		Str("ad_unit_id", req.AdUnitID).
		Msg("Dispatching ad request")
	f.armWatchdog(o.watchdog)

	if err := o.invoke(req); err != nil {
		err = asAdsError(err, api)
		if f.terminal(EventNoFill, OutcomeError) {
			o.log.Error().
				Err(err).
				Str("ad_request_id", req.ID).
				Str("context", api).
				Msg("Ad instance encountered an error or was not filled.")
		}
		return err
	}
	return nil
}

func (o *Orchestrator) invoke(req *AdRequest) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy panic: %v", r)
		}
	}()
	if req.Kind == KindRewarded {
		return o.strategy.ShowRewarded(o.ctx, req)
	}
	return o.strategy.ShowInterstitial(o.ctx, req)
}

// asAdsError keeps *Error values and wraps anything else as OPERATION_FAILED
func asAdsError(err error, api string) error {
	var adsErr *Error
	if errors.As(err, &adsErr) {
		return err
	}
	return OperationFailed(err, api)
}
