package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/thenexusengine/tne_adbridge/internal/adapters/debug"
	"github.com/thenexusengine/tne_adbridge/internal/ads"
	"github.com/thenexusengine/tne_adbridge/internal/sdk"
	"github.com/thenexusengine/tne_adbridge/pkg/catalog"
	"github.com/thenexusengine/tne_adbridge/pkg/logger"
)

// Options configures one simulated game session
type Options struct {
	Platform      ads.Platform
	GameID        string
	CatalogURL    string
	Cache         catalog.Cache
	AdDuration    time.Duration
	AdTimeout     time.Duration
	Watchdog      time.Duration
	Preroll       bool
	Interstitials int
	Rewarded      int
	Banner        bool
	Metrics       ads.MetricsRecorder
}

// AdResult is the outcome of one simulated ad call
type AdResult struct {
	Kind       string `json:"kind"`
	Placement  string `json:"placement"`
	Outcome    string `json:"outcome"`
	Reward     string `json:"reward,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Report is printed at the end of a session
type Report struct {
	Platform string               `json:"platform"`
	Ads      []AdResult           `json:"ads"`
	Config   ads.AdConfigSnapshot `json:"config"`
}

// registry copies the default registry, replacing the debug factory with one
// that plays ads for duration
func registry(duration time.Duration) *ads.Registry {
	r := ads.NewRegistry()
	for _, p := range ads.DefaultRegistry.List() {
		if p == ads.PlatformDebug {
			continue
		}
		f, _ := ads.DefaultRegistry.Get(p)
		_ = r.Register(p, f)
	}
	_ = r.Register(ads.PlatformDebug, func(*ads.Environment) (ads.Strategy, error) {
		return debug.New(duration, nil), nil
	})
	return r
}

// terminal collects the single terminal callback of an ad call
type terminal struct {
	once    sync.Once
	done    chan string
	mu      sync.Mutex
	reward  string
	started time.Time
}

func newTerminal() *terminal {
	return &terminal{done: make(chan string, 1), started: time.Now()}
}

func (t *terminal) resolve(outcome string) func() {
	return func() {
		t.once.Do(func() { t.done <- outcome })
	}
}

func (t *terminal) rewardCallback(kind string) func() {
	return func() {
		t.mu.Lock()
		t.reward = kind
		t.mu.Unlock()
	}
}

func (t *terminal) wait(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case outcome := <-t.done:
		return outcome, nil
	case <-timer.C:
		return "", fmt.Errorf("no terminal callback after %s", timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (t *terminal) result(kind ads.AdKind, placement ads.Placement, outcome string) AdResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return AdResult{
		Kind:       string(kind),
		Placement:  string(placement),
		Outcome:    outcome,
		Reward:     t.reward,
		DurationMS: time.Since(t.started).Milliseconds(),
	}
}

// Run plays a scripted session and writes the report to out as JSON
func Run(ctx context.Context, opts Options, out io.Writer) (*Report, error) {
	log := logger.Log.With().Str("component", "adsim").Logger()
	if opts.AdTimeout <= 0 {
		opts.AdTimeout = 30 * time.Second
	}

	cfg := sdk.Config{
		Platform: opts.Platform,
		GameID:   opts.GameID,
		Watchdog: opts.Watchdog,
		Metrics:  opts.Metrics,
	}
	if opts.CatalogURL != "" {
		cfg.UnitSource = catalog.NewClient(opts.CatalogURL, catalog.Options{Cache: opts.Cache})
	}

	var preroll *terminal
	if opts.Preroll {
		preroll = newTerminal()
		cfg.AutoPreroll = true
		cfg.PrerollCallbacks = sdk.PrerollCallbacks{
			AfterAd: preroll.resolve(ads.OutcomeShown),
			NoFill:  preroll.resolve(ads.OutcomeNoFill),
		}
	}

	s := sdk.New(cfg, registry(opts.AdDuration))
	s.Initialize(ctx)

	report := &Report{Platform: string(s.Platform())}

	if preroll != nil && s.Config().HasPrerollShown() {
		outcome, err := preroll.wait(ctx, opts.AdTimeout)
		if err != nil {
			return nil, fmt.Errorf("preroll: %w", err)
		}
		report.Ads = append(report.Ads, preroll.result(ads.KindInterstitial, ads.PlacementPreroll, outcome))
	}

	for i := 0; i < opts.Interstitials; i++ {
		t := newTerminal()
		err := s.ShowInterstitial(ads.PlacementNext, fmt.Sprintf("level %d", i+1),
			func() {}, t.resolve(ads.OutcomeShown), t.resolve(ads.OutcomeNoFill))
		res, err := settle(ctx, t, err, ads.KindInterstitial, ads.PlacementNext, opts.AdTimeout)
		if err != nil {
			return nil, err
		}
		report.Ads = append(report.Ads, res)
	}

	for i := 0; i < opts.Rewarded; i++ {
		t := newTerminal()
		err := s.ShowRewarded(fmt.Sprintf("reward %d", i+1),
			func() {}, t.resolve(ads.OutcomeShown),
			t.rewardCallback(string(ads.EventAdDismissed)), t.rewardCallback(string(ads.EventAdViewed)),
			t.resolve(ads.OutcomeNoFill))
		res, err := settle(ctx, t, err, ads.KindRewarded, ads.PlacementReward, opts.AdTimeout)
		if err != nil {
			return nil, err
		}
		report.Ads = append(report.Ads, res)
	}

	if opts.Banner {
		res := AdResult{Kind: string(ads.KindBanner), Placement: string(ads.BannerBottom), Outcome: ads.OutcomeShown}
		if err := s.ShowBanner(true, ads.BannerBottom); err != nil {
			res.Outcome = ads.OutcomeError
			res.Error = err.Error()
		}
		report.Ads = append(report.Ads, res)
	}

	report.Config = s.Config().Snapshot()
	log.Info().
		Str("platform", report.Platform).
		Int("ads", len(report.Ads)).
		Int64("ads_shown", report.Config.AdsShown).
		Msg("Simulation finished")

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	return report, nil
}

// settle waits for the terminal callback of a dispatched call. A validation
// error means no callback runs, so it is reported without waiting. Strategy
// errors still resolve through noFill.
func settle(ctx context.Context, t *terminal, callErr error, kind ads.AdKind, placement ads.Placement, timeout time.Duration) (AdResult, error) {
	if callErr != nil {
		switch ads.ErrorCodeOf(callErr) {
		case ads.ErrorCodeInvalidParam, ads.ErrorCodeInvalidOperation, ads.ErrorCodeNotInitialized:
			res := t.result(kind, placement, "rejected")
			res.Error = callErr.Error()
			return res, nil
		}
	}

	outcome, err := t.wait(ctx, timeout)
	if err != nil {
		return AdResult{}, fmt.Errorf("%s ad: %w", kind, err)
	}
	res := t.result(kind, placement, outcome)
	if callErr != nil {
		res.Error = callErr.Error()
	}
	return res, nil
}
