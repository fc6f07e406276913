package ads

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Strategy is a platform-specific implementation of ad display. The request
// callbacks are already wrapped by the orchestrator: a strategy fires them as
// vendor events arrive, on any goroutine, and never touches the guard or the
// AdConfig counters.
type Strategy interface {
	// ShowBanner shows or hides a banner at position
	ShowBanner(ctx context.Context, shouldShow bool, position BannerPosition) error

	// ShowInterstitial starts an interstitial. Returning an error resolves the
	// request through the noFill path.
	ShowInterstitial(ctx context.Context, req *AdRequest) error

	// ShowRewarded starts a rewarded ad. Returning an error resolves the
	// request through the dismissed + noFill path.
	ShowRewarded(ctx context.Context, req *AdRequest) error
}

// AdBlockDetector is implemented by strategies that can detect an ad blocker
type AdBlockDetector interface {
	DetectAdBlock(ctx context.Context) (bool, error)
}

// UnitSourceProvider is implemented by strategies whose vendor SDK reports
// ad unit IDs directly instead of the catalog endpoint
type UnitSourceProvider interface {
	UnitSource() UnitSource
}

// Environment carries what a strategy factory needs to bind to its vendor
type Environment struct {
	// Globals holds vendor SDK objects by their global name, e.g. "PokiSDK"
	Globals map[string]any

	// Config is the session ad configuration
	Config *AdConfig
}

// Global returns the vendor object registered under name
func (e *Environment) Global(name string) (any, bool) {
	if e == nil || e.Globals == nil {
		return nil, false
	}
	v, ok := e.Globals[name]
	return v, ok && v != nil
}

// LookupGlobal returns the global name as a T. The error names the global so
// strategy factories can return it directly.
func LookupGlobal[T any](env *Environment, name string) (T, error) {
	var zero T
	v, ok := env.Global(name)
	if !ok {
		return zero, fmt.Errorf("vendor global %q not found", name)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("vendor global %q has unexpected type %T", name, v)
	}
	return t, nil
}

// StrategyFactory builds the strategy for a platform
type StrategyFactory func(env *Environment) (Strategy, error)

// Registry maps platforms to strategy factories
type Registry struct {
	mu        sync.RWMutex
	factories map[Platform]StrategyFactory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Platform]StrategyFactory)}
}

// DefaultRegistry is populated by the adapter packages' init functions
var DefaultRegistry = NewRegistry()

// Register adds a factory for platform
func (r *Registry) Register(platform Platform, factory StrategyFactory) error {
	if factory == nil {
		return fmt.Errorf("nil strategy factory for platform %s", platform)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[platform]; exists {
		return fmt.Errorf("strategy already registered for platform %s", platform)
	}
	r.factories[platform] = factory
	return nil
}

// Get returns the factory for platform
func (r *Registry) Get(platform Platform) (StrategyFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[platform]
	return f, ok
}

// List returns the registered platforms, sorted
func (r *Registry) List() []Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Platform, 0, len(r.factories))
	for p := range r.factories {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Build resolves and runs the factory for platform
func (r *Registry) Build(platform Platform, env *Environment) (Strategy, error) {
	f, ok := r.Get(platform)
	if !ok {
		return nil, fmt.Errorf("no strategy registered for platform %s", platform)
	}
	s, err := f(env)
	if err != nil {
		return nil, fmt.Errorf("build %s strategy: %w", platform, err)
	}
	return s, nil
}

// RegisterStrategy adds a factory to DefaultRegistry
func RegisterStrategy(platform Platform, factory StrategyFactory) error {
	return DefaultRegistry.Register(platform, factory)
}
