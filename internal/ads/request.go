package ads

// Event is one of the canonical lifecycle events every strategy must honor
type Event string

const (
	EventBeforeAd    Event = "beforeAd"
	EventAfterAd     Event = "afterAd"
	EventNoFill      Event = "noFill"
	EventAdDismissed Event = "adDismissed"
	EventAdViewed    Event = "adViewed"
)

// Callbacks is the canonical callback set handed to a strategy.
// AdDismissed and AdViewed are nil on interstitial requests.
type Callbacks struct {
	BeforeAd    func()
	AfterAd     func()
	NoFill      func()
	AdDismissed func()
	AdViewed    func()
}

// AdRequest is a normalized show request, built per call and never persisted
type AdRequest struct {
	ID            string
	Kind          AdKind
	PlacementType Placement
	Description   string
	AdUnitID      string
	Callbacks     Callbacks
}

// IsRewarded reports whether the request carries reward callbacks
func (r *AdRequest) IsRewarded() bool {
	return r.Kind == KindRewarded
}

// Fire invokes the callback bound to ev. Missing callbacks are skipped.
func (r *AdRequest) Fire(ev Event) {
	var fn func()
	switch ev {
	case EventBeforeAd:
		fn = r.Callbacks.BeforeAd
	case EventAfterAd:
		fn = r.Callbacks.AfterAd
	case EventNoFill:
		fn = r.Callbacks.NoFill
	case EventAdDismissed:
		fn = r.Callbacks.AdDismissed
	case EventAdViewed:
		fn = r.Callbacks.AdViewed
	}
	if fn != nil {
		fn()
	}
}

// Fail resolves the request through the no-fill path. Rewarded requests are
// dismissed first so the game resumes as if the player declined.
func (r *AdRequest) Fail() {
	if r.IsRewarded() {
		r.Fire(EventAdDismissed)
	}
	r.Fire(EventNoFill)
}
