package ads

import (
	"sync"
	"time"
)

// flight tracks one dispatched request between guard acquire and its terminal
// event. Vendor callbacks may arrive on any goroutine and in any order; flight
// drops the ones that would break the canonical sequence and runs game
// callbacks outside its lock.
type flight struct {
	o    *Orchestrator
	kind AdKind
	user Callbacks

	mu       sync.Mutex
	started  bool
	resolved bool
	done     bool
	begin    time.Time
	watchdog *time.Timer
}

func newFlight(o *Orchestrator, kind AdKind, user Callbacks) *flight {
	return &flight{o: o, kind: kind, user: user, begin: time.Now()}
}

// callbacks returns the wrapped set handed to the strategy
func (f *flight) callbacks() Callbacks {
	cb := Callbacks{
		BeforeAd: f.beforeAd,
		AfterAd:  func() { f.terminal(EventAfterAd, OutcomeShown) },
		NoFill:   func() { f.terminal(EventNoFill, OutcomeNoFill) },
	}
	if f.kind == KindRewarded {
		cb.AdDismissed = func() { f.reward(EventAdDismissed) }
		cb.AdViewed = func() { f.reward(EventAdViewed) }
	}
	return cb
}

func (f *flight) armWatchdog(d time.Duration) {
	if d <= 0 {
		return
	}
	f.mu.Lock()
	f.watchdog = time.AfterFunc(d, func() {
		if f.terminal(EventNoFill, OutcomeTimeout) {
			f.o.log.Warn().
				Str("kind", string(f.kind)).
				Dur("watchdog", d).
				Msg("Ad request timed out waiting for the platform. Resolving as no fill.")
		}
	})
	f.mu.Unlock()
}

func (f *flight) beforeAd() {
	f.mu.Lock()
	if f.done || f.started {
		f.mu.Unlock()
		return
	}
	f.started = true
	f.mu.Unlock()

	f.o.log.Debug().Str("kind", string(f.kind)).Msg("BeforeAd")
	call(f.user.BeforeAd)
}

func (f *flight) reward(ev Event) {
	f.mu.Lock()
	if f.done || f.resolved {
		f.mu.Unlock()
		return
	}
	f.resolved = true
	f.mu.Unlock()

	f.o.log.Debug().Str("kind", string(f.kind)).Msg(string(ev))
	if ev == EventAdViewed {
		call(f.user.AdViewed)
	} else {
		call(f.user.AdDismissed)
	}
}

// terminal ends the request with afterAd or noFill. It reports whether this
// call was the one that ended it.
func (f *flight) terminal(ev Event, outcome string) bool {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return false
	}
	f.done = true
	if f.watchdog != nil {
		f.watchdog.Stop()
	}
	dismiss := f.kind == KindRewarded && !f.resolved
	f.resolved = true
	elapsed := time.Since(f.begin)
	f.mu.Unlock()

	f.o.session.Release()
	f.o.metrics.SetAdInFlight(false)
	f.o.metrics.RecordAdOutcome(string(f.o.platform), string(f.kind), outcome, elapsed)
	if ev == EventAfterAd {
		f.o.config.adShown()
	}
	f.o.log.Debug().
		Str("kind", string(f.kind)).
		Str("outcome", outcome).
		Dur("duration", elapsed).
		Msg(string(ev))

	if dismiss {
		call(f.user.AdDismissed)
	}
	if ev == EventAfterAd {
		call(f.user.AfterAd)
	} else {
		call(f.user.NoFill)
	}
	return true
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
