package ads

import "time"

// Outcomes reported to MetricsRecorder
const (
	OutcomeShown   = "shown"
	OutcomeNoFill  = "no_fill"
	OutcomeBlocked = "blocked"
	OutcomeTimeout = "timeout"
	OutcomeError   = "error"
)

// MetricsRecorder receives ad lifecycle metrics
type MetricsRecorder interface {
	RecordAdRequest(platform, kind, placement string)
	RecordAdOutcome(platform, kind, outcome string, duration time.Duration)
	RecordAdRejected(kind, code string)
	SetAdInFlight(inFlight bool)
}

type nopMetrics struct{}

func (nopMetrics) RecordAdRequest(string, string, string)                {}
func (nopMetrics) RecordAdOutcome(string, string, string, time.Duration) {}
func (nopMetrics) RecordAdRejected(string, string)                       {}
func (nopMetrics) SetAdInFlight(bool)                                    {}

// NopMetrics returns a recorder that discards everything
func NopMetrics() MetricsRecorder {
	return nopMetrics{}
}
