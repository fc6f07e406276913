package catalog

import (
	"errors"
	"sync"
	"time"
)

// State is a circuit breaker state. Values are exported as the
// catalog_circuit_breaker_state gauge.
type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Failing, rejecting requests
	StateHalfOpen              // Probing whether the endpoint recovered
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrCircuitOpen is returned when the breaker rejects a call
var ErrCircuitOpen = errors.New("catalog circuit breaker is open")

// BreakerConfig holds circuit breaker configuration
type BreakerConfig struct {
	FailureThreshold int           // Consecutive failures before opening
	SuccessThreshold int           // Half-open successes before closing
	Cooldown         time.Duration // Time spent open before probing
	OnStateChange    func(from, to State)
}

// DefaultBreakerConfig returns the defaults used by NewClient
func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Cooldown:         30 * time.Second,
	}
}

// BreakerStats is a point-in-time view of the breaker
type BreakerStats struct {
	State       string `json:"state"`
	Requests    int64  `json:"total_requests"`
	Failures    int64  `json:"total_failures"`
	Rejected    int64  `json:"total_rejected"`
	Consecutive int    `json:"current_failures"`
}

// Breaker guards the catalog endpoint. Only one probe is admitted while
// half-open.
type Breaker struct {
	config *BreakerConfig
	now    func() time.Time

	mu          sync.Mutex
	state       State
	consecutive int
	successes   int
	openedAt    time.Time
	probing     bool

	requests int64
	failures int64
	rejected int64
}

// NewBreaker creates a closed breaker. A nil config uses DefaultBreakerConfig.
func NewBreaker(config *BreakerConfig) *Breaker {
	if config == nil {
		config = DefaultBreakerConfig()
	}
	return &Breaker{config: config, now: time.Now, state: StateClosed}
}

// Execute runs fn unless the breaker is open
func (b *Breaker) Execute(fn func() error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests++
	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.config.Cooldown {
			b.rejected++
			return ErrCircuitOpen
		}
		b.transition(StateHalfOpen)
		b.probing = true
	case StateHalfOpen:
		if b.probing {
			b.rejected++
			return ErrCircuitOpen
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if err != nil {
		b.failures++
		b.consecutive++
		if b.state == StateHalfOpen || b.consecutive >= b.config.FailureThreshold {
			b.openedAt = b.now()
			b.transition(StateOpen)
		}
		return
	}

	b.consecutive = 0
	if b.state == StateHalfOpen {
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.transition(StateClosed)
		}
	}
}

// transition must be called with mu held. OnStateChange runs synchronously,
// so it must not call back into the breaker.
func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	b.successes = 0
	if b.config.OnStateChange != nil {
		b.config.OnStateChange(from, to)
	}
}

// State returns the current state
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns breaker statistics
func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerStats{
		State:       b.state.String(),
		Requests:    b.requests,
		Failures:    b.failures,
		Rejected:    b.rejected,
		Consecutive: b.consecutive,
	}
}

// Reset closes the breaker and clears the failure count
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(StateClosed)
	b.consecutive = 0
	b.probing = false
}
