// Package circuitbreaker shields the risk oracle and ledger clients from
// a collaborator that is hard down. Persistent fail-closed denials caused
// by a dead oracle are cheaper to serve from an open breaker than from a
// timing-out HTTP call.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Allow while the breaker is rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the breaker's position.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
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

// Config configures a breaker. Zero values take the defaults noted.
type Config struct {
	FailureThreshold int           // consecutive failures before opening (5)
	SuccessThreshold int           // half-open successes before closing (2)
	OpenTimeout      time.Duration // open duration before probing (30s)
	OnStateChange    func(from, to State)

	// now is overridable in tests.
	now func() time.Time
}

// Breaker is a consecutive-failure circuit breaker. All methods are
// safe for concurrent use.
type Breaker struct {
	mu        sync.Mutex
	cfg       Config
	state     State
	failures  int
	successes int
	openedAt  time.Time
}

func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return &Breaker{cfg: cfg, state: StateClosed}
}

// Allow reports whether a call may proceed. An open breaker whose
// timeout has elapsed moves to half-open and admits the call as a probe.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.cfg.now().Sub(b.openedAt) > b.cfg.OpenTimeout {
			b.transition(StateHalfOpen)
			return nil
		}
		return ErrCircuitOpen
	}
	return nil
}

// RecordSuccess resets the failure streak. In half-open, enough
// successes close the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state != StateHalfOpen {
		return
	}
	b.successes++
	if b.successes >= b.cfg.SuccessThreshold {
		b.transition(StateClosed)
	}
}

// RecordFailure extends the failure streak. A half-open probe failure
// reopens immediately; a closed breaker opens once the streak reaches
// the threshold.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.successes = 0
	switch {
	case b.state == StateHalfOpen:
		b.transition(StateOpen)
	case b.state == StateClosed && b.failures >= b.cfg.FailureThreshold:
		b.transition(StateOpen)
	}
}

// State returns the current position, applying the open-to-half-open
// timeout transition first.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.cfg.now().Sub(b.openedAt) > b.cfg.OpenTimeout {
		b.transition(StateHalfOpen)
	}
	return b.state
}

// transition requires b.mu held.
func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.successes = 0
	if to == StateOpen {
		b.openedAt = b.cfg.now()
	}
	if to == StateClosed {
		b.failures = 0
	}
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}
