package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := New(Config{FailureThreshold: 3})

	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
	require.NoError(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestBreakerSuccessResetsStreak(t *testing.T) {
	b := New(Config{FailureThreshold: 3})

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()

	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenProbeAndClose(t *testing.T) {
	now := time.Now()
	b := New(Config{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		OpenTimeout:      10 * time.Second,
		now:              func() time.Time { return now },
	})

	b.RecordFailure()
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)

	now = now.Add(11 * time.Second)
	require.NoError(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())

	b.RecordSuccess()
	assert.Equal(t, StateHalfOpen, b.State())
	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := New(Config{
		FailureThreshold: 1,
		OpenTimeout:      10 * time.Second,
		now:              func() time.Time { return now },
	})

	b.RecordFailure()
	now = now.Add(11 * time.Second)
	require.NoError(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestBreakerStateChangeCallback(t *testing.T) {
	var transitions []string
	b := New(Config{
		FailureThreshold: 1,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, from.String()+">"+to.String())
		},
	})

	b.RecordFailure()
	assert.Equal(t, []string{"closed>open"}, transitions)
}
