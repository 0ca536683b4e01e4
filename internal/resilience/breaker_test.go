package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream failed")

func failing() (interface{}, error) { return nil, errUpstream }
func succeeding() (interface{}, error) { return "ok", nil }

func TestStaysClosedOnSuccess(t *testing.T) {
	b := New("test", Options{})

	for i := 0; i < 10; i++ {
		result, err := b.Execute(succeeding)
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestTripsAfterConsecutiveFailures(t *testing.T) {
	b := New("test", Options{
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 3 },
	})

	for i := 0; i < 3; i++ {
		_, err := b.Execute(failing)
		assert.ErrorIs(t, err, errUpstream)
	}

	assert.Equal(t, StateOpen, b.State())

	_, err := b.Execute(succeeding)
	assert.ErrorIs(t, err, ErrOpen)
}

func TestHalfOpenRecovery(t *testing.T) {
	b := New("test", Options{
		MaxRequests: 2,
		Timeout:     20 * time.Millisecond,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})

	_, err := b.Execute(failing)
	require.ErrorIs(t, err, errUpstream)
	require.Equal(t, StateOpen, b.State())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, b.State())

	// Two successful probes close the breaker.
	_, err = b.Execute(succeeding)
	require.NoError(t, err)
	_, err = b.Execute(succeeding)
	require.NoError(t, err)

	assert.Equal(t, StateClosed, b.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	b := New("test", Options{
		Timeout:     20 * time.Millisecond,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})

	_, _ = b.Execute(failing)
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	_, err := b.Execute(failing)
	assert.ErrorIs(t, err, errUpstream)
	assert.Equal(t, StateOpen, b.State())
}

func TestStateChangeCallback(t *testing.T) {
	var transitions []State
	b := New("test", Options{
		ReadyToTrip:   func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
		OnStateChange: func(_ string, _, to State) { transitions = append(transitions, to) },
	})

	_, _ = b.Execute(failing)
	require.Equal(t, []State{StateOpen}, transitions)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
}
