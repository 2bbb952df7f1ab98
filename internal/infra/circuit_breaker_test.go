package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Hour)
	boom := errors.New("smtp down")

	for i := 0; i < 3; i++ {
		err := cb.Call(func() error { return boom })
		require.ErrorIs(t, err, boom)
	}

	calls := 0
	err := cb.Call(func() error { calls++; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Zero(t, calls, "open breaker must not invoke the function")
}

func TestCircuitBreaker_SuccessResets(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Hour)
	boom := errors.New("smtp down")

	require.Error(t, cb.Call(func() error { return boom }))
	require.Error(t, cb.Call(func() error { return boom }))
	require.NoError(t, cb.Call(func() error { return nil }))

	// Counter reset: two more failures still keep the breaker closed.
	require.Error(t, cb.Call(func() error { return boom }))
	require.Error(t, cb.Call(func() error { return boom }))
	assert.NoError(t, cb.Call(func() error { return nil }))
}

func TestCircuitBreaker_ProbesAfterCooldown(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)
	require.Error(t, cb.Call(func() error { return errors.New("boom") }))
	require.ErrorIs(t, cb.Call(func() error { return nil }), ErrCircuitOpen)

	time.Sleep(20 * time.Millisecond)
	assert.NoError(t, cb.Call(func() error { return nil }))
}
