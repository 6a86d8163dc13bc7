package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkarev/suntrack/internal/config"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := New(config.Breaker{Threshold: 3, OpenTimeout: time.Minute, MaxHalfOpen: 1})

	require.NoError(t, b.Allow())
	b.Failure()
	b.Failure()
	require.Equal(t, Closed, b.State())
	require.NoError(t, b.Allow())

	b.Failure()
	require.Equal(t, Open, b.State())
	require.ErrorIs(t, b.Allow(), ErrOpenState)
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := New(config.Breaker{Threshold: 2, OpenTimeout: time.Minute, MaxHalfOpen: 1})

	b.Failure()
	b.Success()
	b.Failure()
	require.Equal(t, Closed, b.State(), "a success in Closed must reset the failure count")
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := New(config.Breaker{Threshold: 1, OpenTimeout: 10 * time.Millisecond, MaxHalfOpen: 1})

	b.Failure()
	require.Equal(t, Open, b.State())

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, b.Allow(), "open timeout elapsed, one probe is allowed")
	require.Equal(t, HalfOpen, b.State())
	require.ErrorIs(t, b.Allow(), ErrOpenState, "only MaxHalfOpen probes pass")

	b.Success()
	require.Equal(t, Closed, b.State())
	require.NoError(t, b.Allow())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := New(config.Breaker{Threshold: 1, OpenTimeout: 10 * time.Millisecond, MaxHalfOpen: 1})

	b.Failure()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, b.Allow())

	b.Failure()
	require.Equal(t, Open, b.State())
	require.ErrorIs(t, b.Allow(), ErrOpenState)
}
