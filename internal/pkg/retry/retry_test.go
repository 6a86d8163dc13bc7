package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkarev/suntrack/internal/config"
)

func policy(attempts int) config.Retry {
	return config.Retry{Attempts: attempts, Base: time.Millisecond, Max: 5 * time.Millisecond, JitterFactor: 0.2}
}

func TestDoFirstTrySuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), policy(3), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), policy(5), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestDoReturnsLastError(t *testing.T) {
	last := errors.New("still failing")
	calls := 0
	err := Do(context.Background(), policy(3), func() error {
		calls++
		return last
	})
	require.ErrorIs(t, err, last)
	require.Equal(t, 3, calls)
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, config.Retry{Attempts: 10, Base: time.Hour}, func() error {
		calls++
		cancel()
		return errors.New("fail then cancel")
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}
