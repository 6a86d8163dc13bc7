package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/mkarev/suntrack/internal/config"
)

// Do runs fn up to policy.Attempts times with exponential backoff and
// jitter. It returns nil on the first success, the last error otherwise, or
// ctx.Err() if the context ends while waiting.
func Do(ctx context.Context, policy config.Retry, fn func() error) error {
	d := policy.Base
	var err error

	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < policy.Attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}

		delay := d
		if policy.JitterFactor > 0 {
			jitter := 1 + policy.JitterFactor*(2*r.Float64()-1)
			delay = time.Duration(float64(delay) * jitter)
		}
		if policy.Max > 0 && delay > policy.Max {
			delay = policy.Max
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		d *= 2
		if policy.Max > 0 && d > policy.Max {
			d = policy.Max
		}
	}
	return err
}
