package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
)

// WaitReady polls hc once per second until it reports healthy or timeout elapses.
func WaitReady(ctx context.Context, hc HealthChecker, timeout time.Duration) error {
	attempts := uint(timeout.Seconds())
	if attempts == 0 {
		attempts = 1
	}
	err := retry.Do(
		func() error {
			return hc.HealthCheck(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(1*time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("backend not ready after %s: %w", timeout, err)
	}
	return nil
}
