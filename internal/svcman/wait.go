package svcman

import (
	"context"
	"fmt"
	"time"
)

const pollInterval = 250 * time.Millisecond

// WaitForState polls the backend until the service reaches the wanted
// state or the timeout elapses. Status errors during the window are
// tolerated and polling continues; the final error is ErrTimeout
// (wrapped) so callers can distinguish "never settled" from hard
// backend failures.
func WaitForState(ctx context.Context, b Backend, name string, want State, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		st, err := b.Status(ctx, name)
		if err == nil && st == want {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("service %s did not reach %s within %s: %w", name, want, timeout, ErrTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
