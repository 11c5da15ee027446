package svcman

import (
	"context"
	"errors"
	"testing"
	"time"
)

// slowBackend reports fromState until transitionAfter status queries
// have happened, then toState. It controls its own transition timing,
// which is the whole point of polling instead of sleeping.
type slowBackend struct {
	fromState       State
	toState         State
	transitionAfter int
	statusCalls     int
}

func (b *slowBackend) Status(ctx context.Context, name string) (State, error) {
	b.statusCalls++
	if b.statusCalls > b.transitionAfter {
		return b.toState, nil
	}
	return b.fromState, nil
}

func (b *slowBackend) Install(ctx context.Context, name, program string, args ...string) error {
	return nil
}
func (b *slowBackend) Remove(ctx context.Context, name string) error { return nil }
func (b *slowBackend) Set(ctx context.Context, name, property string, values ...string) error {
	return nil
}
func (b *slowBackend) Get(ctx context.Context, name, property string) (string, error) {
	return "", nil
}
func (b *slowBackend) Start(ctx context.Context, name string) error { return nil }
func (b *slowBackend) Stop(ctx context.Context, name string) error  { return nil }

func TestWaitForStateImmediate(t *testing.T) {
	b := &slowBackend{fromState: StateRunning, toState: StateRunning}

	err := WaitForState(context.Background(), b, "SCADACollector", StateRunning, time.Second)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if b.statusCalls != 1 {
		t.Fatalf("status calls = %d, want 1", b.statusCalls)
	}
}

func TestWaitForStateTransition(t *testing.T) {
	b := &slowBackend{fromState: StateStopped, toState: StateRunning, transitionAfter: 2}

	err := WaitForState(context.Background(), b, "SCADACollector", StateRunning, 5*time.Second)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if b.statusCalls < 3 {
		t.Fatalf("status calls = %d, want at least 3", b.statusCalls)
	}
}

func TestWaitForStateTimeout(t *testing.T) {
	b := &slowBackend{fromState: StateStopped, toState: StateStopped}

	err := WaitForState(context.Background(), b, "SCADACollector", StateRunning, 0)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestWaitForStateContextCancel(t *testing.T) {
	b := &slowBackend{fromState: StateStopped, toState: StateStopped}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitForState(ctx, b, "SCADACollector", StateRunning, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
