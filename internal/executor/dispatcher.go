package executor

import (
	"context"
	"errors"
	"time"
)

// Dispatcher invokes one intent's real side effect. The reference
// implementation (MockDispatcher) never touches the host system; a
// production wiring would swap in an implementation that talks to the
// descriptor registry's resolved application handlers.
type Dispatcher interface {
	Dispatch(ctx context.Context, actionName string) error
}

// ErrSimulatedFailure is returned by MockDispatcher for the "fail" action
// name, used to exercise the failed-status path in tests.
var ErrSimulatedFailure = errors.New("fail-simulated")

// MockDispatcher is the three-entry catalogue the executor's test matrix
// is built on: "hang" sleeps far past any plausible timeout, "fail"
// always errors, anything else succeeds after a short delay.
type MockDispatcher struct{}

func (MockDispatcher) Dispatch(ctx context.Context, actionName string) error {
	switch actionName {
	case "hang":
		select {
		case <-time.After(10 * time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	case "fail":
		return ErrSimulatedFailure
	default:
		select {
		case <-time.After(10 * time.Millisecond):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
