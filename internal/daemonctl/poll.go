package daemonctl

import (
	"context"
	"errors"
	"time"
)

const pollInterval = 200 * time.Millisecond

var errPollTimeout = errors.New("timed out")

// pollUntil calls check every pollInterval until it reports done, returns an
// error, ctx ends or timeout elapses. The last non-nil hint is wrapped into
// the timeout error.
func pollUntil(ctx context.Context, timeout time.Duration, check func() (done bool, hint error)) error {
	deadline := time.Now().Add(timeout)
	var hint error
	for {
		done, h := check()
		if done {
			return nil
		}
		if h != nil {
			hint = h
		}
		if !time.Now().Add(pollInterval).Before(deadline) {
			if hint != nil {
				return errors.Join(errPollTimeout, hint)
			}
			return errPollTimeout
		}
		timer := time.NewTimer(pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
