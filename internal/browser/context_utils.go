// File: internal/browser/context_utils.go
package browser

import (
	"context"
	"time"
)

// CombineContext returns a context carrying the values of primary (the chromedp
// tab or browser context) that is canceled when either primary or secondary is.
func CombineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)
	if deadline, ok := secondary.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		combined, cancelDeadline = context.WithDeadline(combined, deadline)
		inner := cancel
		cancel = func() {
			cancelDeadline()
			inner()
		}
	}

	go func() {
		select {
		case <-secondary.Done():
			cancel()
		case <-combined.Done():
		}
	}()
	return combined, cancel
}

// valueOnlyContext keeps the parent's values but drops its deadline and cancellation.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }
func (valueOnlyContext) Done() <-chan struct{}                   { return nil }
func (valueOnlyContext) Err() error                              { return nil }

// Detach returns a context that outlives ctx. Cleanup paths use it to close
// tabs after the operation context has already been canceled.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
