// File: internal/browser/watcher.go
package browser

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.uber.org/zap"
)

// PollInterval is how often WaitForPushed samples the tab location.
const PollInterval = 100 * time.Millisecond

// WaitForPushed polls the tab's location until it matches pattern and returns
// the submatches (index 0 is the whole URL). History API navigations fire no
// load event, so polling is the only reliable signal.
//
// A positive timeout bounds the wait and yields *TimeoutError; zero waits
// until ctx ends.
func WaitForPushed(ctx context.Context, tab Locator, pattern *regexp.Regexp, timeout time.Duration, logger *zap.Logger) ([]string, error) {
	waitCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-waitCtx.Done():
			return nil, waitError(ctx, waitCtx, timeout)
		case <-ticker.C:
		}

		loc, err := tab.Location(waitCtx)
		if err != nil {
			if waitCtx.Err() != nil {
				return nil, waitError(ctx, waitCtx, timeout)
			}
			// The execution context is torn down mid-navigation; try again next tick.
			logger.Debug("Location unavailable, retrying.", zap.Error(err))
			continue
		}
		if matched := pattern.FindStringSubmatch(loc); matched != nil {
			return matched, nil
		}
	}
}

func waitError(parent, waitCtx context.Context, timeout time.Duration) error {
	if err := parent.Err(); err != nil {
		return err
	}
	if timeout > 0 && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Bound: timeout}
	}
	return waitCtx.Err()
}
