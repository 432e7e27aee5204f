// File: internal/browser/wait_test.go
package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWait(t *testing.T) {
	t.Run("sleeps for the duration", func(t *testing.T) {
		start := time.Now()
		assert.NoError(t, Wait(context.Background(), 50*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("returns early on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		start := time.Now()
		err := Wait(ctx, time.Minute)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("zero duration", func(t *testing.T) {
		assert.NoError(t, Wait(context.Background(), 0))
	})
}
