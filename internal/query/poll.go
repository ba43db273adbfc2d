package query

import (
	"context"
	"time"
)

// Poll calls fn immediately and then on every tick until ctx is cancelled.
// The returned channel is closed once the poller has stopped.
func Poll(ctx context.Context, every time.Duration, fn func(context.Context)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if ctx.Err() != nil {
			return
		}
		fn(ctx)
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				fn(ctx)
			}
		}
	}()
	return done
}
