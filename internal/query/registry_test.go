package query

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegistryScopesAreIsolated(t *testing.T) {
	r := NewRegistry(Options{StaleTime: time.Hour}, time.Hour)
	var n int32
	_, _ = Query(context.Background(), r.For("alice"), Key{"isAdmin"}, counter(&n, "a"))
	_, _ = Query(context.Background(), r.For("bob"), Key{"isAdmin"}, counter(&n, "b"))
	assert.EqualValues(t, 2, n)
	assert.Same(t, r.For("alice"), r.For("alice"))

	r.Drop("alice")
	assert.Equal(t, 1, r.Len())
}

func TestRegistrySweepDropsIdle(t *testing.T) {
	clk := newClock()
	r := NewRegistry(Options{Now: clk.Now}, 10*time.Minute)
	r.For("old")
	clk.Advance(9 * time.Minute)
	r.For("fresh")
	clk.Advance(2 * time.Minute)

	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())
}

func TestRegistryRunStopsOnCancel(t *testing.T) {
	r := NewRegistry(Options{}, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestPollRunsImmediatelyAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var n int32
	ticked := make(chan struct{}, 16)
	done := Poll(ctx, 5*time.Millisecond, func(context.Context) {
		atomic.AddInt32(&n, 1)
		select {
		case ticked <- struct{}{}:
		default:
		}
	})
	<-ticked
	<-ticked
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
	stopped := atomic.LoadInt32(&n)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, atomic.LoadInt32(&n))
}

func TestPollWithCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var n int32
	<-Poll(ctx, time.Millisecond, func(context.Context) { atomic.AddInt32(&n, 1) })
	assert.EqualValues(t, 0, n)
}
