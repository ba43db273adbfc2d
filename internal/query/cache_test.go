package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *clock { return &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)} }

func counter(n *int32, v string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		atomic.AddInt32(n, 1)
		return v, nil
	}
}

func TestKeyPrefix(t *testing.T) {
	k := Key{"messages", "abc"}
	assert.True(t, k.HasPrefix(Key{"messages"}))
	assert.True(t, k.HasPrefix(k))
	assert.False(t, k.HasPrefix(Key{"message"}))
	assert.False(t, Key{"messages"}.HasPrefix(k))
	assert.NotEqual(t, Key{"a", "b"}.String(), Key{"a b"}.String())
}

func TestQueryCachesUntilStale(t *testing.T) {
	clk := newClock()
	c := New(Options{StaleTime: time.Minute, Now: clk.Now})
	ctx := context.Background()
	var n int32

	for i := 0; i < 3; i++ {
		v, err := Query(ctx, c, Key{"posts"}, counter(&n, "x"))
		require.NoError(t, err)
		assert.Equal(t, "x", v)
	}
	assert.EqualValues(t, 1, n)

	clk.Advance(2 * time.Minute)
	_, err := Query(ctx, c, Key{"posts"}, counter(&n, "x"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestInvalidatePrefix(t *testing.T) {
	c := New(Options{StaleTime: time.Hour})
	ctx := context.Background()
	var a, b, other int32
	_, _ = Query(ctx, c, Key{"messages", "alice"}, counter(&a, "a"))
	_, _ = Query(ctx, c, Key{"messages", "bob"}, counter(&b, "b"))
	_, _ = Query(ctx, c, Key{"moodEntries"}, counter(&other, "m"))

	c.Invalidate(Key{"messages"})
	assert.True(t, c.Stale(Key{"messages", "alice"}))
	assert.False(t, c.Stale(Key{"moodEntries"}))

	_, _ = Query(ctx, c, Key{"messages", "alice"}, counter(&a, "a"))
	_, _ = Query(ctx, c, Key{"messages", "bob"}, counter(&b, "b"))
	_, _ = Query(ctx, c, Key{"moodEntries"}, counter(&other, "m"))
	assert.EqualValues(t, 2, a)
	assert.EqualValues(t, 2, b)
	assert.EqualValues(t, 1, other)

	v, ok := c.Peek(Key{"messages", "alice"})
	assert.True(t, ok)
	assert.Equal(t, "a", v)
}

func TestConcurrentFetchSharesOneCall(t *testing.T) {
	c := New(Options{})
	release := make(chan struct{})
	var n int32
	fn := func(context.Context) (int, error) {
		atomic.AddInt32(&n, 1)
		<-release
		return 7, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Query(context.Background(), c, Key{"isAdmin"}, fn)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, n)
	for _, v := range results {
		assert.Equal(t, 7, v)
	}
}

func TestInvalidateDuringFetchLeavesResultStale(t *testing.T) {
	c := New(Options{StaleTime: time.Hour})
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = Query(context.Background(), c, Key{"communityPosts"}, func(context.Context) (string, error) {
			close(started)
			<-release
			return "old", nil
		})
	}()
	<-started
	c.Invalidate(Key{"communityPosts"})
	close(release)
	<-done

	assert.True(t, c.Stale(Key{"communityPosts"}))
}

func TestErrorsAreNotCached(t *testing.T) {
	c := New(Options{})
	boom := errors.New("boom")
	var n int32
	fail := func(context.Context) (string, error) {
		atomic.AddInt32(&n, 1)
		return "", boom
	}
	_, err := Query(context.Background(), c, Key{"x"}, fail)
	assert.ErrorIs(t, err, boom)
	_, err = Query(context.Background(), c, Key{"x"}, fail)
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, 0, c.Len())
}

func TestRefreshBypassesFreshEntry(t *testing.T) {
	c := New(Options{StaleTime: time.Hour})
	var n int32
	_, _ = Query(context.Background(), c, Key{"allMessages"}, counter(&n, "v"))
	_, _ = Refresh(context.Background(), c, Key{"allMessages"}, counter(&n, "v"))
	assert.EqualValues(t, 2, n)
}

func TestMutateInvalidatesOnlyOnSuccess(t *testing.T) {
	c := New(Options{StaleTime: time.Hour})
	var n int32
	_, _ = Query(context.Background(), c, Key{"institutions"}, counter(&n, "v"))

	err := Mutate(context.Background(), c, func(context.Context) error { return errors.New("rejected") }, Key{"institutions"})
	require.Error(t, err)
	assert.False(t, c.Stale(Key{"institutions"}))

	require.NoError(t, Mutate(context.Background(), c, func(context.Context) error { return nil }, Key{"institutions"}))
	assert.True(t, c.Stale(Key{"institutions"}))
}

func TestTypeMismatch(t *testing.T) {
	c := New(Options{})
	_, _ = Query(context.Background(), c, Key{"k"}, func(context.Context) (string, error) { return "s", nil })
	_, err := Query(context.Background(), c, Key{"k"}, func(context.Context) (int, error) { return 1, nil })
	assert.Error(t, err)
}

func TestReadAfterWriteStartsNewFetch(t *testing.T) {
	c := New(Options{StaleTime: time.Hour})
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan string)
	go func() {
		v, _ := Query(context.Background(), c, Key{"communityPosts"}, func(context.Context) (string, error) {
			close(started)
			<-release
			return "before-write", nil
		})
		done <- v
	}()
	<-started

	require.NoError(t, Mutate(context.Background(), c, func(context.Context) error { return nil }, Key{"communityPosts"}))
	v, err := Query(context.Background(), c, Key{"communityPosts"}, func(context.Context) (string, error) {
		return "after-write", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "after-write", v)

	close(release)
	assert.Equal(t, "before-write", <-done)

	// The earlier fetch finishing late does not clobber the newer value.
	got, ok := c.Peek(Key{"communityPosts"})
	require.True(t, ok)
	assert.Equal(t, "after-write", got)
	assert.False(t, c.Stale(Key{"communityPosts"}))
}

func TestCancelledCallerDoesNotCancelSharedFetch(t *testing.T) {
	c := New(Options{})
	started := make(chan struct{})
	release := make(chan struct{})
	fn := func(ctx context.Context) (string, error) {
		select {
		case <-started:
		default:
			close(started)
		}
		select {
		case <-release:
			return "shared", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error)
	go func() {
		_, err := Query(first, c, Key{"isAdmin"}, fn)
		firstErr <- err
	}()
	<-started

	second := make(chan error)
	var got string
	go func() {
		v, err := Query(context.Background(), c, Key{"isAdmin"}, fn)
		got = v
		second <- err
	}()

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)
	close(release)
	require.NoError(t, <-second)
	assert.Equal(t, "shared", got)
}
