// Package query is a small keyed cache for remote reads. Reads are cached per
// key until they go stale or are invalidated by a write; concurrent reads of
// the same key share one fetch.
package query

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultStaleTime applies when Options.StaleTime is zero.
const DefaultStaleTime = 30 * time.Second

// DefaultFetchTimeout bounds a shared fetch, which outlives any one caller.
const DefaultFetchTimeout = 30 * time.Second

// Key identifies a cached read, e.g. Key{"messages", "<principal>"}.
type Key []string

func (k Key) String() string { return strings.Join(k, "\x1f") }

// HasPrefix reports whether k starts with every element of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

type Options struct {
	StaleTime    time.Duration
	FetchTimeout time.Duration
	Now          func() time.Time
}

type entry struct {
	key       Key
	value     any
	fetchedAt time.Time
	stale     bool
}

type flight struct {
	key   Key
	dirty bool
}

// Cache holds fetched values for one identity scope.
type Cache struct {
	mu           sync.Mutex
	entries      map[string]*entry
	inflight     map[string]*flight
	group        singleflight.Group
	staleTime    time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
	lastUsed     time.Time
}

func New(opts Options) *Cache {
	if opts.StaleTime <= 0 {
		opts.StaleTime = DefaultStaleTime
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		entries:      map[string]*entry{},
		inflight:     map[string]*flight{},
		staleTime:    opts.StaleTime,
		fetchTimeout: opts.FetchTimeout,
		now:          opts.Now,
		lastUsed:     opts.Now(),
	}
}

// Fetch returns the cached value for key when it is fresh; otherwise it runs
// fn, shared with any concurrent Fetch of the same key.
func (c *Cache) Fetch(ctx context.Context, key Key, fn func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	c.lastUsed = c.now()
	if e, ok := c.entries[key.String()]; ok && c.fresh(e) {
		v := e.value
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()
	return c.load(ctx, key, fn)
}

// Refetch always reaches fn unless a fetch of key is already in flight.
func (c *Cache) Refetch(ctx context.Context, key Key, fn func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	c.lastUsed = c.now()
	c.mu.Unlock()
	return c.load(ctx, key, fn)
}

func (c *Cache) fresh(e *entry) bool {
	return !e.stale && c.now().Sub(e.fetchedAt) < c.staleTime
}

func (c *Cache) load(ctx context.Context, key Key, fn func(context.Context) (any, error)) (any, error) {
	k := key.String()
	ch := c.group.DoChan(k, func() (any, error) {
		c.mu.Lock()
		fl := &flight{key: append(Key(nil), key...)}
		c.inflight[k] = fl
		c.mu.Unlock()

		// The fetch is shared, so one caller going away must not cancel it.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		v, err := fn(fctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.inflight[k] == fl {
			delete(c.inflight, k)
		}
		if err != nil {
			return nil, err
		}
		// An invalidation that raced the fetch leaves the result stale, and it
		// never replaces a value fetched after the invalidation.
		if fl.dirty {
			if e, ok := c.entries[k]; ok && !e.stale {
				return v, nil
			}
		}
		c.entries[k] = &entry{key: fl.key, value: v, fetchedAt: c.now(), stale: fl.dirty}
		return v, nil
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate marks every entry under any of the prefixes stale. Fetches already
// in flight for those keys are detached so the next read starts a new one.
func (c *Cache) Invalidate(prefixes ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range prefixes {
		for _, e := range c.entries {
			if e.key.HasPrefix(p) {
				e.stale = true
			}
		}
		for k, fl := range c.inflight {
			if fl.key.HasPrefix(p) {
				fl.dirty = true
				c.group.Forget(k)
				delete(c.inflight, k)
			}
		}
	}
}

// Peek returns the cached value regardless of freshness.
func (c *Cache) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Stale reports whether key is missing, expired or invalidated.
func (c *Cache) Stale(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	return !ok || !c.fresh(e)
}

// Len is the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

// Query is the typed form of Cache.Fetch.
func Query[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error)) (T, error) {
	return typed[T](c.Fetch(ctx, key, erase(fn)))
}

// Refresh is the typed form of Cache.Refetch.
func Refresh[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error)) (T, error) {
	return typed[T](c.Refetch(ctx, key, erase(fn)))
}

func erase[T any](fn func(context.Context) (T, error)) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) { return fn(ctx) }
}

func typed[T any](v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("query: cached %T, want %T", v, zero)
	}
	return t, nil
}

// Mutate runs one write and, on success, invalidates the given keys.
func Mutate(ctx context.Context, c *Cache, fn func(context.Context) error, invalidates ...Key) error {
	if err := fn(ctx); err != nil {
		return err
	}
	if c != nil && len(invalidates) > 0 {
		c.Invalidate(invalidates...)
	}
	return nil
}
