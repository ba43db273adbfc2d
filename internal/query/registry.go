package query

import (
	"context"
	"sync"
	"time"
)

// Registry keeps one Cache per identity scope so cached reads never cross
// users.
type Registry struct {
	mu      sync.Mutex
	caches  map[string]*Cache
	opts    Options
	idleTTL time.Duration
}

func NewRegistry(opts Options, idleTTL time.Duration) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &Registry{caches: map[string]*Cache{}, opts: opts, idleTTL: idleTTL}
}

// For returns the cache of scope, creating it on first use.
func (r *Registry) For(scope string) *Cache {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.caches[scope]
	if !ok {
		c = New(r.opts)
		r.caches[scope] = c
	}
	return c
}

// Drop forgets scope, e.g. at logout.
func (r *Registry) Drop(scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.caches, scope)
}

// Sweep drops caches idle for longer than the registry's TTL and returns how
// many were removed.
func (r *Registry) Sweep() int {
	now := r.opts.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for scope, c := range r.caches {
		if now.Sub(c.idleSince()) > r.idleTTL {
			delete(r.caches, scope)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.caches)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep()
		}
	}
}
