// Package queries wraps every actor call in a cached read or an invalidating
// write. Reads are gated on a ready actor and, where they concern the caller,
// an authenticated identity; a gated read returns its empty default without
// reaching the actor.
package queries

import (
	"context"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/principal"
	"github.com/soaringjerry/supportportal/internal/query"
)

// Client is bound to one caller for the duration of a request.
type Client struct {
	actor backend.Backend
	id    backend.Identity
	cache *query.Cache
}

// New binds actor (which may be nil while it is not ready) and cache to id.
func New(actor backend.Backend, id backend.Identity, cache *query.Cache) *Client {
	if cache == nil {
		cache = query.New(query.Options{})
	}
	return &Client{actor: actor, id: id, cache: cache}
}

func (c *Client) Identity() backend.Identity { return c.id }

func (c *Client) Caller() principal.Principal { return c.id.Principal }

// Ready reports whether an actor is bound.
func (c *Client) Ready() bool { return c.actor != nil }

func (c *Client) Cache() *query.Cache { return c.cache }

func (c *Client) enabled(userScoped bool) bool {
	if c.actor == nil {
		return false
	}
	return !userScoped || c.id.Authenticated()
}

func read[T any](ctx context.Context, c *Client, userScoped bool, key query.Key, fn func(context.Context, backend.Backend) (T, error)) (T, error) {
	var zero T
	if !c.enabled(userScoped) {
		return zero, nil
	}
	actor := c.actor
	return query.Query(ctx, c.cache, key, func(ctx context.Context) (T, error) {
		return fn(ctx, actor)
	})
}

// refresh is read for keys that are never served from cache.
func refresh[T any](ctx context.Context, c *Client, userScoped bool, key query.Key, fn func(context.Context, backend.Backend) (T, error)) (T, error) {
	var zero T
	if !c.enabled(userScoped) {
		return zero, nil
	}
	actor := c.actor
	return query.Refresh(ctx, c.cache, key, func(ctx context.Context) (T, error) {
		return fn(ctx, actor)
	})
}

func (c *Client) write(ctx context.Context, method string, fn func(context.Context, backend.Backend) error) error {
	if c.actor == nil {
		return backend.ErrActorUnavailable
	}
	actor := c.actor
	return query.Mutate(ctx, c.cache, func(ctx context.Context) error {
		noteWrite(ctx)
		return fn(ctx, actor)
	}, Invalidations[method]...)
}
