package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/supportportal/internal/backend"
)

// TouchFunc records activity for id with the actor.
type TouchFunc func(ctx context.Context, id backend.Identity) error

// Heartbeat forwards activity for authenticated callers at most once per
// interval per principal.
type Heartbeat struct {
	mu    sync.Mutex
	last  map[string]time.Time
	every time.Duration
	touch TouchFunc
	now   func() time.Time
	log   *zap.Logger
}

func NewHeartbeat(every time.Duration, touch TouchFunc, log *zap.Logger) *Heartbeat {
	if every <= 0 {
		every = time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Heartbeat{last: map[string]time.Time{}, every: every, touch: touch, now: time.Now, log: log}
}

// due claims the slot for key when the previous beat is older than the
// interval.
func (h *Heartbeat) due(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	if last, ok := h.last[key]; ok && now.Sub(last) < h.every {
		return false
	}
	h.last[key] = now
	return true
}

// Beat touches id when a beat is due. Failures are logged, never returned.
func (h *Heartbeat) Beat(ctx context.Context, id backend.Identity) {
	if h.touch == nil || !id.Authenticated() {
		return
	}
	key := id.Principal.String()
	if !h.due(key) {
		return
	}
	if err := h.touch(ctx, id); err != nil {
		h.log.Debug("activity heartbeat failed", zap.String("principal", key), zap.Error(err))
	}
}

// Forget drops entries older than twice the interval and returns how many.
func (h *Heartbeat) Forget() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	cutoff := h.now().Add(-2 * h.every)
	n := 0
	for k, t := range h.last {
		if t.Before(cutoff) {
			delete(h.last, k)
			n++
		}
	}
	return n
}

func (h *Heartbeat) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s, ok := SessionFromContext(r.Context()); ok {
			h.Beat(r.Context(), s.Identity)
		}
		next.ServeHTTP(w, r)
	})
}
