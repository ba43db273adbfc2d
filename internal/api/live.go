package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/soaringjerry/supportportal/internal/middleware"
	"github.com/soaringjerry/supportportal/internal/queries"
	"github.com/soaringjerry/supportportal/internal/query"
	"github.com/soaringjerry/supportportal/internal/services"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Clients only send pongs and close frames.
	maxLiveMessage = 512
)

// Live event types.
const (
	EventInbox       = "inbox"
	EventAdminInbox  = "admin_inbox"
	EventActiveUsers = "active_users"
	EventError       = "error"
)

type liveEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// liveFeed pushes one event type to the socket, skipping polls whose payload
// did not change since the last send.
type liveFeed struct {
	kind string
	out  chan<- []byte
	last []byte
}

func (f *liveFeed) push(ctx context.Context, data any) {
	b, err := json.Marshal(liveEvent{Type: f.kind, Data: data})
	if err != nil {
		return
	}
	if bytes.Equal(b, f.last) {
		return
	}
	select {
	case f.out <- b:
		f.last = b
	case <-ctx.Done():
	}
}

// GET /ws/live
//
// Streams the caller's inbox every messagesPoll. Admins also get the full
// message view and the active user list. The polls refresh the same cache
// the JSON endpoints read, so both stay in step.
func (rt *Router) handleLive(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromContext(r.Context())
	if !id.Principal.Authenticated() {
		rt.writeError(w, r, services.ActionLoad, services.NewUnauthorizedError("Please login to access your messages"))
		return
	}
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	admin, _ := c.IsCallerAdmin(r.Context())

	if !rt.track() {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	defer rt.background.Done()

	conn, err := rt.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already answered.
		rt.liveLog.Debug("upgrade failed", zap.Error(err))
		return
	}

	log := rt.liveLog.With(zap.Stringer("principal", id.Principal), zap.Bool("admin", admin))
	log.Info("live session opened")

	ctx, cancel := context.WithCancel(rt.liveCtx)
	defer cancel()

	out := make(chan []byte, 8)
	var polls []<-chan struct{}
	polls = append(polls, rt.pollInbox(ctx, c, out, log))
	if admin {
		polls = append(polls, rt.pollAdmin(ctx, c, out, log)...)
	}

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer cancel()
		readLive(conn)
	}()

	err = writeLive(ctx, conn, out)
	cancel()
	_ = conn.Close()
	<-readDone
	for _, done := range polls {
		<-done
	}
	if err != nil {
		log.Debug("live session write ended", zap.Error(err))
	}
	log.Info("live session closed")
}

func (rt *Router) pollInbox(ctx context.Context, c *queries.Client, out chan<- []byte, log *zap.Logger) <-chan struct{} {
	svc := services.NewMessagingService(c, rt.marker)
	feed := &liveFeed{kind: EventInbox, out: out}
	return query.Poll(ctx, rt.messagesPoll, func(ctx context.Context) {
		if _, err := c.RefreshMessages(ctx); err != nil {
			rt.liveError(ctx, out, log, err)
			return
		}
		inbox, err := svc.Inbox(ctx)
		if err != nil {
			rt.liveError(ctx, out, log, err)
			return
		}
		feed.push(ctx, inbox)
	})
}

func (rt *Router) pollAdmin(ctx context.Context, c *queries.Client, out chan<- []byte, log *zap.Logger) []<-chan struct{} {
	svc := services.NewMessagingService(c, rt.marker)
	admin := services.NewAdminService(c)
	all := &liveFeed{kind: EventAdminInbox, out: out}
	active := &liveFeed{kind: EventActiveUsers, out: out}
	return []<-chan struct{}{
		query.Poll(ctx, rt.messagesPoll, func(ctx context.Context) {
			if _, err := c.RefreshAllMessages(ctx); err != nil {
				rt.liveError(ctx, out, log, err)
				return
			}
			inbox, err := svc.AdminInbox(ctx)
			if err != nil {
				rt.liveError(ctx, out, log, err)
				return
			}
			all.push(ctx, inbox)
		}),
		query.Poll(ctx, rt.activeUsersPoll, func(ctx context.Context) {
			if _, err := c.RefreshActiveUsers(ctx); err != nil {
				rt.liveError(ctx, out, log, err)
				return
			}
			users, err := admin.ActiveUsers(ctx)
			if err != nil {
				rt.liveError(ctx, out, log, err)
				return
			}
			active.push(ctx, users)
		}),
	}
}

// liveError reports a failed poll to the client; the next tick retries.
func (rt *Router) liveError(ctx context.Context, out chan<- []byte, log *zap.Logger, err error) {
	if ctx.Err() != nil {
		return
	}
	log.Warn("live poll failed", zap.Error(err))
	b, _ := json.Marshal(liveEvent{Type: EventError, Data: errorBody{Error: err.Error(), Toast: services.Toast(services.ActionLoad, err)}})
	select {
	case out <- b:
	case <-ctx.Done():
	}
}

// readLive drains the socket so pongs and close frames are handled. It returns
// when the peer goes away or the connection is closed.
func readLive(conn *websocket.Conn) {
	conn.SetReadLimit(maxLiveMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLive is the only writer on conn.
func writeLive(ctx context.Context, conn *websocket.Conn, out <-chan []byte) error {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return nil
		case b := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return err
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// checkOrigin admits same-host pages and the configured origins.
func (rt *Router) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, o := range rt.allowedOrigins {
		if strings.EqualFold(strings.TrimRight(o, "/"), origin) {
			return true
		}
	}
	return false
}
