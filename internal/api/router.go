package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/logging"
	"github.com/soaringjerry/supportportal/internal/middleware"
	"github.com/soaringjerry/supportportal/internal/queries"
	"github.com/soaringjerry/supportportal/internal/query"
	"github.com/soaringjerry/supportportal/internal/services"
	"github.com/soaringjerry/supportportal/internal/views"
)

type Options struct {
	Connector backend.Connector
	Store     Store
	Auth      *middleware.Authenticator
	Verifier  services.IdentityVerifier
	Registry  *query.Registry
	Views     *views.Renderer
	Log       *zap.Logger

	PublicURL      string
	SessionTTL     time.Duration
	SecureCookies  bool
	AllowedOrigins []string

	MessagesPoll    time.Duration
	ActiveUsersPoll time.Duration
	Heartbeat       time.Duration
	MarkReadWindow  time.Duration
}

type Router struct {
	connector backend.Connector
	store     Store
	auth      *middleware.Authenticator
	authSvc   *services.AuthService
	registry  *query.Registry
	views     *views.Renderer
	marker    *services.ReadMarker
	heartbeat *middleware.Heartbeat
	upgrader  websocket.Upgrader

	log     *zap.Logger
	liveLog *zap.Logger
	msgLog  *zap.Logger

	publicURL       string
	secureCookies   bool
	allowedOrigins  []string
	messagesPoll    time.Duration
	activeUsersPoll time.Duration

	// background tracks detached work (mark-as-read, live sessions) so
	// shutdown and tests can wait for it.
	background sync.WaitGroup
	bgMu       sync.Mutex
	closed     bool
	liveCtx    context.Context
	stopLive   context.CancelFunc
}

func NewRouter(opts Options) (*Router, error) {
	if opts.Connector == nil {
		return nil, errors.New("api: connector is required")
	}
	if opts.Auth == nil {
		return nil, errors.New("api: authenticator is required")
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Store == nil {
		opts.Store = newMemoryStore()
	}
	if opts.Registry == nil {
		opts.Registry = query.NewRegistry(query.Options{}, 0)
	}
	if opts.Views == nil {
		v, err := views.New()
		if err != nil {
			return nil, err
		}
		opts.Views = v
	}
	if opts.MessagesPoll <= 0 {
		opts.MessagesPoll = 5 * time.Second
	}
	if opts.ActiveUsersPoll <= 0 {
		opts.ActiveUsersPoll = 30 * time.Second
	}
	rt := &Router{
		connector:       opts.Connector,
		store:           opts.Store,
		auth:            opts.Auth,
		registry:        opts.Registry,
		views:           opts.Views,
		log:             logging.For(opts.Log, logging.CategoryHTTP),
		liveLog:         logging.For(opts.Log, logging.CategoryLive),
		msgLog:          logging.For(opts.Log, logging.CategoryMessages),
		publicURL:       opts.PublicURL,
		secureCookies:   opts.SecureCookies,
		allowedOrigins:  opts.AllowedOrigins,
		messagesPoll:    opts.MessagesPoll,
		activeUsersPoll: opts.ActiveUsersPoll,
	}
	rt.liveCtx, rt.stopLive = context.WithCancel(context.Background())
	rt.marker = services.NewReadMarker(opts.MarkReadWindow, rt.msgLog)
	rt.authSvc = services.NewAuthService(opts.Verifier, opts.Store, opts.Auth.SignToken, opts.SessionTTL)
	rt.heartbeat = middleware.NewHeartbeat(opts.Heartbeat, rt.touch, logging.For(opts.Log, logging.CategoryBackend))
	rt.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     rt.checkOrigin,
	}
	return rt, nil
}

func (rt *Router) Register(mux *http.ServeMux) {
	// session
	mux.HandleFunc("POST /api/auth/login", rt.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", rt.handleLogout)
	mux.HandleFunc("GET /api/session", rt.handleSession)

	// profile
	mux.HandleFunc("GET /api/profile", rt.handleProfile)
	mux.HandleFunc("POST /api/profile", rt.handleSaveProfile)
	mux.HandleFunc("GET /api/profile/language", rt.handleLanguage)
	mux.HandleFunc("PUT /api/profile/language", rt.handleSetLanguage)
	mux.HandleFunc("GET /api/guidelines", rt.handleGuidelines)
	mux.HandleFunc("GET /api/users/{principal}/profile", rt.handleUserProfile)

	// community
	mux.HandleFunc("GET /api/community/posts", rt.handleFeed)
	mux.HandleFunc("POST /api/community/posts", rt.handleCreatePost)
	mux.HandleFunc("PUT /api/community/posts/{id}", rt.handleEditPost)
	mux.HandleFunc("DELETE /api/community/posts/{id}", rt.handleDeletePost)
	mux.HandleFunc("POST /api/community/posts/{id}/moderate", rt.handleModeratePost)

	// wellbeing
	mux.HandleFunc("GET /api/mood", rt.handleMoodHistory)
	mux.HandleFunc("POST /api/mood", rt.handleRecordMood)
	mux.HandleFunc("GET /api/mood/export", rt.handleMoodExport)
	mux.HandleFunc("GET /api/quiz", rt.handleQuiz)
	mux.HandleFunc("POST /api/quiz", rt.handleSubmitQuiz)
	mux.HandleFunc("GET /api/therapy/types", rt.handleTherapyTypes)
	mux.HandleFunc("GET /api/therapy", rt.handleTherapyRequests)
	mux.HandleFunc("POST /api/therapy", rt.handleRequestTherapy)
	mux.HandleFunc("GET /api/resources", rt.handleResources)

	// messaging
	mux.HandleFunc("GET /api/messages", rt.handleInbox)
	mux.HandleFunc("GET /api/messages/all", rt.handleAdminInbox)
	mux.HandleFunc("GET /api/messages/conversations/{principal}", rt.handleConversation)
	mux.HandleFunc("POST /api/messages", rt.handleSendMessage)

	// outreach
	mux.HandleFunc("GET /api/outreach/dashboard", rt.handleDashboard)
	mux.HandleFunc("GET /api/outreach/map", rt.handleMap)
	mux.HandleFunc("POST /api/outreach/institutions", rt.handleAddInstitution)
	mux.HandleFunc("GET /api/outreach/institutions/{id}", rt.handleInstitution)
	mux.HandleFunc("PUT /api/outreach/institutions/{id}", rt.handleUpdateInstitution)
	mux.HandleFunc("POST /api/outreach/areas", rt.handleAddArea)
	mux.HandleFunc("GET /api/outreach/areas/{region}", rt.handleArea)
	mux.HandleFunc("PUT /api/outreach/areas/{region}", rt.handleUpdateArea)
	mux.HandleFunc("POST /api/outreach/camps", rt.handleAddCamp)
	mux.HandleFunc("GET /api/outreach/camps/{id}", rt.handleCamp)
	mux.HandleFunc("PUT /api/outreach/camps/{id}", rt.handleUpdateCamp)
	mux.HandleFunc("GET /api/outreach/reported", rt.handleReportedAreas)
	mux.HandleFunc("POST /api/outreach/reported", rt.handleReportArea)
	mux.HandleFunc("GET /api/outreach/reported/{region}", rt.handleReportedArea)
	mux.HandleFunc("PUT /api/outreach/reported/{region}/campaigns", rt.handleUpdateCampaigns)
	mux.HandleFunc("GET /api/outreach/export/{kind}", rt.handleOutreachExport)

	// admin
	mux.HandleFunc("GET /api/admin/active-users", rt.handleActiveUsers)
	mux.HandleFunc("POST /api/admin/roles", rt.handleAssignRole)
	mux.HandleFunc("GET /api/admin/therapy", rt.handleTherapyRequests)
	mux.HandleFunc("GET /api/admin/audit", rt.handleAudit)
	mux.HandleFunc("GET /api/app-url", rt.handleAppURL)
	mux.HandleFunc("PUT /api/admin/app-url", rt.handleSetAppURL)

	// rendered fragments
	mux.HandleFunc("GET /ui/community", rt.handleCommunityPage)
	mux.HandleFunc("POST /ui/community/posts", rt.handleUICreatePost)
	mux.HandleFunc("GET /ui/community/posts/{id}/edit", rt.handleUIEditForm)
	mux.HandleFunc("POST /ui/community/posts/{id}/edit", rt.handleUIEditPost)
	mux.HandleFunc("POST /ui/community/posts/{id}/delete", rt.handleUIDeletePost)
	mux.HandleFunc("POST /ui/community/posts/{id}/moderate", rt.handleUIModeratePost)
	mux.HandleFunc("GET /ui/community/posts/{id}", rt.handleUIPostCard)
	mux.HandleFunc("POST /ui/profile", rt.handleUISaveProfile)

	mux.HandleFunc("GET /ws/live", rt.handleLive)
}

// Wrap applies the portal middleware stack, outermost first.
func (rt *Router) Wrap(h http.Handler) http.Handler {
	return middleware.Chain(h,
		middleware.RequestLog(rt.log),
		middleware.SecureHeaders,
		middleware.CORS(rt.allowedOrigins),
		middleware.NoStore,
		middleware.LocaleMiddleware,
		rt.auth.WithAuth,
		rt.heartbeat.Middleware,
		trackWrites,
	)
}

// Handler is Register plus Wrap on a fresh mux.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	rt.Register(mux)
	return rt.Wrap(mux)
}

// Wait blocks until detached work started by handlers has finished.
func (rt *Router) Wait() { rt.background.Wait() }

// Close ends live sessions, which http.Server.Shutdown does not track once
// hijacked, and waits for all detached work.
func (rt *Router) Close() {
	rt.bgMu.Lock()
	rt.closed = true
	rt.stopLive()
	rt.bgMu.Unlock()
	rt.background.Wait()
}

// track registers background work. It is false once Close has begun, so no
// Add can race the final Wait.
func (rt *Router) track() bool {
	rt.bgMu.Lock()
	defer rt.bgMu.Unlock()
	if rt.closed {
		return false
	}
	rt.background.Add(1)
	return true
}

// Heartbeat exposes the activity throttle so the server can prune it.
func (rt *Router) Heartbeat() *middleware.Heartbeat { return rt.heartbeat }

func (rt *Router) Ping(ctx context.Context) error { return rt.store.Ping(ctx) }

// clientFor binds a query client to id. An actor that is not ready yet yields
// a client whose reads return defaults and whose writes fail with
// backend.ErrActorUnavailable.
func (rt *Router) clientFor(ctx context.Context, id backend.Identity) (*queries.Client, error) {
	actor, err := rt.connector.Actor(ctx, id)
	if err != nil {
		if !errors.Is(err, backend.ErrActorUnavailable) {
			return nil, fmt.Errorf("connect actor: %w", err)
		}
		actor = nil
	}
	return queries.New(actor, id, rt.registry.For(cacheScope(id))), nil
}

func (rt *Router) client(r *http.Request) (*queries.Client, error) {
	return rt.clientFor(r.Context(), middleware.IdentityFromContext(r.Context()))
}

func cacheScope(id backend.Identity) string { return id.Principal.String() }

func (rt *Router) touch(ctx context.Context, id backend.Identity) error {
	c, err := rt.clientFor(ctx, id)
	if err != nil {
		return err
	}
	return c.UpdateUserActivity(ctx)
}

// detach runs fn after the request has returned, bounded by timeout.
func (rt *Router) detach(ctx context.Context, timeout time.Duration, fn func(context.Context)) {
	if !rt.track() {
		return
	}
	go func() {
		defer rt.background.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		fn(ctx)
	}()
}
