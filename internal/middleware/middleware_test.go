package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/principal"
)

var alice = backend.Identity{Principal: principal.SelfAuthenticating([]byte("alice")), Delegation: "d1"}

type revokedSet map[string]bool

func (r revokedSet) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "broken" {
		return false, errors.New("db down")
	}
	return r[jti], nil
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(IdentityFromContext(r.Context()).Principal.String()))
	})
}

func TestDeriveKey(t *testing.T) {
	k1, err := DeriveKey("secret")
	require.NoError(t, err)
	k2, _ := DeriveKey("secret")
	k3, _ := DeriveKey("other")
	assert.Len(t, k1, 32)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)

	_, err = DeriveKey("")
	assert.Error(t, err)
}

func TestSignAndParse(t *testing.T) {
	a, err := NewAuthenticator("secret", "", nil, nil)
	require.NoError(t, err)
	tok, err := a.SignToken(alice, "jti-1", time.Hour)
	require.NoError(t, err)

	s, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, alice, s.Identity)
	assert.Equal(t, "jti-1", s.JTI)
	assert.False(t, s.ExpiresAt.IsZero())

	other, _ := NewAuthenticator("other-secret", "", nil, nil)
	_, err = other.Parse(tok)
	assert.Error(t, err, "a different secret must not verify")

	expired, _ := a.SignToken(alice, "jti-2", -time.Minute)
	_, err = a.Parse(expired)
	assert.Error(t, err)
}

func TestWithAuth(t *testing.T) {
	a, err := NewAuthenticator("secret", "sess", revokedSet{"gone": true}, nil)
	require.NoError(t, err)
	h := a.WithAuth(echoIdentity())

	serve := func(mod func(*http.Request)) string {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		mod(req)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Body.String()
	}
	anon := principal.Anonymous.String()

	good, _ := a.SignToken(alice, "ok", time.Hour)
	assert.Equal(t, alice.Principal.String(), serve(func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+good) }))
	assert.Equal(t, alice.Principal.String(), serve(func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "sess", Value: good}) }))
	assert.Equal(t, anon, serve(func(*http.Request) {}))
	assert.Equal(t, anon, serve(func(r *http.Request) { r.Header.Set("Authorization", "Bearer junk") }))

	gone, _ := a.SignToken(alice, "gone", time.Hour)
	assert.Equal(t, anon, serve(func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+gone) }))
	broken, _ := a.SignToken(alice, "broken", time.Hour)
	assert.Equal(t, anon, serve(func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+broken) }))
}

func TestRequireAuth(t *testing.T) {
	h := RequireAuth(echoIdentity())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithSession(req.Context(), Session{Identity: alice}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLocaleMiddleware(t *testing.T) {
	var got string
	h := LocaleMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LocaleFromContext(r.Context())
	}))
	cases := []struct {
		url, cookie, accept, want string
	}{
		{"/", "", "", "en"},
		{"/?lang=hindi", "", "fr", "hi"},
		{"/", "es", "fr", "es"},
		{"/", "", "de-DE,fr;q=0.8", "fr"},
		{"/?lang=xx", "", "", "en"},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, c.url, nil)
		if c.cookie != "" {
			req.AddCookie(&http.Cookie{Name: "lang", Value: c.cookie})
		}
		if c.accept != "" {
			req.Header.Set("Accept-Language", c.accept)
		}
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, c.want, got, c.url)
	}
	assert.Equal(t, "en", LocaleFromContext(context.Background()))
}

func TestRequestLog(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	a, _ := NewAuthenticator("secret", "", nil, nil)
	tok, _ := a.SignToken(alice, "j", time.Hour)

	var seen string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}), RequestLog(zap.New(core)), a.WithAuth)

	req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.Equal(t, alice.Principal.String(), fields["principal"])
	assert.Equal(t, seen, fields["request_id"])

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "3f1c0a4e-8b1d-4c55-9d44-0d6f1e3b9a10")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "3f1c0a4e-8b1d-4c55-9d44-0d6f1e3b9a10", seen)
}

func TestHeartbeatThrottles(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	hb := NewHeartbeat(time.Minute, func(context.Context, backend.Identity) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	}, nil)
	now := time.Unix(1_700_000_000, 0)
	hb.now = func() time.Time { return now }

	ctx := context.Background()
	hb.Beat(ctx, alice)
	hb.Beat(ctx, alice)
	hb.Beat(ctx, backend.Identity{Principal: principal.Anonymous})
	assert.Equal(t, 1, calls)

	now = now.Add(61 * time.Second)
	hb.Beat(ctx, alice)
	assert.Equal(t, 2, calls)

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, hb.Forget())
}

func TestHeartbeatMiddleware(t *testing.T) {
	var got []backend.Identity
	hb := NewHeartbeat(time.Minute, func(_ context.Context, id backend.Identity) error {
		got = append(got, id)
		return errors.New("actor unavailable")
	}, nil)
	h := hb.Middleware(echoIdentity())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, got)

	req = req.WithContext(WithSession(req.Context(), Session{Identity: alice}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, []backend.Identity{alice}, got)
	assert.Equal(t, http.StatusOK, rec.Code, "heartbeat failures never fail the request")
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://portal.example"})(echoIdentity())
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://portal.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://portal.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	CORS(nil)(echoIdentity()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	Chain(echoIdentity(), SecureHeaders, NoStore).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
}
