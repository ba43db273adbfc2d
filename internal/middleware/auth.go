package middleware

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/principal"
)

type authCtxKey int

const authKey authCtxKey = 7

const (
	tokenIssuer = "support-portal"
	keyInfo     = "portal session signing key v1"
)

type Claims struct {
	Principal  string `json:"prn"`
	Delegation string `json:"dlg,omitempty"`
	jwt.RegisteredClaims
}

// Session is what WithAuth attaches to a request carrying a valid token.
type Session struct {
	Identity  backend.Identity
	JTI       string
	ExpiresAt time.Time
}

// RevocationChecker reports whether a token id was logged out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Authenticator struct {
	key     []byte
	cookie  string
	revoked RevocationChecker
	log     *zap.Logger
	now     func() time.Time
}

// DeriveKey stretches the configured secret into an HS256 key.
func DeriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, errors.New("session secret is empty")
	}
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), []byte(tokenIssuer), []byte(keyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	return key, nil
}

// NewAuthenticator builds the token signer/parser. revoked may be nil, in
// which case logout only clears the cookie.
func NewAuthenticator(secret, cookieName string, revoked RevocationChecker, log *zap.Logger) (*Authenticator, error) {
	key, err := DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	if cookieName == "" {
		cookieName = "portal_session"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Authenticator{key: key, cookie: cookieName, revoked: revoked, log: log, now: time.Now}, nil
}

func (a *Authenticator) CookieName() string { return a.cookie }

// SignToken issues a session token for id. It matches services.TokenSigner.
func (a *Authenticator) SignToken(id backend.Identity, jti string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := Claims{
		Principal:  id.Principal.String(),
		Delegation: id.Delegation,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    tokenIssuer,
			Subject:   id.Principal.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.key)
}

func (a *Authenticator) parseToken(tok string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tok, &Claims{}, func(token *jwt.Token) (interface{}, error) { return a.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

// Parse validates tok and returns the session it carries.
func (a *Authenticator) Parse(tok string) (Session, error) {
	c, err := a.parseToken(tok)
	if err != nil {
		return Session{}, err
	}
	p, err := principal.Parse(c.Principal)
	if err != nil {
		return Session{}, fmt.Errorf("token principal: %w", err)
	}
	s := Session{Identity: backend.Identity{Principal: p, Delegation: c.Delegation}, JTI: c.ID}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s, nil
}

func (a *Authenticator) tokenFrom(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(a.cookie); err == nil {
		return c.Value
	}
	return ""
}

// WithAuth attaches the session to the context when the request carries a
// valid, unrevoked token. Requests without one continue as anonymous.
func (a *Authenticator) WithAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := a.tokenFrom(r)
		if tok == "" {
			next.ServeHTTP(w, r)
			return
		}
		s, err := a.Parse(tok)
		if err != nil {
			a.log.Debug("ignoring session token", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if a.revoked != nil && s.JTI != "" {
			revoked, err := a.revoked.IsRevoked(r.Context(), s.JTI)
			if err != nil {
				a.log.Warn("revocation check failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if revoked {
				next.ServeHTTP(w, r)
				return
			}
		}
		notePrincipal(r.Context(), s.Identity.Principal.String())
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// SetCookie stores token in the session cookie.
func (a *Authenticator) SetCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *Authenticator) ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, authKey, s)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(authKey).(Session)
	return s, ok
}

// IdentityFromContext returns the caller's identity, anonymous when the
// request carries no session.
func IdentityFromContext(ctx context.Context) backend.Identity {
	if s, ok := SessionFromContext(ctx); ok {
		return s.Identity
	}
	return backend.Identity{Principal: principal.Anonymous}
}
