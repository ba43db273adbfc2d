package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/principal"
)

// ErrVerificationFailed is returned by verifiers that reject an assertion.
var ErrVerificationFailed = errors.New("identity verification failed")

// IdentityVerifier turns an external login assertion into an identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, assertion string) (backend.Identity, error)
}

// SessionStore remembers revoked session tokens until they expire.
type SessionStore interface {
	RevokeSession(ctx context.Context, jti string, caller principal.Principal, expires time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type TokenSigner func(id backend.Identity, jti string, ttl time.Duration) (string, error)

type AuthService struct {
	verifier  IdentityVerifier
	store     SessionStore
	now       func() time.Time
	idGen     func() string
	signToken TokenSigner
	tokenTTL  time.Duration
}

type AuthResult struct {
	Token     string    `json:"token"`
	Principal string    `json:"principal"`
	ExpiresAt time.Time `json:"expires_at"`
	// Identity is the verified caller, for follow-up calls made on its behalf.
	Identity backend.Identity `json:"-"`
}

func NewAuthService(verifier IdentityVerifier, store SessionStore, signer TokenSigner, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &AuthService{
		verifier:  verifier,
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     uuid.NewString,
		signToken: signer,
		tokenTTL:  ttl,
	}
}

// Login verifies assertion and issues a session token for the identity.
func (s *AuthService) Login(ctx context.Context, assertion string) (*AuthResult, error) {
	if strings.TrimSpace(assertion) == "" {
		return nil, NewInvalidError("login assertion required")
	}
	if s.verifier == nil || s.signToken == nil {
		return nil, NewInvalidError("login is not configured")
	}
	id, err := s.verifier.Verify(ctx, strings.TrimSpace(assertion))
	if err != nil {
		if errors.Is(err, ErrVerificationFailed) {
			return nil, NewUnauthorizedError("Login failed. Please try again.")
		}
		return nil, err
	}
	if !id.Authenticated() {
		return nil, NewUnauthorizedError("Login failed. Please try again.")
	}
	token, err := s.signToken(id, s.idGen(), s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Principal: id.Principal.String(), ExpiresAt: s.now().Add(s.tokenTTL), Identity: id}, nil
}

// Logout revokes the session with token id jti. Revoking twice is harmless.
func (s *AuthService) Logout(ctx context.Context, jti string, caller principal.Principal, expires time.Time) error {
	if jti == "" {
		return NewUnauthorizedError("not logged in")
	}
	if s.store == nil {
		return nil
	}
	return s.store.RevokeSession(ctx, jti, caller, expires)
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}
