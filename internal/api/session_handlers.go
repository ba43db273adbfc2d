package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/supportportal/internal/middleware"
	"github.com/soaringjerry/supportportal/internal/services"
)

type loginResponse struct {
	*services.AuthResult
	Promoted bool `json:"promoted"`
}

// POST /api/auth/login {assertion}
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Assertion string `json:"assertion"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	res, err := rt.authSvc.Login(r.Context(), req.Assertion)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	rt.auth.SetCookie(w, res.Token, res.ExpiresAt, rt.secureCookies)

	// The first caller to log in becomes admin; run the check once per login.
	promoted := false
	if c, err := rt.clientFor(r.Context(), res.Identity); err == nil {
		promoted, err = services.NewAdminService(c).Bootstrap(r.Context())
		if err != nil {
			rt.log.Warn("admin bootstrap failed", zap.String("principal", res.Principal), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, loginResponse{AuthResult: res, Promoted: promoted})
}

// POST /api/auth/logout
func (rt *Router) handleLogout(w http.ResponseWriter, r *http.Request) {
	s, _ := middleware.SessionFromContext(r.Context())
	err := rt.authSvc.Logout(r.Context(), s.JTI, s.Identity.Principal, s.ExpiresAt)
	rt.auth.ClearCookie(w, rt.secureCookies)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	rt.registry.Drop(cacheScope(s.Identity))
	ok(w)
}

type sessionResponse struct {
	*services.Session
	Profile    *services.ProfileStatus `json:"profile"`
	ExpiresAt  *time.Time              `json:"expires_at,omitempty"`
	Locale     string                  `json:"locale"`
	PublicURL  string                  `json:"public_url"`
	ActorReady bool                    `json:"actor_ready"`
}

// GET /api/session
func (rt *Router) handleSession(w http.ResponseWriter, r *http.Request) {
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	sess, err := services.NewAdminService(c).Session(r.Context())
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	status, err := services.NewProfileService(c).Status(r.Context())
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	out := sessionResponse{
		Session:    sess,
		Profile:    status,
		Locale:     middleware.LocaleFromContext(r.Context()),
		PublicURL:  rt.publicURL,
		ActorReady: c.Ready(),
	}
	if s, ok := middleware.SessionFromContext(r.Context()); ok && !s.ExpiresAt.IsZero() {
		out.ExpiresAt = &s.ExpiresAt
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/profile
func (rt *Router) handleProfile(w http.ResponseWriter, r *http.Request) {
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	status, err := services.NewProfileService(c).Status(r.Context())
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// POST /api/profile
func (rt *Router) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var form services.ProfileForm
	if err := decodeJSON(w, r, &form); err != nil {
		rt.writeError(w, r, services.ActionSaveProfile, err)
		return
	}
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionSaveProfile, err)
		return
	}
	var saved any
	if !rt.mutate(w, r, services.ActionSaveProfile, "saveCallerUserProfile", "", func() error {
		p, err := services.NewProfileService(c).Save(r.Context(), form)
		saved = p
		return err
	}) {
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// GET /api/profile/language
func (rt *Router) handleLanguage(w http.ResponseWriter, r *http.Request) {
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	lang, err := services.NewProfileService(c).Language(r.Context())
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"language": lang})
}

// PUT /api/profile/language {language}
func (rt *Router) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Language string `json:"language"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, services.ActionSetLanguage, err)
		return
	}
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionSetLanguage, err)
		return
	}
	if rt.mutate(w, r, services.ActionSetLanguage, "setUserLanguagePreference", req.Language, func() error {
		return services.NewProfileService(c).SetLanguage(r.Context(), req.Language)
	}) {
		ok(w)
	}
}

// GET /api/guidelines
func (rt *Router) handleGuidelines(w http.ResponseWriter, r *http.Request) {
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	g, err := c.CommunityGuidelines(r.Context())
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// GET /api/users/{principal}/profile
func (rt *Router) handleUserProfile(w http.ResponseWriter, r *http.Request) {
	c, err := rt.client(r)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	p, err := services.NewAdminService(c).UserProfile(r.Context(), r.PathValue("principal"))
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
