package services

import (
	"context"
	"sort"
	"strings"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/principal"
)

type AdminStore interface {
	Caller() principal.Principal
	IsCallerAdmin(ctx context.Context) (bool, error)
	CallerUserRole(ctx context.Context) (backend.UserRole, error)
	CheckAndAssignAdmin(ctx context.Context) (bool, error)
	ActiveUsers(ctx context.Context) ([]backend.ActiveUser, error)
	UserProfile(ctx context.Context, user principal.Principal) (*backend.UserProfile, error)
	AssignUserRole(ctx context.Context, user principal.Principal, role string) error
	AssignCallerUserRole(ctx context.Context, user principal.Principal, role backend.UserRole) error
	AppURL(ctx context.Context) (string, error)
	SetAppURL(ctx context.Context, url string) error
}

type AdminService struct {
	store AdminStore
}

func NewAdminService(store AdminStore) *AdminService {
	return &AdminService{store: store}
}

// Session describes the caller as the navigation bar needs it.
type Session struct {
	Principal     string           `json:"principal,omitempty"`
	Authenticated bool             `json:"authenticated"`
	IsAdmin       bool             `json:"is_admin"`
	Role          backend.UserRole `json:"role"`
}

func (s *AdminService) Session(ctx context.Context) (*Session, error) {
	caller := s.store.Caller()
	if !caller.Authenticated() {
		return &Session{Role: backend.RoleGuest}, nil
	}
	admin, err := s.store.IsCallerAdmin(ctx)
	if err != nil {
		return nil, err
	}
	role, err := s.store.CallerUserRole(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{Principal: caller.String(), Authenticated: true, IsAdmin: admin, Role: role}, nil
}

// Bootstrap runs checkAndAssignAdmin for a fresh login and reports whether
// the caller was promoted.
func (s *AdminService) Bootstrap(ctx context.Context) (bool, error) {
	if !s.store.Caller().Authenticated() {
		return false, nil
	}
	return s.store.CheckAndAssignAdmin(ctx)
}

// ActiveUser pairs an active principal with its profile when one exists.
type ActiveUser struct {
	backend.ActiveUser
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
}

// ActiveUsers lists recently active users, most recent first.
func (s *AdminService) ActiveUsers(ctx context.Context) ([]ActiveUser, error) {
	users, err := s.store.ActiveUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ActiveUser, 0, len(users))
	for _, u := range users {
		au := ActiveUser{ActiveUser: u}
		if p, err := s.store.UserProfile(ctx, u.Principal); err == nil && p != nil {
			au.Name, au.Username = p.Name, p.Username
		}
		out = append(out, au)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastSeen > out[j].LastSeen })
	return out, nil
}

func (s *AdminService) UserProfile(ctx context.Context, text string) (*backend.UserProfile, error) {
	user, err := ParsePrincipal(text)
	if err != nil {
		return nil, err
	}
	p, err := s.store.UserProfile(ctx, user)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, NewNotFoundError("Profile not found")
	}
	return p, nil
}

type RoleForm struct {
	Principal string `json:"principal"`
	Role      string `json:"role"`
}

// AssignRole assigns by principal text. An empty role defaults to "user".
func (s *AdminService) AssignRole(ctx context.Context, f RoleForm) error {
	user, err := ParsePrincipal(f.Principal)
	if err != nil {
		return err
	}
	role := strings.ToLower(strings.TrimSpace(f.Role))
	if role == "" {
		role = string(backend.RoleUser)
	}
	if !backend.UserRole(role).Valid() {
		return NewInvalidError("Unknown role " + role)
	}
	return s.store.AssignCallerUserRole(ctx, user, backend.UserRole(role))
}

// AssignRoleText forwards a free-form role type through assignUserRole.
func (s *AdminService) AssignRoleText(ctx context.Context, f RoleForm) error {
	user, err := ParsePrincipal(f.Principal)
	if err != nil {
		return err
	}
	role := strings.TrimSpace(f.Role)
	if role == "" {
		role = string(backend.RoleUser)
	}
	return s.store.AssignUserRole(ctx, user, role)
}

func (s *AdminService) SetAppURL(ctx context.Context, raw string) error {
	u, err := normalizeAppURL(raw)
	if err != nil {
		return err
	}
	return s.store.SetAppURL(ctx, u)
}
