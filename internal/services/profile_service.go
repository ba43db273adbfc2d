package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/principal"
)

const (
	MinAge = 13
	MaxAge = 120
)

type ProfileStore interface {
	Caller() principal.Principal
	CallerUserProfile(ctx context.Context) (*backend.UserProfile, error)
	SaveCallerUserProfile(ctx context.Context, p backend.UserProfile) error
	LanguagePreference(ctx context.Context) (*backend.Language, error)
	SetLanguagePreference(ctx context.Context, lang backend.Language) error
}

type ProfileService struct {
	store ProfileStore
}

func NewProfileService(store ProfileStore) *ProfileService {
	return &ProfileService{store: store}
}

// ProfileForm is the setup dialog as submitted. Age stays text so that an
// unparsable value is reported the same way as an out-of-range one.
type ProfileForm struct {
	Email              string `json:"email"`
	Name               string `json:"name"`
	Age                string `json:"age"`
	Username           string `json:"username"`
	AgreedToGuidelines bool   `json:"agreed_to_guidelines"`
	Language           string `json:"language,omitempty"`
}

type ProfileStatus struct {
	Profile       *backend.UserProfile `json:"profile"`
	SetupRequired bool                 `json:"setup_required"`
}

// Status reports the caller's profile and whether the setup dialog must be shown.
func (s *ProfileService) Status(ctx context.Context) (*ProfileStatus, error) {
	if !s.store.Caller().Authenticated() {
		return &ProfileStatus{}, nil
	}
	p, err := s.store.CallerUserProfile(ctx)
	if err != nil {
		return nil, err
	}
	return &ProfileStatus{Profile: p, SetupRequired: p == nil}, nil
}

// ValidateProfile checks a setup form without touching the actor.
func ValidateProfile(f ProfileForm) (*backend.UserProfile, error) {
	email := strings.TrimSpace(f.Email)
	name := strings.TrimSpace(f.Name)
	username := strings.TrimSpace(f.Username)
	age := strings.TrimSpace(f.Age)
	if email == "" || name == "" || age == "" || username == "" {
		return nil, NewInvalidError("Please fill in all fields")
	}
	if !f.AgreedToGuidelines {
		return nil, NewInvalidError("Please agree to the community guidelines")
	}
	n, err := strconv.Atoi(age)
	if err != nil || n < MinAge || n > MaxAge {
		return nil, NewInvalidError("Please enter a valid age")
	}
	p := &backend.UserProfile{Email: email, Name: name, Age: uint64(n), Username: username}
	if f.Language != "" {
		lang := backend.Language(strings.ToLower(f.Language))
		if !lang.Valid() {
			return nil, NewInvalidError("Unsupported language")
		}
		p.LanguagePreference = &lang
	}
	return p, nil
}

func (s *ProfileService) Save(ctx context.Context, f ProfileForm) (*backend.UserProfile, error) {
	if !s.store.Caller().Authenticated() {
		return nil, NewUnauthorizedError("Please login to create your profile")
	}
	p, err := ValidateProfile(f)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveCallerUserProfile(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProfileService) Language(ctx context.Context) (*backend.Language, error) {
	return s.store.LanguagePreference(ctx)
}

func (s *ProfileService) SetLanguage(ctx context.Context, lang string) error {
	if !s.store.Caller().Authenticated() {
		return NewUnauthorizedError("Please login to set your language")
	}
	l := backend.Language(strings.ToLower(strings.TrimSpace(lang)))
	if !l.Valid() {
		return NewInvalidError("Unsupported language")
	}
	return s.store.SetLanguagePreference(ctx, l)
}
