package services

import (
	"context"
	"sync"
	"time"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/principal"
)

var (
	alice = principal.SelfAuthenticating([]byte("alice"))
	bob   = principal.SelfAuthenticating([]byte("bob"))
	carol = principal.SelfAuthenticating([]byte("carol"))
)

// stubStore satisfies every store interface in this package and records
// which methods were called.
type stubStore struct {
	mu sync.Mutex

	caller   principal.Principal
	admin    bool
	adminErr error
	role     backend.UserRole
	promote  bool

	profile  *backend.UserProfile
	profiles map[principal.Principal]*backend.UserProfile
	lang     *backend.Language

	posts    []backend.CommunityPost
	verdict  backend.ContentFiltered
	checkErr error

	moods   []backend.MoodEntry
	quiz    *backend.StressQuizResponse
	therapy []backend.TherapySessionRequest

	messages    []backend.Message
	allMessages []backend.Message
	markErr     error
	marked      []uint64

	institutions []backend.Institution
	areas        []backend.AreaMonitoring
	camps        []backend.OutreachCamp
	reported     []backend.ReportedArea
	analytics    *backend.DashboardAnalytics
	listErr      error

	activeUsers []backend.ActiveUser
	appURL      string
	appURLErr   error
	revoked     map[string]time.Time

	writeErr error
	calls    []string
	last     map[string]any
}

func newStub(caller principal.Principal) *stubStore {
	return &stubStore{
		caller:   caller,
		role:     backend.RoleUser,
		verdict:  backend.ContentFiltered{Passed: true},
		profiles: map[principal.Principal]*backend.UserProfile{},
		revoked:  map[string]time.Time{},
		last:     map[string]any{},
	}
}

func (s *stubStore) record(method string, arg any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, method)
	s.last[method] = arg
}

func (s *stubStore) called(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (s *stubStore) write(method string, arg any) error {
	s.record(method, arg)
	return s.writeErr
}

func (s *stubStore) Caller() principal.Principal { return s.caller }

func (s *stubStore) IsCallerAdmin(context.Context) (bool, error) {
	s.record("isCallerAdmin", nil)
	return s.admin, s.adminErr
}

func (s *stubStore) CallerUserRole(context.Context) (backend.UserRole, error) { return s.role, nil }

func (s *stubStore) CheckAndAssignAdmin(context.Context) (bool, error) {
	s.record("checkAndAssignAdmin", nil)
	return s.promote, s.writeErr
}

func (s *stubStore) CallerUserProfile(context.Context) (*backend.UserProfile, error) {
	return s.profile, nil
}

func (s *stubStore) SaveCallerUserProfile(_ context.Context, p backend.UserProfile) error {
	return s.write("saveCallerUserProfile", p)
}

func (s *stubStore) UserProfile(_ context.Context, user principal.Principal) (*backend.UserProfile, error) {
	return s.profiles[user], nil
}

func (s *stubStore) LanguagePreference(context.Context) (*backend.Language, error) { return s.lang, nil }

func (s *stubStore) SetLanguagePreference(_ context.Context, l backend.Language) error {
	return s.write("setUserLanguagePreference", l)
}

func (s *stubStore) CommunityPosts(context.Context) ([]backend.CommunityPost, error) {
	return s.posts, s.listErr
}

func (s *stubStore) CheckContent(_ context.Context, text string) (backend.ContentFiltered, error) {
	s.record("checkContent", text)
	return s.verdict, s.checkErr
}

func (s *stubStore) CreateCommunityPost(_ context.Context, content string, anonymous bool) error {
	return s.write("createCommunityPost", []any{content, anonymous})
}

func (s *stubStore) UpdateCommunityPost(_ context.Context, id uint64, content string) error {
	return s.write("updateCommunityPost", []any{id, content})
}

func (s *stubStore) DeletePost(_ context.Context, id uint64) error {
	return s.write("deletePost", id)
}

func (s *stubStore) ModeratePost(_ context.Context, id uint64, flag bool) error {
	return s.write("moderatePost", []any{id, flag})
}

func (s *stubStore) MoodEntries(context.Context) ([]backend.MoodEntry, error) { return s.moods, nil }

func (s *stubStore) AddMoodEntry(_ context.Context, mood string) error {
	return s.write("addMoodEntry", mood)
}

func (s *stubStore) QuizResponse(context.Context) (*backend.StressQuizResponse, error) {
	return s.quiz, nil
}

func (s *stubStore) SubmitStressQuiz(_ context.Context, score uint64, responses []uint64) error {
	return s.write("submitStressQuiz", []any{score, responses})
}

func (s *stubStore) CreateTherapySessionRequest(_ context.Context, typ, details string) error {
	return s.write("createTherapySessionRequest", []any{typ, details})
}

func (s *stubStore) TherapyRequests(context.Context) ([]backend.TherapySessionRequest, error) {
	return s.therapy, nil
}

func (s *stubStore) Messages(context.Context) ([]backend.Message, error) { return s.messages, nil }

func (s *stubStore) AllMessages(context.Context) ([]backend.Message, error) {
	return s.allMessages, nil
}

func (s *stubStore) SendMessage(_ context.Context, recipient principal.Principal, content string, isSupport bool) error {
	return s.write("sendMessage", []any{recipient, content, isSupport})
}

func (s *stubStore) MarkMessageAsRead(_ context.Context, id uint64) error {
	s.record("markMessageAsRead", id)
	s.mu.Lock()
	s.marked = append(s.marked, id)
	s.mu.Unlock()
	return s.markErr
}

func (s *stubStore) Institutions(context.Context) ([]backend.Institution, error) {
	return s.institutions, s.listErr
}

func (s *stubStore) Institution(_ context.Context, id uint64) (*backend.Institution, error) {
	for i := range s.institutions {
		if s.institutions[i].ID == id {
			return &s.institutions[i], nil
		}
	}
	return nil, nil
}

func (s *stubStore) AreaMonitoring(context.Context) ([]backend.AreaMonitoring, error) {
	return s.areas, nil
}

func (s *stubStore) AreaMonitoringByRegion(_ context.Context, region string) (*backend.AreaMonitoring, error) {
	for i := range s.areas {
		if s.areas[i].RegionName == region {
			return &s.areas[i], nil
		}
	}
	return nil, nil
}

func (s *stubStore) OutreachCamps(context.Context) ([]backend.OutreachCamp, error) {
	return s.camps, nil
}

func (s *stubStore) OutreachCamp(_ context.Context, id uint64) (*backend.OutreachCamp, error) {
	for i := range s.camps {
		if s.camps[i].ID == id {
			return &s.camps[i], nil
		}
	}
	return nil, nil
}

func (s *stubStore) ReportedAreas(context.Context) ([]backend.ReportedArea, error) {
	return s.reported, nil
}

func (s *stubStore) ReportedArea(_ context.Context, region string) (*backend.ReportedArea, error) {
	for i := range s.reported {
		if s.reported[i].RegionName == region {
			return &s.reported[i], nil
		}
	}
	return nil, nil
}

func (s *stubStore) DashboardAnalytics(context.Context) (*backend.DashboardAnalytics, error) {
	return s.analytics, nil
}

func (s *stubStore) AddInstitution(_ context.Context, in backend.InstitutionInput) error {
	return s.write("addInstitution", in)
}

func (s *stubStore) UpdateInstitution(_ context.Context, id uint64, in backend.InstitutionInput) error {
	return s.write("updateInstitution", in)
}

func (s *stubStore) AddAreaMonitoring(_ context.Context, in backend.AreaMonitoringInput) error {
	return s.write("addAreaMonitoring", in)
}

func (s *stubStore) UpdateAreaMonitoring(_ context.Context, in backend.AreaMonitoringInput) error {
	return s.write("updateAreaMonitoring", in)
}

func (s *stubStore) AddOutreachCamp(_ context.Context, in backend.OutreachCampInput) error {
	return s.write("addOutreachCamp", in)
}

func (s *stubStore) UpdateOutreachCamp(_ context.Context, id uint64, in backend.OutreachCampInput) error {
	return s.write("updateOutreachCamp", in)
}

func (s *stubStore) ReportArea(_ context.Context, in backend.ReportedAreaInput) error {
	return s.write("reportArea", in)
}

func (s *stubStore) UpdateAreaCampaigns(_ context.Context, region string, campaigns []string) error {
	return s.write("updateAreaCampaigns", campaigns)
}

func (s *stubStore) ActiveUsers(context.Context) ([]backend.ActiveUser, error) {
	return s.activeUsers, nil
}

func (s *stubStore) AssignUserRole(_ context.Context, user principal.Principal, role string) error {
	return s.write("assignUserRole", role)
}

func (s *stubStore) AssignCallerUserRole(_ context.Context, user principal.Principal, role backend.UserRole) error {
	return s.write("assignCallerUserRole", role)
}

func (s *stubStore) AppURL(context.Context) (string, error) { return s.appURL, s.appURLErr }

func (s *stubStore) SetAppURL(_ context.Context, url string) error {
	return s.write("setAppUrl", url)
}

func (s *stubStore) RevokeSession(_ context.Context, jti string, _ principal.Principal, expires time.Time) error {
	s.mu.Lock()
	s.revoked[jti] = expires
	s.mu.Unlock()
	return s.writeErr
}

func (s *stubStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[jti]
	return ok, nil
}
