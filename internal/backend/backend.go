// Package backend is the portal's view of the remote actor. Every piece of
// authoritative state lives behind Backend; the portal only reads, writes and
// reshapes what it returns.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/soaringjerry/supportportal/internal/principal"
)

// ErrActorUnavailable is returned when a call is attempted before an actor
// has been created for the caller.
var ErrActorUnavailable = errors.New("Actor not available")

// RemoteError is a rejection reported by the actor. Message is kept verbatim.
type RemoteError struct {
	Method  string
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// IsRemote reports whether err carries an actor rejection.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// Identity is who an actor speaks for.
type Identity struct {
	Principal  principal.Principal
	Delegation string
}

// Authenticated reports whether the identity belongs to a logged-in caller.
func (id Identity) Authenticated() bool { return id.Principal.Authenticated() }

// Connector hands out actors bound to an identity.
type Connector interface {
	Actor(ctx context.Context, id Identity) (Backend, error)
}

// Backend mirrors the remote actor's interface one method per call.
type Backend interface {
	// profile
	GetCallerUserProfile(ctx context.Context) (*UserProfile, error)
	SaveCallerUserProfile(ctx context.Context, profile UserProfile) error
	GetUserProfile(ctx context.Context, user principal.Principal) (*UserProfile, error)
	GetUserLanguagePreference(ctx context.Context) (*Language, error)
	SetUserLanguagePreference(ctx context.Context, lang Language) error

	// roles
	IsCallerAdmin(ctx context.Context) (bool, error)
	CheckAndAssignAdmin(ctx context.Context) (bool, error)
	GetCallerUserRole(ctx context.Context) (UserRole, error)
	AssignCallerUserRole(ctx context.Context, user principal.Principal, role UserRole) error
	AssignUserRole(ctx context.Context, user principal.Principal, role string) error

	// community
	CheckContent(ctx context.Context, text string) (ContentFiltered, error)
	CreateCommunityPost(ctx context.Context, content string, anonymous bool) error
	UpdateCommunityPost(ctx context.Context, postID uint64, content string) error
	DeletePost(ctx context.Context, postID uint64) error
	ModeratePost(ctx context.Context, postID uint64, flag bool) error
	GetAllCommunityPosts(ctx context.Context) ([]CommunityPost, error)
	GetCommunityGuidelines(ctx context.Context) (CommunityGuidelines, error)

	// wellbeing
	AddMoodEntry(ctx context.Context, mood string) error
	GetUserMoodEntries(ctx context.Context, user principal.Principal) ([]MoodEntry, error)
	SubmitStressQuiz(ctx context.Context, score uint64, responses []uint64) error
	GetUserQuizResponse(ctx context.Context, user principal.Principal) (*StressQuizResponse, error)
	CreateTherapySessionRequest(ctx context.Context, typeRequest, details string) error
	GetAllTherapyRequests(ctx context.Context) ([]TherapySessionRequest, error)

	// messaging
	SendMessage(ctx context.Context, recipient principal.Principal, content string, isSupport bool) error
	GetMessagesByUser(ctx context.Context, user principal.Principal) ([]Message, error)
	GetAllMessages(ctx context.Context) ([]Message, error)
	MarkMessageAsRead(ctx context.Context, messageID uint64) error
	GetUserConversations(ctx context.Context, user principal.Principal) ([]uint64, error)
	GetAdminConversations(ctx context.Context) ([]Conversation, error)

	// outreach
	AddInstitution(ctx context.Context, in InstitutionInput) error
	UpdateInstitution(ctx context.Context, id uint64, in InstitutionInput) error
	GetAllInstitutions(ctx context.Context) ([]Institution, error)
	GetInstitutionByID(ctx context.Context, id uint64) (*Institution, error)
	AddAreaMonitoring(ctx context.Context, in AreaMonitoringInput) error
	UpdateAreaMonitoring(ctx context.Context, in AreaMonitoringInput) error
	GetAllAreaMonitoring(ctx context.Context) ([]AreaMonitoring, error)
	GetAreaMonitoringByRegion(ctx context.Context, region string) (*AreaMonitoring, error)
	AddOutreachCamp(ctx context.Context, in OutreachCampInput) error
	UpdateOutreachCamp(ctx context.Context, id uint64, in OutreachCampInput) error
	GetAllOutreachCamps(ctx context.Context) ([]OutreachCamp, error)
	GetOutreachCampByID(ctx context.Context, id uint64) (*OutreachCamp, error)
	ReportArea(ctx context.Context, in ReportedAreaInput) error
	UpdateAreaCampaigns(ctx context.Context, region string, campaigns []string) error
	GetReportedAreas(ctx context.Context) ([]ReportedArea, error)
	GetAreaByRegion(ctx context.Context, region string) (*ReportedArea, error)
	GetDashboardAnalytics(ctx context.Context) (DashboardAnalytics, error)

	// presence and settings
	UpdateUserActivity(ctx context.Context) error
	GetActiveUsers(ctx context.Context) ([]ActiveUser, error)
	GetAppURL(ctx context.Context) (string, error)
	SetAppURL(ctx context.Context, url string) error
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context, id Identity) (Backend, error)

func (f ConnectorFunc) Actor(ctx context.Context, id Identity) (Backend, error) { return f(ctx, id) }

func remoteErr(method string, msg string) error {
	return &RemoteError{Method: method, Message: msg}
}

func wrapTransport(method string, err error) error {
	return fmt.Errorf("backend %s: %w", method, err)
}
