package backend

import (
	"time"

	"github.com/soaringjerry/supportportal/internal/principal"
)

// Time is the actor's timestamp: nanoseconds since the Unix epoch.
type Time int64

// FromTime converts a wall-clock time to actor time.
func FromTime(t time.Time) Time { return Time(t.UnixNano()) }

// Std converts actor time back to a time.Time in UTC.
func (t Time) Std() time.Time { return time.Unix(0, int64(t)).UTC() }

type Language string

const (
	LanguageTamil   Language = "tamil"
	LanguageHindi   Language = "hindi"
	LanguageMarathi Language = "marathi"
	LanguageSpanish Language = "spanish"
	LanguageFrench  Language = "french"
	LanguageKannada Language = "kannada"
	LanguageTelugu  Language = "telugu"
	LanguageEnglish Language = "english"
)

// Languages lists every language the actor accepts, in display order.
var Languages = []Language{
	LanguageEnglish, LanguageHindi, LanguageTamil, LanguageTelugu,
	LanguageKannada, LanguageMarathi, LanguageSpanish, LanguageFrench,
}

func (l Language) Valid() bool {
	for _, v := range Languages {
		if v == l {
			return true
		}
	}
	return false
}

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
	RoleGuest UserRole = "guest"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGuest:
		return true
	}
	return false
}

type UserProfile struct {
	Username           string    `json:"username"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Age                uint64    `json:"age"`
	LanguagePreference *Language `json:"languagePreference,omitempty"`
}

type CommunityPost struct {
	ID             uint64              `json:"id"`
	Author         principal.Principal `json:"author"`
	Content        string              `json:"content"`
	Anonymous      bool                `json:"anonymous"`
	ModerationFlag bool                `json:"moderationFlag"`
	Timestamp      Time                `json:"timestamp"`
}

type Message struct {
	ID              uint64              `json:"id"`
	Sender          principal.Principal `json:"sender"`
	Recipient       principal.Principal `json:"recipient"`
	Content         string              `json:"content"`
	IsSupport       bool                `json:"isSupport"`
	ReadByRecipient bool                `json:"readByRecipient"`
	Timestamp       Time                `json:"timestamp"`
}

// Conversation is the actor-side grouping returned by getAdminConversations.
type Conversation struct {
	Participants []principal.Principal `json:"participants"`
	Messages     []Message             `json:"messages"`
}

type MoodEntry struct {
	Mood      string `json:"mood"`
	Timestamp Time   `json:"timestamp"`
}

type StressQuizResponse struct {
	User      principal.Principal `json:"user"`
	Responses []uint64            `json:"responses"`
	Score     uint64              `json:"score"`
	Timestamp Time                `json:"timestamp"`
}

type TherapySessionRequest struct {
	User        principal.Principal `json:"user"`
	TypeRequest string              `json:"typeRequest"`
	Details     string              `json:"details"`
	Timestamp   Time                `json:"timestamp"`
}

type CommunityGuidelines struct {
	CorePrinciples      string   `json:"corePrinciples"`
	AcceptableConduct   []string `json:"acceptableConduct"`
	PostingRules        []string `json:"postingRules"`
	ProhibitedBehaviors []string `json:"prohibitedBehaviors"`
	SafetyGuidelines    []string `json:"safetyGuidelines"`
}

type ContentFiltered struct {
	FilteredText string `json:"filteredText"`
	Passed       bool   `json:"passed"`
}

// Coordinates are optional on outreach records; (0,0) means "no location".
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c *Coordinates) Located() bool {
	return c != nil && (c.Latitude != 0 || c.Longitude != 0)
}

type Institution struct {
	ID                   uint64       `json:"id"`
	Name                 string       `json:"name"`
	InstitutionType      string       `json:"institutionType"`
	Region               string       `json:"region"`
	ContactInfo          string       `json:"contactInfo"`
	InfrastructureStatus string       `json:"infrastructureStatus"`
	AwarenessRating      uint64       `json:"awarenessRating"`
	RelatedCampaigns     []string     `json:"relatedCampaigns"`
	Coordinates          *Coordinates `json:"coordinates,omitempty"`
}

// InstitutionInput carries the arguments of addInstitution/updateInstitution.
type InstitutionInput struct {
	Name                 string       `json:"name"`
	InstitutionType      string       `json:"institutionType"`
	Region               string       `json:"region"`
	ContactInfo          string       `json:"contactInfo"`
	InfrastructureStatus string       `json:"infrastructureStatus"`
	AwarenessRating      uint64       `json:"awarenessRating"`
	RelatedCampaigns     []string     `json:"relatedCampaigns"`
	Coordinates          *Coordinates `json:"coordinates,omitempty"`
}

type AreaMonitoring struct {
	RegionName         string       `json:"regionName"`
	ConnectivityStatus string       `json:"connectivityStatus"`
	AccessLevel        uint64       `json:"accessLevel"`
	Description        string       `json:"description"`
	LinkedCampaigns    []string     `json:"linkedCampaigns"`
	Timestamp          Time         `json:"timestamp"`
	Coordinates        *Coordinates `json:"coordinates,omitempty"`
}

type AreaMonitoringInput struct {
	RegionName         string       `json:"regionName"`
	ConnectivityStatus string       `json:"connectivityStatus"`
	AccessLevel        uint64       `json:"accessLevel"`
	Description        string       `json:"description"`
	LinkedCampaigns    []string     `json:"linkedCampaigns"`
	Coordinates        *Coordinates `json:"coordinates,omitempty"`
}

type OutreachCamp struct {
	ID                uint64               `json:"id"`
	Name              string               `json:"name"`
	Location          string               `json:"location"`
	EventType         string               `json:"eventType"`
	StartDate         Time                 `json:"startDate"`
	EndDate           Time                 `json:"endDate"`
	AssignedClinician *principal.Principal `json:"assignedClinician,omitempty"`
	Status            string               `json:"status"`
	Description       string               `json:"description"`
	Coordinates       *Coordinates         `json:"coordinates,omitempty"`
}

type OutreachCampInput struct {
	Name              string               `json:"name"`
	Location          string               `json:"location"`
	EventType         string               `json:"eventType"`
	StartDate         Time                 `json:"startDate"`
	EndDate           Time                 `json:"endDate"`
	AssignedClinician *principal.Principal `json:"assignedClinician"`
	Status            string               `json:"status"`
	Description       string               `json:"description"`
	Coordinates       *Coordinates         `json:"coordinates,omitempty"`
}

type ReportedArea struct {
	RegionName             string              `json:"regionName"`
	ConnectivityStatus     string              `json:"connectivityStatus"`
	Description            string              `json:"description"`
	LinkedCampaigns        []string            `json:"linkedCampaigns"`
	HasMentalHealthSupport bool                `json:"hasMentalHealthSupport"`
	Reporter               principal.Principal `json:"reporter"`
	Timestamp              Time                `json:"timestamp"`
	Coordinates            *Coordinates        `json:"coordinates,omitempty"`
}

type ReportedAreaInput struct {
	RegionName             string       `json:"regionName"`
	ConnectivityStatus     string       `json:"connectivityStatus"`
	Description            string       `json:"description"`
	LinkedCampaigns        []string     `json:"linkedCampaigns"`
	HasMentalHealthSupport bool         `json:"hasMentalHealthSupport"`
	Coordinates            *Coordinates `json:"coordinates,omitempty"`
}

type DashboardAnalytics struct {
	ActiveCampaigns    uint64 `json:"activeCampaigns"`
	DistressedRegions  uint64 `json:"distressedRegions"`
	TotalAreas         uint64 `json:"totalAreas"`
	TotalCamps         uint64 `json:"totalCamps"`
	UpcomingEvents     uint64 `json:"upcomingEvents"`
	AvgAwarenessRating uint64 `json:"avgAwarenessRating"`
	LowAccessAreas     uint64 `json:"lowAccessAreas"`
	TotalInstitutions  uint64 `json:"totalInstitutions"`
}

type ActiveUser struct {
	Principal principal.Principal `json:"principal"`
	LastSeen  Time                `json:"lastSeen"`
}
