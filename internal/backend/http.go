package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/soaringjerry/supportportal/internal/principal"
)

const maxReplyBytes = 8 << 20

// HTTPConnector builds actors that call the gateway at BaseURL.
type HTTPConnector struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPConnector returns a connector with a bounded per-call timeout.
func NewHTTPConnector(baseURL string, timeout time.Duration) *HTTPConnector {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPConnector{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPConnector) Actor(_ context.Context, id Identity) (Backend, error) {
	if c == nil || c.BaseURL == "" {
		return nil, ErrActorUnavailable
	}
	return &HTTPClient{base: c.BaseURL, hc: c.Client, id: id}, nil
}

// HTTPClient is an actor reached over POST {base}/rpc/{method}.
type HTTPClient struct {
	base string
	hc   *http.Client
	id   Identity
}

type reply struct {
	OK  json.RawMessage `json:"ok"`
	Err *string         `json:"err"`
}

type args map[string]any

func (c *HTTPClient) call(ctx context.Context, method string, in args, out any) error {
	if in == nil {
		in = args{}
	}
	body, err := json.Marshal(in)
	if err != nil {
		return wrapTransport(method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/rpc/"+method, bytes.NewReader(body))
	if err != nil {
		return wrapTransport(method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if !c.id.Principal.IsZero() {
		req.Header.Set("X-Caller-Principal", c.id.Principal.String())
	}
	if c.id.Delegation != "" {
		req.Header.Set("Authorization", "Bearer "+c.id.Delegation)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return wrapTransport(method, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return wrapTransport(method, err)
	}
	var rep reply
	if err := json.Unmarshal(raw, &rep); err != nil {
		return wrapTransport(method, fmt.Errorf("status %d: undecodable reply: %w", resp.StatusCode, err))
	}
	if rep.Err != nil {
		return remoteErr(method, *rep.Err)
	}
	if resp.StatusCode >= 300 {
		return wrapTransport(method, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if out == nil || len(rep.OK) == 0 {
		return nil
	}
	if err := json.Unmarshal(rep.OK, out); err != nil {
		return wrapTransport(method, err)
	}
	return nil
}

func (c *HTTPClient) GetCallerUserProfile(ctx context.Context) (*UserProfile, error) {
	var out *UserProfile
	err := c.call(ctx, "getCallerUserProfile", nil, &out)
	return out, err
}

func (c *HTTPClient) SaveCallerUserProfile(ctx context.Context, profile UserProfile) error {
	return c.call(ctx, "saveCallerUserProfile", args{"profile": profile}, nil)
}

func (c *HTTPClient) GetUserProfile(ctx context.Context, user principal.Principal) (*UserProfile, error) {
	var out *UserProfile
	err := c.call(ctx, "getUserProfile", args{"user": user}, &out)
	return out, err
}

func (c *HTTPClient) GetUserLanguagePreference(ctx context.Context) (*Language, error) {
	var out *Language
	err := c.call(ctx, "getUserLanguagePreference", nil, &out)
	return out, err
}

func (c *HTTPClient) SetUserLanguagePreference(ctx context.Context, lang Language) error {
	return c.call(ctx, "setUserLanguagePreference", args{"language": lang}, nil)
}

func (c *HTTPClient) IsCallerAdmin(ctx context.Context) (bool, error) {
	var out bool
	err := c.call(ctx, "isCallerAdmin", nil, &out)
	return out, err
}

func (c *HTTPClient) CheckAndAssignAdmin(ctx context.Context) (bool, error) {
	var out bool
	err := c.call(ctx, "checkAndAssignAdmin", nil, &out)
	return out, err
}

func (c *HTTPClient) GetCallerUserRole(ctx context.Context) (UserRole, error) {
	var out UserRole
	err := c.call(ctx, "getCallerUserRole", nil, &out)
	return out, err
}

func (c *HTTPClient) AssignCallerUserRole(ctx context.Context, user principal.Principal, role UserRole) error {
	return c.call(ctx, "assignCallerUserRole", args{"user": user, "role": role}, nil)
}

func (c *HTTPClient) AssignUserRole(ctx context.Context, user principal.Principal, role string) error {
	return c.call(ctx, "assignUserRole", args{"user": user, "role": role}, nil)
}

func (c *HTTPClient) CheckContent(ctx context.Context, text string) (ContentFiltered, error) {
	var out ContentFiltered
	err := c.call(ctx, "checkContent", args{"text": text}, &out)
	return out, err
}

func (c *HTTPClient) CreateCommunityPost(ctx context.Context, content string, anonymous bool) error {
	return c.call(ctx, "createCommunityPost", args{"content": content, "anonymous": anonymous}, nil)
}

func (c *HTTPClient) UpdateCommunityPost(ctx context.Context, postID uint64, content string) error {
	return c.call(ctx, "updateCommunityPost", args{"postId": postID, "content": content}, nil)
}

func (c *HTTPClient) DeletePost(ctx context.Context, postID uint64) error {
	return c.call(ctx, "deletePost", args{"postId": postID}, nil)
}

func (c *HTTPClient) ModeratePost(ctx context.Context, postID uint64, flag bool) error {
	return c.call(ctx, "moderatePost", args{"postId": postID, "flag": flag}, nil)
}

func (c *HTTPClient) GetAllCommunityPosts(ctx context.Context) ([]CommunityPost, error) {
	var out []CommunityPost
	err := c.call(ctx, "getAllCommunityPosts", nil, &out)
	return out, err
}

func (c *HTTPClient) GetCommunityGuidelines(ctx context.Context) (CommunityGuidelines, error) {
	var out CommunityGuidelines
	err := c.call(ctx, "getCommunityGuidelines", nil, &out)
	return out, err
}

func (c *HTTPClient) AddMoodEntry(ctx context.Context, mood string) error {
	return c.call(ctx, "addMoodEntry", args{"mood": mood}, nil)
}

func (c *HTTPClient) GetUserMoodEntries(ctx context.Context, user principal.Principal) ([]MoodEntry, error) {
	var out []MoodEntry
	err := c.call(ctx, "getUserMoodEntries", args{"user": user}, &out)
	return out, err
}

func (c *HTTPClient) SubmitStressQuiz(ctx context.Context, score uint64, responses []uint64) error {
	return c.call(ctx, "submitStressQuiz", args{"score": score, "responses": responses}, nil)
}

func (c *HTTPClient) GetUserQuizResponse(ctx context.Context, user principal.Principal) (*StressQuizResponse, error) {
	var out *StressQuizResponse
	err := c.call(ctx, "getUserQuizResponse", args{"user": user}, &out)
	return out, err
}

func (c *HTTPClient) CreateTherapySessionRequest(ctx context.Context, typeRequest, details string) error {
	return c.call(ctx, "createTherapySessionRequest", args{"typeRequest": typeRequest, "details": details}, nil)
}

func (c *HTTPClient) GetAllTherapyRequests(ctx context.Context) ([]TherapySessionRequest, error) {
	var out []TherapySessionRequest
	err := c.call(ctx, "getAllTherapyRequests", nil, &out)
	return out, err
}

func (c *HTTPClient) SendMessage(ctx context.Context, recipient principal.Principal, content string, isSupport bool) error {
	return c.call(ctx, "sendMessage", args{"recipient": recipient, "content": content, "isSupport": isSupport}, nil)
}

func (c *HTTPClient) GetMessagesByUser(ctx context.Context, user principal.Principal) ([]Message, error) {
	var out []Message
	err := c.call(ctx, "getMessagesByUser", args{"user": user}, &out)
	return out, err
}

func (c *HTTPClient) GetAllMessages(ctx context.Context) ([]Message, error) {
	var out []Message
	err := c.call(ctx, "getAllMessages", nil, &out)
	return out, err
}

func (c *HTTPClient) MarkMessageAsRead(ctx context.Context, messageID uint64) error {
	return c.call(ctx, "markMessageAsRead", args{"messageId": messageID}, nil)
}

func (c *HTTPClient) GetUserConversations(ctx context.Context, user principal.Principal) ([]uint64, error) {
	var out []uint64
	err := c.call(ctx, "getUserConversations", args{"user": user}, &out)
	return out, err
}

func (c *HTTPClient) GetAdminConversations(ctx context.Context) ([]Conversation, error) {
	var out []Conversation
	err := c.call(ctx, "getAdminConversations", nil, &out)
	return out, err
}

func institutionArgs(in InstitutionInput) args {
	return args{
		"name":                 in.Name,
		"institutionType":      in.InstitutionType,
		"region":               in.Region,
		"contactInfo":          in.ContactInfo,
		"infrastructureStatus": in.InfrastructureStatus,
		"awarenessRating":      in.AwarenessRating,
		"relatedCampaigns":     nonNil(in.RelatedCampaigns),
		"coordinates":          in.Coordinates,
	}
}

func (c *HTTPClient) AddInstitution(ctx context.Context, in InstitutionInput) error {
	return c.call(ctx, "addInstitution", institutionArgs(in), nil)
}

func (c *HTTPClient) UpdateInstitution(ctx context.Context, id uint64, in InstitutionInput) error {
	a := institutionArgs(in)
	a["id"] = id
	return c.call(ctx, "updateInstitution", a, nil)
}

func (c *HTTPClient) GetAllInstitutions(ctx context.Context) ([]Institution, error) {
	var out []Institution
	err := c.call(ctx, "getAllInstitutions", nil, &out)
	return out, err
}

func (c *HTTPClient) GetInstitutionByID(ctx context.Context, id uint64) (*Institution, error) {
	var out *Institution
	err := c.call(ctx, "getInstitutionById", args{"id": id}, &out)
	return out, err
}

func areaArgs(in AreaMonitoringInput) args {
	return args{
		"regionName":         in.RegionName,
		"connectivityStatus": in.ConnectivityStatus,
		"accessLevel":        in.AccessLevel,
		"description":        in.Description,
		"linkedCampaigns":    nonNil(in.LinkedCampaigns),
		"coordinates":        in.Coordinates,
	}
}

func (c *HTTPClient) AddAreaMonitoring(ctx context.Context, in AreaMonitoringInput) error {
	return c.call(ctx, "addAreaMonitoring", areaArgs(in), nil)
}

func (c *HTTPClient) UpdateAreaMonitoring(ctx context.Context, in AreaMonitoringInput) error {
	return c.call(ctx, "updateAreaMonitoring", areaArgs(in), nil)
}

func (c *HTTPClient) GetAllAreaMonitoring(ctx context.Context) ([]AreaMonitoring, error) {
	var out []AreaMonitoring
	err := c.call(ctx, "getAllAreaMonitoring", nil, &out)
	return out, err
}

func (c *HTTPClient) GetAreaMonitoringByRegion(ctx context.Context, region string) (*AreaMonitoring, error) {
	var out *AreaMonitoring
	err := c.call(ctx, "getAreaMonitoringByRegion", args{"regionName": region}, &out)
	return out, err
}

func campArgs(in OutreachCampInput) args {
	return args{
		"name":              in.Name,
		"location":          in.Location,
		"eventType":         in.EventType,
		"startDate":         in.StartDate,
		"endDate":           in.EndDate,
		"assignedClinician": in.AssignedClinician,
		"status":            in.Status,
		"description":       in.Description,
		"coordinates":       in.Coordinates,
	}
}

func (c *HTTPClient) AddOutreachCamp(ctx context.Context, in OutreachCampInput) error {
	return c.call(ctx, "addOutreachCamp", campArgs(in), nil)
}

func (c *HTTPClient) UpdateOutreachCamp(ctx context.Context, id uint64, in OutreachCampInput) error {
	a := campArgs(in)
	a["id"] = id
	return c.call(ctx, "updateOutreachCamp", a, nil)
}

func (c *HTTPClient) GetAllOutreachCamps(ctx context.Context) ([]OutreachCamp, error) {
	var out []OutreachCamp
	err := c.call(ctx, "getAllOutreachCamps", nil, &out)
	return out, err
}

func (c *HTTPClient) GetOutreachCampByID(ctx context.Context, id uint64) (*OutreachCamp, error) {
	var out *OutreachCamp
	err := c.call(ctx, "getOutreachCampById", args{"id": id}, &out)
	return out, err
}

func (c *HTTPClient) ReportArea(ctx context.Context, in ReportedAreaInput) error {
	return c.call(ctx, "reportArea", args{
		"regionName":             in.RegionName,
		"connectivityStatus":     in.ConnectivityStatus,
		"description":            in.Description,
		"linkedCampaigns":        nonNil(in.LinkedCampaigns),
		"hasMentalHealthSupport": in.HasMentalHealthSupport,
		"coordinates":            in.Coordinates,
	}, nil)
}

func (c *HTTPClient) UpdateAreaCampaigns(ctx context.Context, region string, campaigns []string) error {
	return c.call(ctx, "updateAreaCampaigns", args{"regionName": region, "newCampaigns": nonNil(campaigns)}, nil)
}

func (c *HTTPClient) GetReportedAreas(ctx context.Context) ([]ReportedArea, error) {
	var out []ReportedArea
	err := c.call(ctx, "getReportedAreas", nil, &out)
	return out, err
}

func (c *HTTPClient) GetAreaByRegion(ctx context.Context, region string) (*ReportedArea, error) {
	var out *ReportedArea
	err := c.call(ctx, "getAreaByRegion", args{"regionName": region}, &out)
	return out, err
}

func (c *HTTPClient) GetDashboardAnalytics(ctx context.Context) (DashboardAnalytics, error) {
	var out DashboardAnalytics
	err := c.call(ctx, "getDashboardAnalytics", nil, &out)
	return out, err
}

func (c *HTTPClient) UpdateUserActivity(ctx context.Context) error {
	return c.call(ctx, "updateUserActivity", nil, nil)
}

func (c *HTTPClient) GetActiveUsers(ctx context.Context) ([]ActiveUser, error) {
	var out []ActiveUser
	err := c.call(ctx, "getActiveUsers", nil, &out)
	return out, err
}

func (c *HTTPClient) GetAppURL(ctx context.Context) (string, error) {
	var out string
	err := c.call(ctx, "getAppUrl", nil, &out)
	return out, err
}

func (c *HTTPClient) SetAppURL(ctx context.Context, url string) error {
	return c.call(ctx, "setAppUrl", args{"url": url}, nil)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
