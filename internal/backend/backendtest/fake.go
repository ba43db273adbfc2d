// Package backendtest provides an in-memory actor for tests and local runs.
package backendtest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/principal"
)

// DefaultBannedWords are rejected by CheckContent.
var DefaultBannedWords = []string{"hate", "kill", "stupid", "idiot"}

// Fake is a shared in-memory world. Each Actor call returns a view bound to
// one caller, the way the remote actor sees msg.caller.
type Fake struct {
	mu sync.Mutex

	Now         func() time.Time
	BannedWords []string
	// Unavailable makes Actor fail, simulating an agent that is not ready.
	Unavailable bool

	profiles   map[principal.Principal]backend.UserProfile
	languages  map[principal.Principal]backend.Language
	roles      map[principal.Principal]backend.UserRole
	posts      []backend.CommunityPost
	moods      map[principal.Principal][]backend.MoodEntry
	quizzes    map[principal.Principal]backend.StressQuizResponse
	therapy    []backend.TherapySessionRequest
	messages   []backend.Message
	inst       []backend.Institution
	areas      []backend.AreaMonitoring
	camps      []backend.OutreachCamp
	reported   []backend.ReportedArea
	activity   map[principal.Principal]backend.Time
	appURL     string
	guidelines backend.CommunityGuidelines
	nextID     uint64
	calls      map[string]int
	failures   map[string]error
	hasAdmin   bool
}

// New returns an empty world with default guidelines.
func New() *Fake {
	return &Fake{
		Now:         time.Now,
		BannedWords: DefaultBannedWords,
		profiles:    map[principal.Principal]backend.UserProfile{},
		languages:   map[principal.Principal]backend.Language{},
		roles:       map[principal.Principal]backend.UserRole{},
		moods:       map[principal.Principal][]backend.MoodEntry{},
		quizzes:     map[principal.Principal]backend.StressQuizResponse{},
		activity:    map[principal.Principal]backend.Time{},
		calls:       map[string]int{},
		failures:    map[string]error{},
		guidelines:  DefaultGuidelines(),
		nextID:      1,
	}
}

// DefaultGuidelines is the rule set the fake serves.
func DefaultGuidelines() backend.CommunityGuidelines {
	return backend.CommunityGuidelines{
		CorePrinciples: "Respect, empathy, and confidentiality guide every interaction in this community.",
		AcceptableConduct: []string{
			"Share your experiences honestly and kindly",
			"Offer support without judgement",
			"Respect other members' privacy",
		},
		PostingRules: []string{
			"Stay on topic and keep posts constructive",
			"Do not share personal contact details",
			"Use the anonymous option when discussing sensitive matters",
		},
		ProhibitedBehaviors: []string{
			"Harassment, bullying, or hate speech",
			"Encouraging self-harm",
			"Spam or advertising",
		},
		SafetyGuidelines: []string{
			"If you are in crisis, contact a helpline immediately",
			"Report posts that concern you to moderators",
		},
	}
}

func (f *Fake) Actor(_ context.Context, id backend.Identity) (backend.Backend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unavailable {
		return nil, backend.ErrActorUnavailable
	}
	caller := id.Principal
	if caller.IsZero() {
		caller = principal.Anonymous
	}
	return &actor{f: f, caller: caller}, nil
}

// Calls reports how many times method reached the actor.
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// FailNext makes the next call to method return err.
func (f *Fake) FailNext(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = err
}

// Reject makes the next call to method fail with a remote rejection.
func (f *Fake) Reject(method, message string) {
	f.FailNext(method, &backend.RemoteError{Method: method, Message: message})
}

// SetRole assigns a role directly, bypassing authorization.
func (f *Fake) SetRole(p principal.Principal, role backend.UserRole) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[p] = role
	if role == backend.RoleAdmin {
		f.hasAdmin = true
	}
}

// SeedMessage stores a message as if it had been sent earlier.
func (f *Fake) SeedMessage(m backend.Message) backend.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID == 0 {
		m.ID = f.id()
	}
	f.messages = append(f.messages, m)
	return m
}

// SeedPost stores a community post as if it had been created earlier.
func (f *Fake) SeedPost(p backend.CommunityPost) backend.CommunityPost {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == 0 {
		p.ID = f.id()
	}
	f.posts = append(f.posts, p)
	return p
}

func (f *Fake) id() uint64 {
	id := f.nextID
	f.nextID++
	return id
}

func (f *Fake) now() backend.Time { return backend.FromTime(f.Now()) }

type actor struct {
	f      *Fake
	caller principal.Principal
}

func unauthorized(msg string) error {
	return &backend.RemoteError{Message: "Unauthorized: " + msg}
}

// enter locks the world and records the call. The caller must unlock.
func (a *actor) enter(method string) error {
	a.f.mu.Lock()
	a.f.calls[method]++
	if err, ok := a.f.failures[method]; ok {
		delete(a.f.failures, method)
		return err
	}
	return nil
}

func (a *actor) leave() { a.f.mu.Unlock() }

func (a *actor) isAdmin() bool { return a.f.roles[a.caller] == backend.RoleAdmin }

func (a *actor) isUser() bool {
	if !a.caller.Authenticated() {
		return false
	}
	r := a.f.roles[a.caller]
	return r == backend.RoleAdmin || r == backend.RoleUser || r == ""
}

func (a *actor) requireUser(what string) error {
	if !a.isUser() {
		return unauthorized("Only users can " + what)
	}
	return nil
}

func (a *actor) requireAdmin(what string) error {
	if !a.isAdmin() {
		return unauthorized("Only admins can " + what)
	}
	return nil
}

func (a *actor) GetCallerUserProfile(context.Context) (*backend.UserProfile, error) {
	defer a.leave()
	if err := a.enter("getCallerUserProfile"); err != nil {
		return nil, err
	}
	p, ok := a.f.profiles[a.caller]
	if !ok {
		return nil, nil
	}
	if lang, ok := a.f.languages[a.caller]; ok {
		p.LanguagePreference = &lang
	}
	return &p, nil
}

func (a *actor) SaveCallerUserProfile(_ context.Context, profile backend.UserProfile) error {
	defer a.leave()
	if err := a.enter("saveCallerUserProfile"); err != nil {
		return err
	}
	if err := a.requireUser("save profiles"); err != nil {
		return err
	}
	a.f.profiles[a.caller] = profile
	if profile.LanguagePreference != nil {
		a.f.languages[a.caller] = *profile.LanguagePreference
	}
	if _, ok := a.f.roles[a.caller]; !ok {
		a.f.roles[a.caller] = backend.RoleUser
	}
	return nil
}

func (a *actor) GetUserProfile(_ context.Context, user principal.Principal) (*backend.UserProfile, error) {
	defer a.leave()
	if err := a.enter("getUserProfile"); err != nil {
		return nil, err
	}
	if user != a.caller && !a.isAdmin() {
		return nil, unauthorized("Can only view your own profile")
	}
	p, ok := a.f.profiles[user]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (a *actor) GetUserLanguagePreference(context.Context) (*backend.Language, error) {
	defer a.leave()
	if err := a.enter("getUserLanguagePreference"); err != nil {
		return nil, err
	}
	lang, ok := a.f.languages[a.caller]
	if !ok {
		return nil, nil
	}
	return &lang, nil
}

func (a *actor) SetUserLanguagePreference(_ context.Context, lang backend.Language) error {
	defer a.leave()
	if err := a.enter("setUserLanguagePreference"); err != nil {
		return err
	}
	if err := a.requireUser("set language preferences"); err != nil {
		return err
	}
	a.f.languages[a.caller] = lang
	return nil
}

func (a *actor) IsCallerAdmin(context.Context) (bool, error) {
	defer a.leave()
	if err := a.enter("isCallerAdmin"); err != nil {
		return false, err
	}
	return a.isAdmin(), nil
}

func (a *actor) CheckAndAssignAdmin(context.Context) (bool, error) {
	defer a.leave()
	if err := a.enter("checkAndAssignAdmin"); err != nil {
		return false, err
	}
	if a.f.hasAdmin || !a.caller.Authenticated() {
		return false, nil
	}
	a.f.roles[a.caller] = backend.RoleAdmin
	a.f.hasAdmin = true
	return true, nil
}

func (a *actor) GetCallerUserRole(context.Context) (backend.UserRole, error) {
	defer a.leave()
	if err := a.enter("getCallerUserRole"); err != nil {
		return "", err
	}
	if !a.caller.Authenticated() {
		return backend.RoleGuest, nil
	}
	if r, ok := a.f.roles[a.caller]; ok {
		return r, nil
	}
	return backend.RoleUser, nil
}

func (a *actor) AssignCallerUserRole(_ context.Context, user principal.Principal, role backend.UserRole) error {
	defer a.leave()
	if err := a.enter("assignCallerUserRole"); err != nil {
		return err
	}
	if err := a.requireAdmin("assign user roles"); err != nil {
		return err
	}
	a.f.roles[user] = role
	return nil
}

func (a *actor) AssignUserRole(_ context.Context, user principal.Principal, role string) error {
	defer a.leave()
	if err := a.enter("assignUserRole"); err != nil {
		return err
	}
	if err := a.requireAdmin("assign user roles"); err != nil {
		return err
	}
	r := backend.UserRole(role)
	if !r.Valid() {
		return &backend.RemoteError{Method: "assignUserRole", Message: "Invalid role: " + role}
	}
	a.f.roles[user] = r
	return nil
}

func (a *actor) CheckContent(_ context.Context, text string) (backend.ContentFiltered, error) {
	defer a.leave()
	if err := a.enter("checkContent"); err != nil {
		return backend.ContentFiltered{}, err
	}
	lower := strings.ToLower(text)
	filtered := text
	passed := true
	for _, w := range a.f.BannedWords {
		if strings.Contains(lower, w) {
			passed = false
			filtered = replaceFold(filtered, w, strings.Repeat("*", len(w)))
		}
	}
	return backend.ContentFiltered{FilteredText: filtered, Passed: passed}, nil
}

func replaceFold(s, word, with string) string {
	var b strings.Builder
	lower := strings.ToLower(s)
	for {
		i := strings.Index(lower, word)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		b.WriteString(with)
		s = s[i+len(word):]
		lower = lower[i+len(word):]
	}
}

func (a *actor) CreateCommunityPost(_ context.Context, content string, anonymous bool) error {
	defer a.leave()
	if err := a.enter("createCommunityPost"); err != nil {
		return err
	}
	if err := a.requireUser("create posts"); err != nil {
		return err
	}
	a.f.posts = append(a.f.posts, backend.CommunityPost{
		ID:        a.f.id(),
		Author:    a.caller,
		Content:   content,
		Anonymous: anonymous,
		Timestamp: a.f.now(),
	})
	return nil
}

func (a *actor) findPost(id uint64) int {
	for i, p := range a.f.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (a *actor) UpdateCommunityPost(_ context.Context, postID uint64, content string) error {
	defer a.leave()
	if err := a.enter("updateCommunityPost"); err != nil {
		return err
	}
	i := a.findPost(postID)
	if i < 0 {
		return &backend.RemoteError{Method: "updateCommunityPost", Message: "Post not found"}
	}
	if a.f.posts[i].Author != a.caller && !a.isAdmin() {
		return unauthorized("Only the author or admins can edit posts")
	}
	a.f.posts[i].Content = content
	return nil
}

func (a *actor) DeletePost(_ context.Context, postID uint64) error {
	defer a.leave()
	if err := a.enter("deletePost"); err != nil {
		return err
	}
	i := a.findPost(postID)
	if i < 0 {
		return &backend.RemoteError{Method: "deletePost", Message: "Post not found"}
	}
	if a.f.posts[i].Author != a.caller && !a.isAdmin() {
		return unauthorized("Only the author or admins can delete posts")
	}
	a.f.posts = append(a.f.posts[:i], a.f.posts[i+1:]...)
	return nil
}

func (a *actor) ModeratePost(_ context.Context, postID uint64, flag bool) error {
	defer a.leave()
	if err := a.enter("moderatePost"); err != nil {
		return err
	}
	if err := a.requireAdmin("moderate posts"); err != nil {
		return err
	}
	i := a.findPost(postID)
	if i < 0 {
		return &backend.RemoteError{Method: "moderatePost", Message: "Post not found"}
	}
	a.f.posts[i].ModerationFlag = flag
	return nil
}

func (a *actor) GetAllCommunityPosts(context.Context) ([]backend.CommunityPost, error) {
	defer a.leave()
	if err := a.enter("getAllCommunityPosts"); err != nil {
		return nil, err
	}
	return append([]backend.CommunityPost(nil), a.f.posts...), nil
}

func (a *actor) GetCommunityGuidelines(context.Context) (backend.CommunityGuidelines, error) {
	defer a.leave()
	if err := a.enter("getCommunityGuidelines"); err != nil {
		return backend.CommunityGuidelines{}, err
	}
	return a.f.guidelines, nil
}

func (a *actor) AddMoodEntry(_ context.Context, mood string) error {
	defer a.leave()
	if err := a.enter("addMoodEntry"); err != nil {
		return err
	}
	if err := a.requireUser("add mood entries"); err != nil {
		return err
	}
	a.f.moods[a.caller] = append(a.f.moods[a.caller], backend.MoodEntry{Mood: mood, Timestamp: a.f.now()})
	return nil
}

func (a *actor) GetUserMoodEntries(_ context.Context, user principal.Principal) ([]backend.MoodEntry, error) {
	defer a.leave()
	if err := a.enter("getUserMoodEntries"); err != nil {
		return nil, err
	}
	if user != a.caller && !a.isAdmin() {
		return nil, unauthorized("Can only view your own mood entries")
	}
	return append([]backend.MoodEntry(nil), a.f.moods[user]...), nil
}

func (a *actor) SubmitStressQuiz(_ context.Context, score uint64, responses []uint64) error {
	defer a.leave()
	if err := a.enter("submitStressQuiz"); err != nil {
		return err
	}
	if err := a.requireUser("submit quizzes"); err != nil {
		return err
	}
	a.f.quizzes[a.caller] = backend.StressQuizResponse{
		User:      a.caller,
		Responses: append([]uint64(nil), responses...),
		Score:     score,
		Timestamp: a.f.now(),
	}
	return nil
}

func (a *actor) GetUserQuizResponse(_ context.Context, user principal.Principal) (*backend.StressQuizResponse, error) {
	defer a.leave()
	if err := a.enter("getUserQuizResponse"); err != nil {
		return nil, err
	}
	if user != a.caller && !a.isAdmin() {
		return nil, unauthorized("Can only view your own quiz responses")
	}
	r, ok := a.f.quizzes[user]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (a *actor) CreateTherapySessionRequest(_ context.Context, typeRequest, details string) error {
	defer a.leave()
	if err := a.enter("createTherapySessionRequest"); err != nil {
		return err
	}
	if err := a.requireUser("request therapy sessions"); err != nil {
		return err
	}
	a.f.therapy = append(a.f.therapy, backend.TherapySessionRequest{
		User:        a.caller,
		TypeRequest: typeRequest,
		Details:     details,
		Timestamp:   a.f.now(),
	})
	return nil
}

func (a *actor) GetAllTherapyRequests(context.Context) ([]backend.TherapySessionRequest, error) {
	defer a.leave()
	if err := a.enter("getAllTherapyRequests"); err != nil {
		return nil, err
	}
	if err := a.requireAdmin("view all therapy requests"); err != nil {
		return nil, err
	}
	return append([]backend.TherapySessionRequest(nil), a.f.therapy...), nil
}

func (a *actor) SendMessage(_ context.Context, recipient principal.Principal, content string, isSupport bool) error {
	defer a.leave()
	if err := a.enter("sendMessage"); err != nil {
		return err
	}
	if err := a.requireUser("send messages"); err != nil {
		return err
	}
	a.f.messages = append(a.f.messages, backend.Message{
		ID:        a.f.id(),
		Sender:    a.caller,
		Recipient: recipient,
		Content:   content,
		IsSupport: isSupport,
		Timestamp: a.f.now(),
	})
	return nil
}

func (a *actor) GetMessagesByUser(_ context.Context, user principal.Principal) ([]backend.Message, error) {
	defer a.leave()
	if err := a.enter("getMessagesByUser"); err != nil {
		return nil, err
	}
	if user != a.caller && !a.isAdmin() {
		return nil, unauthorized("Can only view your own messages")
	}
	var out []backend.Message
	for _, m := range a.f.messages {
		if m.Sender == user || m.Recipient == user {
			out = append(out, m)
		}
	}
	return out, nil
}

func (a *actor) GetAllMessages(context.Context) ([]backend.Message, error) {
	defer a.leave()
	if err := a.enter("getAllMessages"); err != nil {
		return nil, err
	}
	if err := a.requireAdmin("view all messages"); err != nil {
		return nil, err
	}
	return append([]backend.Message(nil), a.f.messages...), nil
}

func (a *actor) MarkMessageAsRead(_ context.Context, messageID uint64) error {
	defer a.leave()
	if err := a.enter("markMessageAsRead"); err != nil {
		return err
	}
	for i := range a.f.messages {
		if a.f.messages[i].ID != messageID {
			continue
		}
		if a.f.messages[i].Recipient != a.caller {
			return unauthorized("Only the recipient can mark a message as read")
		}
		a.f.messages[i].ReadByRecipient = true
		return nil
	}
	return &backend.RemoteError{Method: "markMessageAsRead", Message: "Message not found"}
}

func (a *actor) GetUserConversations(_ context.Context, user principal.Principal) ([]uint64, error) {
	defer a.leave()
	if err := a.enter("getUserConversations"); err != nil {
		return nil, err
	}
	if user != a.caller && !a.isAdmin() {
		return nil, unauthorized("Can only view your own conversations")
	}
	var ids []uint64
	for _, m := range a.f.messages {
		if m.Sender == user || m.Recipient == user {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

func (a *actor) GetAdminConversations(context.Context) ([]backend.Conversation, error) {
	defer a.leave()
	if err := a.enter("getAdminConversations"); err != nil {
		return nil, err
	}
	if err := a.requireAdmin("view conversations"); err != nil {
		return nil, err
	}
	byPair := map[[2]string]*backend.Conversation{}
	var keys [][2]string
	for _, m := range a.f.messages {
		x, y := m.Sender.String(), m.Recipient.String()
		if y < x {
			x, y = y, x
		}
		k := [2]string{x, y}
		c, ok := byPair[k]
		if !ok {
			c = &backend.Conversation{Participants: []principal.Principal{m.Sender, m.Recipient}}
			byPair[k] = c
			keys = append(keys, k)
		}
		c.Messages = append(c.Messages, m)
	}
	out := make([]backend.Conversation, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byPair[k])
	}
	return out, nil
}

func (a *actor) AddInstitution(_ context.Context, in backend.InstitutionInput) error {
	defer a.leave()
	if err := a.enter("addInstitution"); err != nil {
		return err
	}
	if err := a.requireAdmin("add institutions"); err != nil {
		return err
	}
	a.f.inst = append(a.f.inst, institutionFrom(a.f.id(), in))
	return nil
}

func institutionFrom(id uint64, in backend.InstitutionInput) backend.Institution {
	return backend.Institution{
		ID:                   id,
		Name:                 in.Name,
		InstitutionType:      in.InstitutionType,
		Region:               in.Region,
		ContactInfo:          in.ContactInfo,
		InfrastructureStatus: in.InfrastructureStatus,
		AwarenessRating:      in.AwarenessRating,
		RelatedCampaigns:     append([]string(nil), in.RelatedCampaigns...),
		Coordinates:          in.Coordinates,
	}
}

func (a *actor) UpdateInstitution(_ context.Context, id uint64, in backend.InstitutionInput) error {
	defer a.leave()
	if err := a.enter("updateInstitution"); err != nil {
		return err
	}
	if err := a.requireAdmin("update institutions"); err != nil {
		return err
	}
	for i := range a.f.inst {
		if a.f.inst[i].ID == id {
			a.f.inst[i] = institutionFrom(id, in)
			return nil
		}
	}
	return &backend.RemoteError{Method: "updateInstitution", Message: "Institution not found"}
}

func (a *actor) GetAllInstitutions(context.Context) ([]backend.Institution, error) {
	defer a.leave()
	if err := a.enter("getAllInstitutions"); err != nil {
		return nil, err
	}
	return append([]backend.Institution(nil), a.f.inst...), nil
}

func (a *actor) GetInstitutionByID(_ context.Context, id uint64) (*backend.Institution, error) {
	defer a.leave()
	if err := a.enter("getInstitutionById"); err != nil {
		return nil, err
	}
	for _, in := range a.f.inst {
		if in.ID == id {
			return &in, nil
		}
	}
	return nil, nil
}

func (a *actor) areaFrom(in backend.AreaMonitoringInput) backend.AreaMonitoring {
	return backend.AreaMonitoring{
		RegionName:         in.RegionName,
		ConnectivityStatus: in.ConnectivityStatus,
		AccessLevel:        in.AccessLevel,
		Description:        in.Description,
		LinkedCampaigns:    append([]string(nil), in.LinkedCampaigns...),
		Timestamp:          a.f.now(),
		Coordinates:        in.Coordinates,
	}
}

func (a *actor) AddAreaMonitoring(_ context.Context, in backend.AreaMonitoringInput) error {
	defer a.leave()
	if err := a.enter("addAreaMonitoring"); err != nil {
		return err
	}
	if err := a.requireAdmin("add area monitoring"); err != nil {
		return err
	}
	a.f.areas = append(a.f.areas, a.areaFrom(in))
	return nil
}

func (a *actor) UpdateAreaMonitoring(_ context.Context, in backend.AreaMonitoringInput) error {
	defer a.leave()
	if err := a.enter("updateAreaMonitoring"); err != nil {
		return err
	}
	if err := a.requireAdmin("update area monitoring"); err != nil {
		return err
	}
	for i := range a.f.areas {
		if a.f.areas[i].RegionName == in.RegionName {
			a.f.areas[i] = a.areaFrom(in)
			return nil
		}
	}
	return &backend.RemoteError{Method: "updateAreaMonitoring", Message: "Area not found"}
}

func (a *actor) GetAllAreaMonitoring(context.Context) ([]backend.AreaMonitoring, error) {
	defer a.leave()
	if err := a.enter("getAllAreaMonitoring"); err != nil {
		return nil, err
	}
	return append([]backend.AreaMonitoring(nil), a.f.areas...), nil
}

func (a *actor) GetAreaMonitoringByRegion(_ context.Context, region string) (*backend.AreaMonitoring, error) {
	defer a.leave()
	if err := a.enter("getAreaMonitoringByRegion"); err != nil {
		return nil, err
	}
	for _, ar := range a.f.areas {
		if ar.RegionName == region {
			return &ar, nil
		}
	}
	return nil, nil
}

func campFrom(id uint64, in backend.OutreachCampInput) backend.OutreachCamp {
	return backend.OutreachCamp{
		ID:                id,
		Name:              in.Name,
		Location:          in.Location,
		EventType:         in.EventType,
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
		AssignedClinician: in.AssignedClinician,
		Status:            in.Status,
		Description:       in.Description,
		Coordinates:       in.Coordinates,
	}
}

func (a *actor) AddOutreachCamp(_ context.Context, in backend.OutreachCampInput) error {
	defer a.leave()
	if err := a.enter("addOutreachCamp"); err != nil {
		return err
	}
	if err := a.requireAdmin("add outreach camps"); err != nil {
		return err
	}
	a.f.camps = append(a.f.camps, campFrom(a.f.id(), in))
	return nil
}

func (a *actor) UpdateOutreachCamp(_ context.Context, id uint64, in backend.OutreachCampInput) error {
	defer a.leave()
	if err := a.enter("updateOutreachCamp"); err != nil {
		return err
	}
	if err := a.requireAdmin("update outreach camps"); err != nil {
		return err
	}
	for i := range a.f.camps {
		if a.f.camps[i].ID == id {
			a.f.camps[i] = campFrom(id, in)
			return nil
		}
	}
	return &backend.RemoteError{Method: "updateOutreachCamp", Message: "Camp not found"}
}

func (a *actor) GetAllOutreachCamps(context.Context) ([]backend.OutreachCamp, error) {
	defer a.leave()
	if err := a.enter("getAllOutreachCamps"); err != nil {
		return nil, err
	}
	return append([]backend.OutreachCamp(nil), a.f.camps...), nil
}

func (a *actor) GetOutreachCampByID(_ context.Context, id uint64) (*backend.OutreachCamp, error) {
	defer a.leave()
	if err := a.enter("getOutreachCampById"); err != nil {
		return nil, err
	}
	for _, c := range a.f.camps {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, nil
}

func (a *actor) ReportArea(_ context.Context, in backend.ReportedAreaInput) error {
	defer a.leave()
	if err := a.enter("reportArea"); err != nil {
		return err
	}
	if err := a.requireUser("report areas"); err != nil {
		return err
	}
	a.f.reported = append(a.f.reported, backend.ReportedArea{
		RegionName:             in.RegionName,
		ConnectivityStatus:     in.ConnectivityStatus,
		Description:            in.Description,
		LinkedCampaigns:        append([]string(nil), in.LinkedCampaigns...),
		HasMentalHealthSupport: in.HasMentalHealthSupport,
		Reporter:               a.caller,
		Timestamp:              a.f.now(),
		Coordinates:            in.Coordinates,
	})
	return nil
}

func (a *actor) UpdateAreaCampaigns(_ context.Context, region string, campaigns []string) error {
	defer a.leave()
	if err := a.enter("updateAreaCampaigns"); err != nil {
		return err
	}
	if err := a.requireAdmin("update campaigns"); err != nil {
		return err
	}
	for i := range a.f.reported {
		if a.f.reported[i].RegionName == region {
			a.f.reported[i].LinkedCampaigns = append([]string(nil), campaigns...)
			return nil
		}
	}
	return &backend.RemoteError{Method: "updateAreaCampaigns", Message: "Area not found"}
}

func (a *actor) GetReportedAreas(context.Context) ([]backend.ReportedArea, error) {
	defer a.leave()
	if err := a.enter("getReportedAreas"); err != nil {
		return nil, err
	}
	return append([]backend.ReportedArea(nil), a.f.reported...), nil
}

func (a *actor) GetAreaByRegion(_ context.Context, region string) (*backend.ReportedArea, error) {
	defer a.leave()
	if err := a.enter("getAreaByRegion"); err != nil {
		return nil, err
	}
	for _, r := range a.f.reported {
		if r.RegionName == region {
			return &r, nil
		}
	}
	return nil, nil
}

func (a *actor) GetDashboardAnalytics(context.Context) (backend.DashboardAnalytics, error) {
	defer a.leave()
	if err := a.enter("getDashboardAnalytics"); err != nil {
		return backend.DashboardAnalytics{}, err
	}
	var out backend.DashboardAnalytics
	out.TotalInstitutions = uint64(len(a.f.inst))
	out.TotalAreas = uint64(len(a.f.areas))
	out.TotalCamps = uint64(len(a.f.camps))
	var rating uint64
	for _, in := range a.f.inst {
		rating += in.AwarenessRating
	}
	if len(a.f.inst) > 0 {
		out.AvgAwarenessRating = rating / uint64(len(a.f.inst))
	}
	for _, ar := range a.f.areas {
		if ar.AccessLevel <= 2 {
			out.LowAccessAreas++
		}
	}
	for _, c := range a.f.camps {
		switch c.Status {
		case "Ongoing":
			out.ActiveCampaigns++
		case "Upcoming":
			out.UpcomingEvents++
		}
	}
	for _, r := range a.f.reported {
		if !r.HasMentalHealthSupport {
			out.DistressedRegions++
		}
	}
	return out, nil
}

func (a *actor) UpdateUserActivity(context.Context) error {
	defer a.leave()
	if err := a.enter("updateUserActivity"); err != nil {
		return err
	}
	if !a.caller.Authenticated() {
		return unauthorized("Only users can update activity")
	}
	a.f.activity[a.caller] = a.f.now()
	return nil
}

func (a *actor) GetActiveUsers(context.Context) ([]backend.ActiveUser, error) {
	defer a.leave()
	if err := a.enter("getActiveUsers"); err != nil {
		return nil, err
	}
	if err := a.requireAdmin("view active users"); err != nil {
		return nil, err
	}
	out := make([]backend.ActiveUser, 0, len(a.f.activity))
	for p, t := range a.f.activity {
		out = append(out, backend.ActiveUser{Principal: p, LastSeen: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen > out[j].LastSeen })
	return out, nil
}

func (a *actor) GetAppURL(context.Context) (string, error) {
	defer a.leave()
	if err := a.enter("getAppUrl"); err != nil {
		return "", err
	}
	return a.f.appURL, nil
}

func (a *actor) SetAppURL(_ context.Context, url string) error {
	defer a.leave()
	if err := a.enter("setAppUrl"); err != nil {
		return err
	}
	if err := a.requireAdmin("set the app URL"); err != nil {
		return err
	}
	if strings.TrimSpace(url) == "" {
		return errors.New("empty url")
	}
	a.f.appURL = url
	return nil
}

var _ backend.Connector = (*Fake)(nil)
var _ backend.Backend = (*actor)(nil)
