package services

import (
	"context"
	"sort"
	"strings"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/principal"
)

// RecentMoodLimit is how many entries the history view shows.
const RecentMoodLimit = 10

type Mood struct {
	Value string `json:"value"`
	Name  string `json:"name"`
}

var Moods = []Mood{
	{Value: "happy", Name: "Happy"},
	{Value: "neutral", Name: "Neutral"},
	{Value: "sad", Name: "Sad"},
	{Value: "stressed", Name: "Stressed"},
}

func validMood(v string) bool {
	for _, m := range Moods {
		if m.Value == v {
			return true
		}
	}
	return false
}

type MoodStore interface {
	Caller() principal.Principal
	MoodEntries(ctx context.Context) ([]backend.MoodEntry, error)
	AddMoodEntry(ctx context.Context, mood string) error
}

type MoodService struct {
	store MoodStore
}

func NewMoodService(store MoodStore) *MoodService {
	return &MoodService{store: store}
}

type MoodHistory struct {
	Total  int                 `json:"total"`
	Recent []backend.MoodEntry `json:"recent"`
}

func (s *MoodService) Record(ctx context.Context, mood string) error {
	if !s.store.Caller().Authenticated() {
		return NewUnauthorizedError("Please login to track your mood")
	}
	mood = strings.ToLower(strings.TrimSpace(mood))
	if !validMood(mood) {
		return NewInvalidError("Please select a valid mood")
	}
	return s.store.AddMoodEntry(ctx, mood)
}

// History returns the newest RecentMoodLimit entries and the total count.
func (s *MoodService) History(ctx context.Context) (*MoodHistory, error) {
	entries, err := s.store.MoodEntries(ctx)
	if err != nil {
		return nil, err
	}
	sorted := append([]backend.MoodEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp > sorted[j].Timestamp })
	if len(sorted) > RecentMoodLimit {
		sorted = sorted[:RecentMoodLimit]
	}
	return &MoodHistory{Total: len(entries), Recent: sorted}, nil
}

type TherapyType struct {
	Value string `json:"value"`
	Name  string `json:"name"`
}

var TherapyTypes = []TherapyType{
	{Value: "relaxation", Name: "Relaxation & Breathing"},
	{Value: "art", Name: "Art Therapy"},
	{Value: "music", Name: "Music Therapy"},
	{Value: "physio", Name: "Physiotherapy"},
	{Value: "general", Name: "General Counseling"},
}

func validTherapyType(v string) bool {
	for _, t := range TherapyTypes {
		if t.Value == v {
			return true
		}
	}
	return false
}

type TherapyStore interface {
	Caller() principal.Principal
	CreateTherapySessionRequest(ctx context.Context, typeRequest, details string) error
	TherapyRequests(ctx context.Context) ([]backend.TherapySessionRequest, error)
}

type TherapyService struct {
	store TherapyStore
}

func NewTherapyService(store TherapyStore) *TherapyService {
	return &TherapyService{store: store}
}

func (s *TherapyService) Request(ctx context.Context, typeRequest, details string) error {
	if !s.store.Caller().Authenticated() {
		return NewUnauthorizedError("Please login to request a session")
	}
	typeRequest = strings.TrimSpace(typeRequest)
	details = strings.TrimSpace(details)
	if typeRequest == "" || details == "" {
		return NewInvalidError("Please fill in all fields")
	}
	if !validTherapyType(typeRequest) {
		return NewInvalidError("Please choose a valid session type")
	}
	return s.store.CreateTherapySessionRequest(ctx, typeRequest, details)
}

// All lists every request, newest first. The actor restricts it to admins.
func (s *TherapyService) All(ctx context.Context) ([]backend.TherapySessionRequest, error) {
	reqs, err := s.store.TherapyRequests(ctx)
	if err != nil {
		return nil, err
	}
	out := append([]backend.TherapySessionRequest(nil), reqs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}
