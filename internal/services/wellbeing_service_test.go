package services

import (
	"context"
	"testing"

	"github.com/soaringjerry/supportportal/internal/backend"
)

func TestMoodRecordAndHistory(t *testing.T) {
	st := newStub(alice)
	svc := NewMoodService(st)
	if err := svc.Record(context.Background(), "ecstatic"); err == nil {
		t.Fatalf("unknown mood must fail")
	}
	if err := svc.Record(context.Background(), " Happy "); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if st.last["addMoodEntry"] != "happy" {
		t.Fatalf("recorded %v", st.last["addMoodEntry"])
	}

	for i := 0; i < 12; i++ {
		st.moods = append(st.moods, backend.MoodEntry{Mood: "neutral", Timestamp: backend.Time(i)})
	}
	h, err := svc.History(context.Background())
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if h.Total != 12 || len(h.Recent) != RecentMoodLimit || h.Recent[0].Timestamp != 11 {
		t.Fatalf("unexpected history total=%d recent=%d first=%d", h.Total, len(h.Recent), h.Recent[0].Timestamp)
	}
}

func TestTherapyRequest(t *testing.T) {
	st := newStub(alice)
	svc := NewTherapyService(st)
	if err := svc.Request(context.Background(), "art", " "); err == nil || err.Error() != "Please fill in all fields" {
		t.Fatalf("unexpected %v", err)
	}
	if err := svc.Request(context.Background(), "astrology", "please"); err == nil {
		t.Fatalf("unknown type must fail")
	}
	if err := svc.Request(context.Background(), "music", "evenings"); err != nil {
		t.Fatalf("Request: %v", err)
	}
	st.therapy = []backend.TherapySessionRequest{{TypeRequest: "art", Timestamp: 1}, {TypeRequest: "music", Timestamp: 9}}
	all, err := svc.All(context.Background())
	if err != nil || all[0].TypeRequest != "music" {
		t.Fatalf("requests not newest first: %+v %v", all, err)
	}
}
