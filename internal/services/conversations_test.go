package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/principal"
)

func abcMessages() []backend.Message {
	return []backend.Message{
		{ID: 1, Sender: bob, Recipient: alice, Content: "hi", Timestamp: 20},
		{ID: 2, Sender: carol, Recipient: alice, Content: "yo", ReadByRecipient: true, Timestamp: 5},
		{ID: 3, Sender: bob, Recipient: alice, Content: "again", Timestamp: 10},
	}
}

func TestGroupConversationsExample(t *testing.T) {
	convs := GroupConversations(abcMessages(), alice)
	if len(convs) != 2 {
		t.Fatalf("want 2 conversations, got %d", len(convs))
	}
	ab, ok := FindConversation(convs, bob)
	if !ok || ab.UnreadCount != 2 || len(ab.Messages) != 2 {
		t.Fatalf("A-B conversation: %+v", ab)
	}
	ac, ok := FindConversation(convs, carol)
	if !ok || ac.UnreadCount != 0 || len(ac.Messages) != 1 {
		t.Fatalf("A-C conversation: %+v", ac)
	}
	if ab.Messages[0].ID != 3 || ab.Messages[1].ID != 1 {
		t.Fatalf("messages not ascending: %+v", ab.Messages)
	}
	if convs[0].Participant != bob {
		t.Fatalf("most recent conversation should come first")
	}
	if TotalUnread(convs) != 2 {
		t.Fatalf("total unread=%d", TotalUnread(convs))
	}
}

func TestGroupConversationsPartitions(t *testing.T) {
	msgs := append(abcMessages(),
		backend.Message{ID: 4, Sender: alice, Recipient: carol, Content: "reply", Timestamp: 7},
		backend.Message{ID: 5, Sender: alice, Recipient: bob, Content: "reply", Timestamp: 7},
	)
	seen := map[uint64]int{}
	for _, c := range GroupConversations(msgs, alice) {
		for i, m := range c.Messages {
			seen[m.ID]++
			if m.Sender != c.Participant && m.Recipient != c.Participant {
				t.Fatalf("message %d in wrong group", m.ID)
			}
			if i > 0 && c.Messages[i-1].Timestamp > m.Timestamp {
				t.Fatalf("group %s out of order", c.Participant)
			}
		}
	}
	for _, m := range msgs {
		if seen[m.ID] != 1 {
			t.Fatalf("message %d appeared %d times", m.ID, seen[m.ID])
		}
	}
}

func TestGroupConversationsWithoutCaller(t *testing.T) {
	if got := GroupConversations(abcMessages(), principal.Principal{}); len(got) != 0 {
		t.Fatalf("expected no conversations, got %d", len(got))
	}
}

func TestReadMarkerDedup(t *testing.T) {
	st := newStub(alice)
	m := NewReadMarker(time.Minute, nil)
	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }
	conv, _ := FindConversation(GroupConversations(abcMessages(), alice), bob)

	if n := m.Mark(context.Background(), st, alice, conv); n != 2 {
		t.Fatalf("first mark issued %d, want 2", n)
	}
	if n := m.Mark(context.Background(), st, alice, conv); n != 0 {
		t.Fatalf("second mark within window issued %d", n)
	}
	now = now.Add(2 * time.Minute)
	if n := m.Mark(context.Background(), st, alice, conv); n != 2 {
		t.Fatalf("mark after window issued %d", n)
	}
	if st.called("markMessageAsRead") != 4 {
		t.Fatalf("calls=%d", st.called("markMessageAsRead"))
	}
}

func TestReadMarkerConcurrent(t *testing.T) {
	st := newStub(alice)
	m := NewReadMarker(time.Minute, nil)
	conv, _ := FindConversation(GroupConversations(abcMessages(), alice), bob)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Mark(context.Background(), st, alice, conv)
		}()
	}
	wg.Wait()
	if n := st.called("markMessageAsRead"); n != 2 {
		t.Fatalf("concurrent views issued %d marks, want 2", n)
	}
}

func TestReadMarkerSkipsOwnAndRead(t *testing.T) {
	st := newStub(alice)
	conv := Conversation{Participant: bob, Messages: []backend.Message{
		{ID: 1, Sender: alice, Recipient: bob},
		{ID: 2, Sender: bob, Recipient: alice, ReadByRecipient: true},
	}}
	if n := NewReadMarker(0, nil).Mark(context.Background(), st, alice, conv); n != 0 {
		t.Fatalf("nothing should be marked, got %d", n)
	}
}

func TestReadMarkerLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	st := newStub(alice)
	st.markErr = errors.New("actor down")
	conv, _ := FindConversation(GroupConversations(abcMessages(), alice), bob)
	NewReadMarker(0, zap.New(core)).Mark(context.Background(), st, alice, conv)
	if logs.Len() != 2 {
		t.Fatalf("want 2 warnings, got %d", logs.Len())
	}
}
