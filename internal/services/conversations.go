package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/principal"
)

// Conversation is the caller's exchange with one other participant.
type Conversation struct {
	Participant  principal.Principal `json:"participant"`
	Messages     []backend.Message   `json:"messages"`
	UnreadCount  int                 `json:"unread_count"`
	LastActivity backend.Time        `json:"last_activity"`
}

// GroupConversations partitions messages by the participant that is not the
// caller. Messages within a conversation are in ascending timestamp order and
// conversations are ordered by most recent activity. A caller without identity
// gets no conversations.
func GroupConversations(messages []backend.Message, caller principal.Principal) []Conversation {
	if caller.IsZero() {
		return []Conversation{}
	}
	byParty := map[principal.Principal]*Conversation{}
	var order []principal.Principal
	for _, m := range messages {
		other := m.Recipient
		if m.Recipient == caller {
			other = m.Sender
		}
		c, ok := byParty[other]
		if !ok {
			c = &Conversation{Participant: other}
			byParty[other] = c
			order = append(order, other)
		}
		c.Messages = append(c.Messages, m)
		if m.Recipient == caller && !m.ReadByRecipient {
			c.UnreadCount++
		}
	}
	out := make([]Conversation, 0, len(order))
	for _, p := range order {
		c := byParty[p]
		sort.SliceStable(c.Messages, func(i, j int) bool { return c.Messages[i].Timestamp < c.Messages[j].Timestamp })
		c.LastActivity = c.Messages[len(c.Messages)-1].Timestamp
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastActivity > out[j].LastActivity })
	return out
}

// TotalUnread sums unread counts across conversations.
func TotalUnread(convs []Conversation) int {
	n := 0
	for _, c := range convs {
		n += c.UnreadCount
	}
	return n
}

// FindConversation returns the conversation with participant, if any.
func FindConversation(convs []Conversation, participant principal.Principal) (Conversation, bool) {
	for _, c := range convs {
		if c.Participant == participant {
			return c, true
		}
	}
	return Conversation{}, false
}

type MessageMarker interface {
	MarkMessageAsRead(ctx context.Context, id uint64) error
}

type markKey struct {
	caller, counterparty principal.Principal
}

// DefaultReadDebounce is how long a conversation is left alone after being marked.
const DefaultReadDebounce = 2 * time.Second

// ReadMarker marks the unread messages of a viewed conversation. Message ids
// already being marked are skipped, and a conversation is not marked again
// within the debounce window.
type ReadMarker struct {
	mu       sync.Mutex
	inflight map[uint64]struct{}
	recent   map[markKey]time.Time
	window   time.Duration
	now      func() time.Time
	log      *zap.Logger
}

func NewReadMarker(window time.Duration, log *zap.Logger) *ReadMarker {
	if window <= 0 {
		window = DefaultReadDebounce
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReadMarker{
		inflight: map[uint64]struct{}{},
		recent:   map[markKey]time.Time{},
		window:   window,
		now:      time.Now,
		log:      log,
	}
}

// claim returns the ids this call is responsible for marking.
func (m *ReadMarker) claim(caller principal.Principal, conv Conversation) []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	key := markKey{caller: caller, counterparty: conv.Participant}
	if last, ok := m.recent[key]; ok && now.Sub(last) < m.window {
		return nil
	}
	for k, t := range m.recent {
		if now.Sub(t) >= m.window {
			delete(m.recent, k)
		}
	}
	var ids []uint64
	for _, msg := range conv.Messages {
		if msg.Recipient != caller || msg.ReadByRecipient {
			continue
		}
		if _, busy := m.inflight[msg.ID]; busy {
			continue
		}
		m.inflight[msg.ID] = struct{}{}
		ids = append(ids, msg.ID)
	}
	if len(ids) > 0 {
		m.recent[key] = now
	}
	return ids
}

func (m *ReadMarker) release(id uint64) {
	m.mu.Lock()
	delete(m.inflight, id)
	m.mu.Unlock()
}

// Mark issues one mark-as-read per claimed message and returns how many were
// issued. Failures are logged and otherwise ignored.
func (m *ReadMarker) Mark(ctx context.Context, marker MessageMarker, caller principal.Principal, conv Conversation) int {
	if caller.IsZero() {
		return 0
	}
	ids := m.claim(caller, conv)
	for _, id := range ids {
		if err := marker.MarkMessageAsRead(ctx, id); err != nil {
			m.log.Warn("mark message as read failed",
				zap.Uint64("message_id", id),
				zap.String("caller", caller.String()),
				zap.Error(err))
		}
		m.release(id)
	}
	return len(ids)
}
