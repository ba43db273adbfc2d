package services

import (
	"context"
	"errors"
	"strings"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/principal"
)

type MessagingStore interface {
	MessageMarker
	Caller() principal.Principal
	Messages(ctx context.Context) ([]backend.Message, error)
	AllMessages(ctx context.Context) ([]backend.Message, error)
	IsCallerAdmin(ctx context.Context) (bool, error)
	SendMessage(ctx context.Context, recipient principal.Principal, content string, isSupport bool) error
}

type MessagingService struct {
	store  MessagingStore
	marker *ReadMarker
}

// NewMessagingService shares marker across requests so its dedup holds
// between them.
func NewMessagingService(store MessagingStore, marker *ReadMarker) *MessagingService {
	if marker == nil {
		marker = NewReadMarker(0, nil)
	}
	return &MessagingService{store: store, marker: marker}
}

type Inbox struct {
	Conversations []Conversation `json:"conversations"`
	TotalUnread   int            `json:"total_unread"`
}

func (s *MessagingService) Inbox(ctx context.Context) (*Inbox, error) {
	caller := s.store.Caller()
	if !caller.Authenticated() {
		return nil, NewUnauthorizedError("Please login to access your messages")
	}
	msgs, err := s.store.Messages(ctx)
	if err != nil {
		return nil, err
	}
	convs := GroupConversations(msgs, caller)
	return &Inbox{Conversations: convs, TotalUnread: TotalUnread(convs)}, nil
}

// AdminInbox groups every message in the system relative to the calling admin.
func (s *MessagingService) AdminInbox(ctx context.Context) (*Inbox, error) {
	caller := s.store.Caller()
	if !caller.Authenticated() {
		return nil, NewUnauthorizedError("Please login to access your messages")
	}
	admin, err := s.store.IsCallerAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, NewForbiddenError("Only admins can view all messages")
	}
	msgs, err := s.store.AllMessages(ctx)
	if err != nil {
		return nil, err
	}
	convs := GroupConversations(msgs, caller)
	return &Inbox{Conversations: convs, TotalUnread: TotalUnread(convs)}, nil
}

// Open returns the conversation with counterparty. The unread messages in it
// still need marking; MarkRead does that and is meant to run detached.
func (s *MessagingService) Open(ctx context.Context, counterparty string) (*Conversation, error) {
	other, err := ParsePrincipal(counterparty)
	if err != nil {
		return nil, err
	}
	inbox, err := s.Inbox(ctx)
	if err != nil {
		return nil, err
	}
	conv, ok := FindConversation(inbox.Conversations, other)
	if !ok {
		conv = Conversation{Participant: other, Messages: []backend.Message{}}
	}
	return &conv, nil
}

// MarkRead marks conv's unread messages addressed to the caller.
func (s *MessagingService) MarkRead(ctx context.Context, conv Conversation) int {
	return s.marker.Mark(ctx, s.store, s.store.Caller(), conv)
}

type SendForm struct {
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
	IsSupport bool   `json:"is_support"`
}

func (s *MessagingService) Send(ctx context.Context, f SendForm) error {
	if !s.store.Caller().Authenticated() {
		return NewUnauthorizedError("Please login to send messages")
	}
	recipient, err := ParsePrincipal(f.Recipient)
	if err != nil {
		return err
	}
	content := strings.TrimSpace(f.Content)
	if content == "" {
		return NewInvalidError("Please enter a message")
	}
	return s.store.SendMessage(ctx, recipient, content, f.IsSupport)
}

// ParsePrincipal turns user-entered principal text into a principal or a
// validation error.
func ParsePrincipal(text string) (principal.Principal, error) {
	p, err := principal.Parse(text)
	if err != nil {
		if errors.Is(err, principal.ErrEmpty) {
			return principal.Principal{}, NewInvalidError("Please enter a principal ID")
		}
		return principal.Principal{}, NewInvalidError("Invalid principal ID")
	}
	return p, nil
}
