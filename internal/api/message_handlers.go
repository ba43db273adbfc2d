package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/supportportal/internal/services"
)

const markReadTimeout = 10 * time.Second

func (rt *Router) messaging(r *http.Request) (*services.MessagingService, error) {
	c, err := rt.client(r)
	if err != nil {
		return nil, err
	}
	return services.NewMessagingService(c, rt.marker), nil
}

// GET /api/messages
func (rt *Router) handleInbox(w http.ResponseWriter, r *http.Request) {
	svc, err := rt.messaging(r)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	inbox, err := svc.Inbox(r.Context())
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, inbox)
}

// GET /api/messages/all
func (rt *Router) handleAdminInbox(w http.ResponseWriter, r *http.Request) {
	svc, err := rt.messaging(r)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	inbox, err := svc.AdminInbox(r.Context())
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, inbox)
}

// GET /api/messages/conversations/{principal}
//
// Viewing a conversation marks its unread messages; the marking runs after
// the response and its failures are only logged.
func (rt *Router) handleConversation(w http.ResponseWriter, r *http.Request) {
	svc, err := rt.messaging(r)
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	conv, err := svc.Open(r.Context(), r.PathValue("principal"))
	if err != nil {
		rt.writeError(w, r, services.ActionLoad, err)
		return
	}
	if conv.UnreadCount > 0 {
		snapshot := *conv
		rt.detach(r.Context(), markReadTimeout, func(ctx context.Context) {
			if n := svc.MarkRead(ctx, snapshot); n > 0 {
				rt.msgLog.Debug("marked messages read", zap.Int("count", n), zap.Stringer("counterparty", snapshot.Participant))
			}
		})
	}
	writeJSON(w, http.StatusOK, conv)
}

// POST /api/messages {recipient, content, is_support}
func (rt *Router) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var form services.SendForm
	if err := decodeJSON(w, r, &form); err != nil {
		rt.writeError(w, r, services.ActionSendMessage, err)
		return
	}
	svc, err := rt.messaging(r)
	if err != nil {
		rt.writeError(w, r, services.ActionSendMessage, err)
		return
	}
	if rt.mutate(w, r, services.ActionSendMessage, "sendMessage", form.Recipient, func() error {
		return svc.Send(r.Context(), form)
	}) {
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "toast": "Message sent successfully"})
	}
}
