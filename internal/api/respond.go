package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/soaringjerry/supportportal/internal/backend"
	"github.com/soaringjerry/supportportal/internal/db"
	"github.com/soaringjerry/supportportal/internal/middleware"
	"github.com/soaringjerry/supportportal/internal/queries"
	"github.com/soaringjerry/supportportal/internal/services"
)

const maxBody = 1 << 20

type errorBody struct {
	Error string `json:"error"`
	Toast string `json:"toast"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	if se, ok := services.AsServiceError(err); ok {
		switch se.Code {
		case services.ErrorInvalid:
			return http.StatusBadRequest
		case services.ErrorUnauthorized:
			return http.StatusUnauthorized
		case services.ErrorForbidden:
			return http.StatusForbidden
		case services.ErrorNotFound:
			return http.StatusNotFound
		case services.ErrorRejected:
			return http.StatusUnprocessableEntity
		case services.ErrorConfirmationRequired:
			return http.StatusConflict
		case services.ErrorBadGateway:
			return http.StatusBadGateway
		}
	}
	switch {
	case errors.Is(err, backend.ErrActorUnavailable):
		return http.StatusServiceUnavailable
	case backend.IsRemote(err):
		// The actor refused; its message says why.
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

// writeError reports err with the raw message and the toast the page shows.
func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, action services.Action, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		rt.log.Warn("request failed",
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.String("action", string(action)),
			zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Toast: services.Toast(action, err)})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return services.NewInvalidError("request body required")
		}
		return services.NewInvalidError(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

func pathID(r *http.Request, name string) (uint64, error) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, services.NewInvalidError("invalid " + name)
	}
	return id, nil
}

// audit records a write issued on behalf of the caller. A failing audit
// write is logged and never fails the request.
func (rt *Router) audit(r *http.Request, action, target string, err error) {
	id := middleware.IdentityFromContext(r.Context())
	e := db.AuditEntry{
		Principal: id.Principal.String(),
		Action:    action,
		Target:    target,
		Outcome:   db.OutcomeOK,
		RequestID: middleware.RequestIDFromContext(r.Context()),
	}
	if err != nil {
		e.Outcome = db.OutcomeError
		e.Detail = err.Error()
	}
	if aerr := rt.store.RecordAudit(r.Context(), e); aerr != nil {
		rt.log.Warn("audit write failed", zap.String("action", action), zap.Error(aerr))
	}
}

// apply runs a write and audits it when it reached the actor.
func (rt *Router) apply(r *http.Request, method, target string, fn func() error) error {
	before, tracked := queries.WritesSent(r.Context())
	err := fn()
	if errors.Is(err, backend.ErrActorUnavailable) {
		return err
	}
	if tracked {
		if after, _ := queries.WritesSent(r.Context()); after == before {
			return err
		}
	} else if _, local := services.AsServiceError(err); local {
		return err
	}
	rt.audit(r, method, target, err)
	return err
}

// trackWrites lets apply tell whether a write was sent to the actor.
func trackWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(queries.WithWriteLog(r.Context())))
	})
}

// mutate is apply for JSON endpoints: false means the error was written.
func (rt *Router) mutate(w http.ResponseWriter, r *http.Request, action services.Action, method, target string, fn func() error) bool {
	if err := rt.apply(r, method, target, fn); err != nil {
		rt.writeError(w, r, action, err)
		return false
	}
	return true
}

func ok(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
