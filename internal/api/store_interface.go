package api

import (
	"context"

	"github.com/soaringjerry/supportportal/internal/db"
	"github.com/soaringjerry/supportportal/internal/services"
)

// Store is the portal's own state: revoked sessions and the audit trail.
// Everything else belongs to the actor.
type Store interface {
	services.SessionStore

	RecordAudit(ctx context.Context, e db.AuditEntry) error
	ListAudit(ctx context.Context, f db.AuditFilter) ([]db.AuditEntry, error)
	Ping(ctx context.Context) error
}

var (
	_ Store = (*memoryStore)(nil)
	_ Store = (*db.SQLiteStore)(nil)
)
