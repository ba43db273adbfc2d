// Package db keeps the portal's own state in SQLite: revoked session tokens
// and the audit trail of writes issued through the portal.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/soaringjerry/supportportal/internal/principal"
)

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
	log *zap.Logger
}

// Open opens (creating if needed) the database file at path.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(path))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

func NewSQLiteStore(db *sql.DB, log *zap.Logger) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	if log == nil {
		log = zap.NewNop()
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }, log: log}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// Ping is used by the health endpoint.
func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// RevokeSession records jti as revoked until expires. Revoking twice keeps the
// first record.
func (s *SQLiteStore) RevokeSession(ctx context.Context, jti string, caller principal.Principal, expires time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_sessions(jti, principal, revoked_at, expires_at) VALUES(?, ?, ?, ?)`,
		jti, caller.String(), s.now().Unix(), expires.Unix())
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM revoked_sessions WHERE jti = ?`, jti).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("check revoked session: %w", err)
	}
	return true, nil
}

// PurgeExpired drops revocations whose tokens have expired anyway.
func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM revoked_sessions WHERE expires_at < ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge revoked sessions: %w", err)
	}
	return res.RowsAffected()
}

type AuditEntry struct {
	ID        string    `json:"id"`
	Principal string    `json:"principal"`
	Action    string    `json:"action"`
	Target    string    `json:"target,omitempty"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// RecordAudit stores e, filling ID and CreatedAt when unset.
func (s *SQLiteStore) RecordAudit(ctx context.Context, e AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	if e.Outcome == "" {
		e.Outcome = OutcomeOK
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log(id, principal, action, target, outcome, detail, request_id, created_at) VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Principal, e.Action, e.Target, e.Outcome, e.Detail, e.RequestID, e.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}

type AuditFilter struct {
	Principal string
	Action    string
	Limit     int
}

const maxAuditPage = 500

// ListAudit returns entries newest first.
func (s *SQLiteStore) ListAudit(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.Principal != "" {
		where = append(where, "principal = ?")
		args = append(args, f.Principal)
	}
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, f.Action)
	}
	q := `SELECT id, principal, action, target, outcome, detail, request_id, created_at FROM audit_log`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 || limit > maxAuditPage {
		limit = maxAuditPage
	}
	q += " ORDER BY created_at DESC, id LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	defer rows.Close()
	out := []AuditEntry{}
	for rows.Next() {
		var (
			e  AuditEntry
			ns int64
		)
		if err := rows.Scan(&e.ID, &e.Principal, &e.Action, &e.Target, &e.Outcome, &e.Detail, &e.RequestID, &ns); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(0, ns).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// RunJanitor purges expired revocations every interval until ctx is done.
func (s *SQLiteStore) RunJanitor(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n, err := s.PurgeExpired(ctx); err != nil {
				s.log.Warn("purge revoked sessions failed", zap.Error(err))
			} else if n > 0 {
				s.log.Debug("purged revoked sessions", zap.Int64("count", n))
			}
		}
	}
}
