package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soaringjerry/supportportal/internal/db"
	"github.com/soaringjerry/supportportal/internal/principal"
)

// memoryStore backs the router when no database is configured, and in tests.
type memoryStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	audit   []db.AuditEntry
	now     func() time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		revoked: map[string]time.Time{},
		audit:   []db.AuditEntry{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *memoryStore) RevokeSession(_ context.Context, jti string, _ principal.Principal, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.revoked[jti]; !ok {
		s.revoked[jti] = expires
	}
	return nil
}

func (s *memoryStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.revoked[jti]
	return ok, nil
}

func (s *memoryStore) RecordAudit(_ context.Context, e db.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	if e.Outcome == "" {
		e.Outcome = db.OutcomeOK
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, e)
	return nil
}

func (s *memoryStore) ListAudit(_ context.Context, f db.AuditFilter) ([]db.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []db.AuditEntry{}
	for _, e := range s.audit {
		if f.Principal != "" && e.Principal != f.Principal {
			continue
		}
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *memoryStore) Ping(context.Context) error { return nil }
