package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/lorekeep/canon/internal/domain"
)

// InMemEvidenceStore keeps evidence trails in memory. Used by tests and for
// running the server without Postgres. Matches the SQL store's dedup
// semantics.
type InMemEvidenceStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID][]domain.EvidenceRecord
}

func NewInMemEvidenceStore() *InMemEvidenceStore {
	return &InMemEvidenceStore{records: make(map[uuid.UUID][]domain.EvidenceRecord)}
}

func (s *InMemEvidenceStore) Append(ctx context.Context, rec *domain.EvidenceRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records[rec.UserID] {
		if existing.Duplicate(*rec) {
			return false, nil
		}
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	trail := append(s.records[rec.UserID], *rec)
	sort.SliceStable(trail, func(i, j int) bool {
		return trail[i].Timestamp.Before(trail[j].Timestamp)
	})
	s.records[rec.UserID] = trail
	return true, nil
}

func (s *InMemEvidenceStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.EvidenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trail := s.records[userID]
	out := make([]domain.EvidenceRecord, len(trail))
	copy(out, trail)
	return out, nil
}

func (s *InMemEvidenceStore) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[userID]), nil
}
