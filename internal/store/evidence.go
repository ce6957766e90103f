package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorekeep/canon/internal/domain"
)

// EvidenceStore persists the append-only evidence trail. The unique index on
// (user_id, subject, attribute, value, confidence, ts) makes re-applying
// identical evidence a no-op, so the trail never holds exact duplicates.
type EvidenceStore struct {
	db *pgxpool.Pool
}

func NewEvidenceStore(db *pgxpool.Pool) *EvidenceStore {
	return &EvidenceStore{db: db}
}

func (s *EvidenceStore) Append(ctx context.Context, rec *domain.EvidenceRecord) (bool, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	valueJSON, err := json.Marshal(rec.Value)
	if err != nil {
		return false, fmt.Errorf("marshal evidence value: %w", err)
	}
	tag, err := s.db.Exec(ctx,
		`INSERT INTO evidence_records (id, user_id, subject, attribute, value, confidence, scope, tags, permanent, ts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (user_id, subject, attribute, value, confidence, ts) DO NOTHING`,
		rec.ID, rec.UserID, rec.Subject, rec.Attribute, valueJSON,
		rec.Confidence, rec.Scope, rec.Tags, rec.Permanent, rec.Timestamp,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *EvidenceStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.EvidenceRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, subject, attribute, value, confidence, scope, tags, permanent, ts, created_at
		 FROM evidence_records WHERE user_id = $1 ORDER BY ts, id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.EvidenceRecord
	for rows.Next() {
		var rec domain.EvidenceRecord
		var valueJSON []byte
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Subject, &rec.Attribute, &valueJSON,
			&rec.Confidence, &rec.Scope, &rec.Tags, &rec.Permanent, &rec.Timestamp, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(valueJSON, &rec.Value); err != nil {
			return nil, fmt.Errorf("unmarshal evidence value: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *EvidenceStore) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM evidence_records WHERE user_id = $1`,
		userID,
	).Scan(&count)
	return count, err
}
