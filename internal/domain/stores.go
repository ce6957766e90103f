package domain

import (
	"context"

	"github.com/google/uuid"
)

// EvidenceStore owns the append-only evidence trail. Append reports whether
// the record was stored (false means an exact duplicate already existed).
type EvidenceStore interface {
	Append(ctx context.Context, rec *EvidenceRecord) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]EvidenceRecord, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*User, error)
}
